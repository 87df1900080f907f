package slice

// Pair is one (category name, value) assignment effective at a point in time.
type Pair struct {
	NameInt  int
	ValueInt int
	Name     string
	Value    string
}

// Iterator walks the (name, value) pairs effective at a fixed time, in
// ascending name ID order. The cursor sits between elements: Next returns
// the element after the cursor and advances; Previous retreats and returns
// the element now after the cursor.
type Iterator struct {
	pairs []Pair
	pos   int
}

// Current returns an iterator over the pairs effective at the slice's update
// time. The iterator holds a snapshot; later mutations do not affect it.
func (s *Slice) Current() *Iterator {
	return s.At(s.lastUpdateTime)
}

// At returns an iterator over the pairs effective at time t.
func (s *Slice) At(t float64) *Iterator {
	var pairs []Pair
	for _, nameInt := range s.AllNameInts() {
		v, ok := s.data[nameInt].valueAt(t)
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{
			NameInt:  nameInt,
			ValueInt: v,
			Name:     s.names.NameIntToString(nameInt),
			Value:    s.names.ValueIntToString(v),
		})
	}
	return &Iterator{pairs: pairs}
}

// HasNext reports whether Next will return a valid pair.
func (it *Iterator) HasNext() bool {
	return it.pos < len(it.pairs)
}

// Next returns the next pair and advances the cursor.
func (it *Iterator) Next() Pair {
	p := it.pairs[it.pos]
	it.pos++
	return p
}

// PeekNext returns the next pair without advancing.
func (it *Iterator) PeekNext() Pair {
	return it.pairs[it.pos]
}

// HasPrevious reports whether Previous will return a valid pair.
func (it *Iterator) HasPrevious() bool {
	return it.pos > 0
}

// Previous retreats the cursor and returns the pair it moved over.
func (it *Iterator) Previous() Pair {
	it.pos--
	return it.pairs[it.pos]
}

// PeekPrevious returns the pair before the cursor without moving it.
func (it *Iterator) PeekPrevious() Pair {
	return it.pairs[it.pos-1]
}

// ToFront resets the cursor before the first pair.
func (it *Iterator) ToFront() {
	it.pos = 0
}

// ToBack places the cursor after the last pair.
func (it *Iterator) ToBack() {
	it.pos = len(it.pairs)
}
