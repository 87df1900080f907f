// Package slice stores one entity's category data as a time series per
// category name and answers "value of name N as of time T" queries.
//
// Lookups resolve to the most recent point at or before the query time.
// The slice tracks its own update time so change detection can drive store
// notifications without re-scanning unchanged categories.
package slice

import (
	"sort"

	"github.com/scrypster/catdata/internal/naming"
)

// state is the per-category time line plus the value observed at the last
// Update call, for change detection.
type state struct {
	series
	hasLast   bool
	lastValue int
}

// Slice is one entity's category data. Not safe for concurrent mutation; the
// owning store serializes writes and freezes state for reads.
type Slice struct {
	names          *naming.Manager
	data           map[int]*state // name ID -> time line
	lastUpdateTime float64
	numItems       int
}

// New returns an empty slice bound to the given name manager. The update
// time starts before all data.
func New(names *naming.Manager) *Slice {
	return &Slice{
		names:          names,
		data:           make(map[int]*state),
		lastUpdateTime: StaticTime,
	}
}

// LastUpdateTime returns the time of the last Update call.
func (s *Slice) LastUpdateTime() float64 {
	return s.lastUpdateTime
}

// NumItems returns the count of stored points. Overwriting a point at an
// existing time still counts as an insert; limiting and flushing recount.
func (s *Slice) NumItems() int {
	return s.numItems
}

// Insert interns key and value and adds a point at time t.
func (s *Slice) Insert(t float64, key, value string) {
	nameInt := s.names.AddCategoryName(key)
	valueInt := s.names.AddCategoryValue(nameInt, value)
	st := s.data[nameInt]
	if st == nil {
		st = &state{}
		s.data[nameInt] = st
	}
	st.insert(t, valueInt)
	s.numItems++
}

// RemovePoint deletes the point at exactly (t, nameInt, valueInt).
func (s *Slice) RemovePoint(t float64, nameInt, valueInt int) bool {
	st := s.data[nameInt]
	if st == nil || !st.removeAt(t, valueInt) {
		return false
	}
	s.numItems--
	return true
}

// IsDuplicateValue reports whether inserting (t, name, value) would be a
// no-op: the value effective at t (from the nearest point at or before t,
// including a point exactly at t that the insert would overwrite) already
// equals value. Points after t keep their own values regardless of the
// insert, so the bracketing successor needs no separate scan.
func (s *Slice) IsDuplicateValue(t float64, name, value string) bool {
	st := s.data[s.names.NameToInt(name)]
	if st == nil {
		return false
	}
	effective, ok := st.valueAt(t)
	if !ok {
		return false
	}
	return effective == s.names.ValueToInt(value)
}

// Update advances the slice to time t and reports whether any category's
// effective value changed since the previous Update.
func (s *Slice) Update(t float64) bool {
	changed := false
	for _, st := range s.data {
		v, ok := st.valueAt(t)
		if !ok {
			if st.hasLast {
				st.hasLast = false
				changed = true
			}
			continue
		}
		if !st.hasLast || st.lastValue != v {
			changed = true
		}
		st.hasLast = true
		st.lastValue = v
	}
	s.lastUpdateTime = t
	return changed
}

// ValueAt returns the value ID for a category name effective at time t.
func (s *Slice) ValueAt(nameInt int, t float64) (int, bool) {
	st := s.data[nameInt]
	if st == nil {
		return 0, false
	}
	return st.valueAt(t)
}

// CurrentInts returns the name ID -> value ID map effective at the slice's
// update time. Categories with no effective value are omitted.
func (s *Slice) CurrentInts() map[int]int {
	out := make(map[int]int, len(s.data))
	for nameInt, st := range s.data {
		if v, ok := st.valueAt(s.lastUpdateTime); ok {
			out[nameInt] = v
		}
	}
	return out
}

// CurrentStrings returns the name -> value string map effective at the
// slice's update time.
func (s *Slice) CurrentStrings() map[string]string {
	ints := s.CurrentInts()
	out := make(map[string]string, len(ints))
	for nameInt, valueInt := range ints {
		out[s.names.NameIntToString(nameInt)] = s.names.ValueIntToString(valueInt)
	}
	return out
}

// AllNameInts returns every category name ID with any stored data, ascending.
func (s *Slice) AllNameInts() []int {
	out := make([]int, 0, len(s.data))
	for nameInt := range s.data {
		out = append(out, nameInt)
	}
	sort.Ints(out)
	return out
}

// AllNames returns every category name with any stored data, ascending by ID.
func (s *Slice) AllNames() []string {
	ints := s.AllNameInts()
	out := make([]string, 0, len(ints))
	for _, nameInt := range ints {
		out = append(out, s.names.NameIntToString(nameInt))
	}
	return out
}

// Visit calls fn for every stored point in ascending (name ID, time) order.
func (s *Slice) Visit(fn func(t float64, name, value string)) {
	for _, nameInt := range s.AllNameInts() {
		name := s.names.NameIntToString(nameInt)
		for _, tv := range s.data[nameInt].entries {
			fn(tv.time, name, s.names.ValueIntToString(tv.value))
		}
	}
}

// Flush keeps only the most recent point per category, reclaiming history
// while preserving the values effective at the current update time.
func (s *Slice) Flush() {
	s.LimitByPoints(1)
}

// LimitByPoints trims every category to its newest limit points.
// Zero means no limit. Static points at time -1 are preserved.
func (s *Slice) LimitByPoints(limit int) {
	if limit <= 0 {
		return
	}
	s.numItems = 0
	for _, st := range s.data {
		st.limitByPoints(limit)
		s.numItems += len(st.entries)
	}
}

// LimitByTime trims points older than span seconds before each category's
// newest point. Zero or negative means no limit.
func (s *Slice) LimitByTime(span float64) {
	if span <= 0 {
		return
	}
	s.numItems = 0
	for _, st := range s.data {
		st.limitBySpan(span)
		s.numItems += len(st.entries)
	}
}
