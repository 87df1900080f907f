package slice

import "sort"

// StaticTime marks a "static" category point that applies from the beginning
// of the scenario. Static points are preserved by data limiting.
const StaticTime = -1.0

type timeValue struct {
	time  float64
	value int
}

// series is one category name's ordered time line. Times are strictly
// ascending; inserting at an existing time overwrites that point's value.
type series struct {
	entries []timeValue
}

// upperBound returns the index of the first entry with time > t.
func (s *series) upperBound(t float64) int {
	return sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].time > t
	})
}

// valueAt returns the value effective at time t: the most recent point with
// time <= t. ok is false when no point is effective yet.
func (s *series) valueAt(t float64) (value int, ok bool) {
	i := s.upperBound(t)
	if i == 0 {
		return 0, false
	}
	return s.entries[i-1].value, true
}

// insert adds (t, value), overwriting an existing point at exactly t.
func (s *series) insert(t float64, value int) {
	// Common case: appending in time order.
	if n := len(s.entries); n == 0 || s.entries[n-1].time < t {
		s.entries = append(s.entries, timeValue{t, value})
		return
	}
	i := s.upperBound(t)
	if i > 0 && s.entries[i-1].time == t {
		s.entries[i-1].value = value
		return
	}
	s.entries = append(s.entries, timeValue{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = timeValue{t, value}
}

// removeAt deletes the point at exactly time t with the given value.
func (s *series) removeAt(t float64, value int) bool {
	i := s.upperBound(t)
	if i == 0 || s.entries[i-1].time != t || s.entries[i-1].value != value {
		return false
	}
	s.entries = append(s.entries[:i-1], s.entries[i:]...)
	return true
}

// limitByPoints keeps the newest limit points. A leading static point does
// not count against the limit and is re-inserted after trimming.
func (s *series) limitByPoints(limit int) {
	if limit <= 0 || len(s.entries) <= limit {
		return
	}
	var static *timeValue
	if s.entries[0].time == StaticTime {
		tv := s.entries[0]
		static = &tv
	}
	remove := len(s.entries) - limit
	if static != nil && remove == 1 {
		return // only the static point would go; keep it
	}
	s.entries = append([]timeValue(nil), s.entries[remove:]...)
	if static != nil {
		s.entries = append([]timeValue{*static}, s.entries...)
	}
}

// limitBySpan keeps points within span seconds of the newest point, plus a
// leading static point.
func (s *series) limitBySpan(span float64) {
	if span <= 0 || len(s.entries) < 2 {
		return
	}
	var static *timeValue
	if s.entries[0].time == StaticTime {
		tv := s.entries[0]
		static = &tv
		if len(s.entries) < 3 {
			return
		}
	}
	cutoff := s.entries[len(s.entries)-1].time - span
	// First index with time >= cutoff.
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].time >= cutoff
	})
	if i == 0 {
		return
	}
	s.entries = append([]timeValue(nil), s.entries[i:]...)
	if static != nil {
		s.entries = append([]timeValue{*static}, s.entries...)
	}
}
