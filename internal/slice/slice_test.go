package slice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/catdata/internal/naming"
)

func newTestSlice(t *testing.T) (*Slice, *naming.Manager) {
	t.Helper()
	names := naming.NewManager()
	return New(names), names
}

func TestValueAtResolvesMostRecent(t *testing.T) {
	s, names := newTestSlice(t)

	s.Insert(1.0, "key", "a")
	s.Insert(3.0, "key", "b")
	key := names.NameToInt("key")
	a := names.ValueToInt("a")
	b := names.ValueToInt("b")

	_, ok := s.ValueAt(key, 0.5)
	assert.False(t, ok, "no value before the first point")

	got, ok := s.ValueAt(key, 1.0)
	require.True(t, ok)
	assert.Equal(t, a, got)

	got, ok = s.ValueAt(key, 2.0)
	require.True(t, ok)
	assert.Equal(t, a, got)

	got, ok = s.ValueAt(key, 3.0)
	require.True(t, ok)
	assert.Equal(t, b, got)

	got, ok = s.ValueAt(key, 100.0)
	require.True(t, ok)
	assert.Equal(t, b, got)
}

func TestInsertAtExistingTimeOverwrites(t *testing.T) {
	s, names := newTestSlice(t)

	s.Insert(1.0, "key", "a")
	s.Insert(1.0, "key", "b")

	got, ok := s.ValueAt(names.NameToInt("key"), 1.0)
	require.True(t, ok)
	assert.Equal(t, names.ValueToInt("b"), got)

	// Overwrites still count as inserts until the next recount.
	assert.Equal(t, 2, s.NumItems())
}

func TestOutOfOrderInsert(t *testing.T) {
	s, names := newTestSlice(t)

	s.Insert(3.0, "key", "c")
	s.Insert(1.0, "key", "a")
	s.Insert(2.0, "key", "b")
	key := names.NameToInt("key")

	for _, tc := range []struct {
		at   float64
		want string
	}{
		{1.0, "a"},
		{2.0, "b"},
		{2.5, "b"},
		{3.0, "c"},
	} {
		got, ok := s.ValueAt(key, tc.at)
		require.True(t, ok, "at %v", tc.at)
		assert.Equal(t, names.ValueToInt(tc.want), got, "at %v", tc.at)
	}
}

func TestIsDuplicateValue(t *testing.T) {
	s, _ := newTestSlice(t)

	assert.False(t, s.IsDuplicateValue(1.0, "cat", "A"), "empty slice has no duplicates")

	s.Insert(1.0, "cat", "A")
	assert.True(t, s.IsDuplicateValue(1.0, "cat", "A"), "same time, same value")
	assert.True(t, s.IsDuplicateValue(2.0, "cat", "A"), "later time inherits the value")
	assert.False(t, s.IsDuplicateValue(1.0, "cat", "B"), "different value")
	assert.False(t, s.IsDuplicateValue(0.5, "cat", "A"), "before the first point")

	s.Insert(3.0, "cat", "B")
	assert.True(t, s.IsDuplicateValue(2.5, "cat", "A"))
	assert.True(t, s.IsDuplicateValue(3.0, "cat", "B"))
	assert.True(t, s.IsDuplicateValue(3.5, "cat", "B"))
	assert.False(t, s.IsDuplicateValue(3.0, "cat", "A"))
}

func TestUpdateChangeDetection(t *testing.T) {
	s, _ := newTestSlice(t)

	s.Insert(1.0, "key", "a")
	s.Insert(3.0, "key", "b")

	assert.False(t, s.Update(0.5), "no effective value yet")
	assert.True(t, s.Update(1.0), "value appears")
	assert.False(t, s.Update(2.0), "same effective value")
	assert.True(t, s.Update(3.0), "value changes")
	assert.False(t, s.Update(4.0), "still the same value")
	assert.True(t, s.Update(0.5), "value disappears going back in time")
	assert.Equal(t, 0.5, s.LastUpdateTime())
}

func TestCurrentInts(t *testing.T) {
	s, names := newTestSlice(t)

	s.Insert(1.0, "k1", "a")
	s.Insert(2.0, "k2", "b")
	s.Update(1.5)

	got := s.CurrentInts()
	assert.Equal(t, map[int]int{
		names.NameToInt("k1"): names.ValueToInt("a"),
	}, got, "k2 has no value at 1.5")

	s.Update(2.0)
	assert.Len(t, s.CurrentInts(), 2)
	assert.Equal(t, map[string]string{"k1": "a", "k2": "b"}, s.CurrentStrings())
}

func TestFlushKeepsMostRecentPerCategory(t *testing.T) {
	s, names := newTestSlice(t)

	s.Insert(1.0, "k1", "a")
	s.Insert(2.0, "k1", "b")
	s.Insert(1.0, "k2", "c")
	s.Insert(2.0, "k2", "d")
	s.Insert(1.0, "k3", "e")
	s.Insert(2.0, "k3", "f")
	require.Equal(t, 6, s.NumItems())

	s.Flush()
	assert.Equal(t, 3, s.NumItems())

	// The newest value survives; history is gone.
	got, ok := s.ValueAt(names.NameToInt("k1"), 5.0)
	require.True(t, ok)
	assert.Equal(t, names.ValueToInt("b"), got)
	_, ok = s.ValueAt(names.NameToInt("k1"), 1.0)
	assert.False(t, ok)
}

func TestLimitByPointsPreservesStatic(t *testing.T) {
	s, names := newTestSlice(t)

	s.Insert(StaticTime, "key", "static")
	s.Insert(1.0, "key", "a")
	s.Insert(2.0, "key", "b")
	s.Insert(3.0, "key", "c")

	s.LimitByPoints(2)
	key := names.NameToInt("key")

	// The static point does not count against the limit.
	got, ok := s.ValueAt(key, 0.0)
	require.True(t, ok)
	assert.Equal(t, names.ValueToInt("static"), got)

	_, ok = s.ValueAt(key, 1.5)
	require.True(t, ok)
	got, _ = s.ValueAt(key, 1.5)
	assert.Equal(t, names.ValueToInt("static"), got, "point at 1.0 trimmed")

	got, ok = s.ValueAt(key, 2.5)
	require.True(t, ok)
	assert.Equal(t, names.ValueToInt("b"), got)
	assert.Equal(t, 3, s.NumItems())
}

func TestLimitByTime(t *testing.T) {
	s, names := newTestSlice(t)

	s.Insert(1.0, "key", "a")
	s.Insert(5.0, "key", "b")
	s.Insert(10.0, "key", "c")

	s.LimitByTime(6.0)
	key := names.NameToInt("key")

	_, ok := s.ValueAt(key, 1.0)
	assert.False(t, ok, "point older than the span is trimmed")
	got, ok := s.ValueAt(key, 5.0)
	require.True(t, ok)
	assert.Equal(t, names.ValueToInt("b"), got)
	assert.Equal(t, 2, s.NumItems())
}

func TestRemovePoint(t *testing.T) {
	s, names := newTestSlice(t)

	s.Insert(1.0, "key", "a")
	key := names.NameToInt("key")
	a := names.ValueToInt("a")

	assert.False(t, s.RemovePoint(2.0, key, a), "no point at that time")
	assert.True(t, s.RemovePoint(1.0, key, a))
	assert.Equal(t, 0, s.NumItems())
	_, ok := s.ValueAt(key, 1.0)
	assert.False(t, ok)
}

func TestIteratorWalk(t *testing.T) {
	s, _ := newTestSlice(t)

	s.Insert(1.0, "k1", "a")
	s.Insert(1.0, "k2", "b")
	s.Update(1.0)

	it := s.Current()
	require.True(t, it.HasNext())
	assert.False(t, it.HasPrevious())

	first := it.Next()
	assert.Equal(t, "k1", first.Name)
	assert.Equal(t, "a", first.Value)

	second := it.Next()
	assert.Equal(t, "k2", second.Name)
	assert.False(t, it.HasNext())

	// Previous returns the element the cursor just moved over.
	back := it.Previous()
	assert.Equal(t, second, back)
	back = it.Previous()
	assert.Equal(t, first, back)
	assert.False(t, it.HasPrevious())

	it.ToBack()
	assert.False(t, it.HasNext())
	it.ToFront()
	assert.Equal(t, first, it.PeekNext())
}

func TestIteratorSnapshotAtTime(t *testing.T) {
	s, _ := newTestSlice(t)

	s.Insert(1.0, "k1", "a")
	s.Insert(5.0, "k2", "b")

	it := s.At(2.0)
	require.True(t, it.HasNext())
	p := it.Next()
	assert.Equal(t, "k1", p.Name)
	assert.False(t, it.HasNext(), "k2 not effective at 2.0")

	// Later inserts do not affect an existing iterator.
	s.Insert(0.5, "k3", "c")
	it.ToFront()
	count := 0
	for it.HasNext() {
		it.Next()
		count++
	}
	assert.Equal(t, 1, count)
}

func TestVisitOrder(t *testing.T) {
	s, _ := newTestSlice(t)

	s.Insert(2.0, "k1", "b")
	s.Insert(1.0, "k1", "a")
	s.Insert(1.0, "k2", "c")

	type point struct {
		t           float64
		name, value string
	}
	var got []point
	s.Visit(func(t float64, name, value string) {
		got = append(got, point{t, name, value})
	})

	assert.Equal(t, []point{
		{1.0, "k1", "a"},
		{2.0, "k1", "b"},
		{1.0, "k2", "c"},
	}, got)
}

func TestAllNames(t *testing.T) {
	s, _ := newTestSlice(t)

	s.Insert(1.0, "k2", "a")
	s.Insert(1.0, "k1", "b")

	// Ascending ID order is insertion order of the names.
	assert.Equal(t, []string{"k2", "k1"}, s.AllNames())
}
