package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/catdata/internal/naming"
	"github.com/scrypster/catdata/internal/store"
	"github.com/scrypster/catdata/pkg/types"
)

const platformID = types.ObjectID(1)

// newTestStore builds a store with one platform whose category data is:
// key1 = value1 (1.0, after an overwritten value1a), value3 (2.0), value4 (3.0);
// key2 = value2 (1.0); key3 = value1 (2.0).
func newTestStore(t *testing.T) (*store.MemoryStore, *Filter) {
	t.Helper()

	names := naming.NewManager()
	st := store.New(names)
	require.NoError(t, st.AddEntity(platformID, types.ObjectTypePlatform))

	add := func(at float64, entries ...types.Entry) {
		require.NoError(t, st.AddCategoryData(platformID, types.CategoryUpdate{
			Time:    at,
			Entries: entries,
		}))
	}
	add(1.0, types.Entry{Key: "key1", Value: "value1a"}, types.Entry{Key: "key2", Value: "value2"})
	add(1.0, types.Entry{Key: "key1", Value: "value1"})
	add(2.0, types.Entry{Key: "key1", Value: "value3"}, types.Entry{Key: "key3", Value: "value1"})
	add(3.0, types.Entry{Key: "key1", Value: "value4"})

	return st, New(names, NewFactory())
}

// mustMatch deserializes expr and reports whether the platform matches,
// mirroring how preference rules are evaluated.
func mustMatch(t *testing.T, st *store.MemoryStore, f *Filter, expr string) bool {
	t.Helper()
	require.NoError(t, f.Deserialize(expr, true))
	return f.Match(st, platformID)
}

func TestMatchListedValues(t *testing.T) {
	st, f := newTestStore(t)
	st.Update(2.0)
	// key1=value3, key2=value2, key3=value1 at this time.

	assert.True(t, mustMatch(t, st, f, "key1(1)~value3(1)"))
	assert.True(t, mustMatch(t, st, f, "key3(1)~value1(1)"))

	// Flipping the value bit breaks the match.
	assert.False(t, mustMatch(t, st, f, "key1(1)~value3(0)"))
	assert.False(t, mustMatch(t, st, f, "key3(1)~value1(0)"))

	// Categories AND together.
	assert.True(t, mustMatch(t, st, f,
		"key1(1)~Unlisted Value(0)~value3(1)`key3(1)~Unlisted Value(0)~value1(1)"))
	assert.False(t, mustMatch(t, st, f,
		"key1(1)~value3(1)`key2(1)~value2(0)"))
}

func TestMatchEmptyFilterMatchesAll(t *testing.T) {
	st, f := newTestStore(t)
	st.Update(2.0)

	assert.True(t, mustMatch(t, st, f, " "))
	assert.True(t, mustMatch(t, st, f, ""))
}

func TestMatchUncheckedCategoriesIgnored(t *testing.T) {
	st, f := newTestStore(t)
	st.Update(2.0)

	assert.True(t, mustMatch(t, st, f, "key3(0)~value1(0)"))
	assert.True(t, mustMatch(t, st, f, "key3(0)~value1(1)"))
	assert.True(t, mustMatch(t, st, f, "key3(0)~Unlisted Value(0)"))
	assert.True(t, mustMatch(t, st, f, "key3(0)~value1(0)`key2(1)~value2(1)"))
	assert.False(t, mustMatch(t, st, f, "key3(0)~value1(0)`key2(1)~value2(0)~value3(1)"))
}

func TestMatchUnlistedValueDefaults(t *testing.T) {
	st, f := newTestStore(t)
	st.Update(2.0)

	// Unspecified values are unchecked by default.
	assert.False(t, mustMatch(t, st, f, "key2(1)~value3(1)"))
	assert.True(t, mustMatch(t, st, f, "key2(1)~value3(1)~value2(1)"))
	assert.True(t, mustMatch(t, st, f, "key2(1)~value2(1)"))

	// Unlisted Value(0) adds nothing over the default.
	assert.False(t, mustMatch(t, st, f, "key2(1)~Unlisted Value(0)~value3(0)~value4(1)"))

	// Unlisted Value(1) flips the default; explicit entries dissent.
	assert.True(t, mustMatch(t, st, f, "key2(1)~Unlisted Value(1)~value3(0)"))
	assert.False(t, mustMatch(t, st, f, "key2(1)~Unlisted Value(1)~value2(0)"))
	assert.True(t, mustMatch(t, st, f, "key2(1)~Unlisted Value(1)~value3(1)"))
	assert.False(t, mustMatch(t, st, f, "key2(1)~Unlisted Value(1)~value2(0)~value3(1)"))
	assert.True(t, mustMatch(t, st, f, "key2(1)~Unlisted Value(1)~value2(1)~value3(0)"))
}

func TestMatchNoValue(t *testing.T) {
	st, f := newTestStore(t)
	st.Update(2.0)

	// key2 has a value; key4 does not.
	assert.True(t, mustMatch(t, st, f, "key2(1)~Unlisted Value(1)~No Value(0)"))
	assert.False(t, mustMatch(t, st, f, "key4(1)~Unlisted Value(1)~No Value(0)"))

	// No Value(0) is the implicit default.
	assert.True(t, mustMatch(t, st, f, "key2(1)~Unlisted Value(1)"))
	assert.False(t, mustMatch(t, st, f, "key4(1)~Unlisted Value(1)"))

	// No Value(1) matches only the absence of a value.
	assert.False(t, mustMatch(t, st, f, "key2(1)~No Value(1)"))
	assert.True(t, mustMatch(t, st, f, "key4(1)~No Value(1)"))
}

func TestMatchFollowsUpdateTime(t *testing.T) {
	st, f := newTestStore(t)

	st.Update(1.0)
	assert.True(t, mustMatch(t, st, f, "key1(1)~value1(1)"))

	st.Update(3.0)
	assert.False(t, mustMatch(t, st, f, "key1(1)~value1(1)"))
	assert.True(t, mustMatch(t, st, f, "key1(1)~value4(1)"))
}

func newRegExpStore(t *testing.T) (*store.MemoryStore, *Filter, []types.ObjectID) {
	t.Helper()

	names := naming.NewManager()
	st := store.New(names)
	ids := []types.ObjectID{1, 2, 3, 4, 5}
	static := func(id types.ObjectID, key, value string) {
		require.NoError(t, st.AddCategoryData(id, types.CategoryUpdate{
			Time:    -1.0,
			Entries: []types.Entry{{Key: key, Value: value}},
		}))
	}
	for _, id := range ids {
		require.NoError(t, st.AddEntity(id, types.ObjectTypePlatform))
	}
	for i, v := range []string{"3412", "3000", "3476", "3477", "1234"} {
		static(ids[i], "Cat1", v)
	}
	for i, v := range []string{"099", "100", "450", "032", "455"} {
		static(ids[i], "Cat2", v)
	}
	st.Update(0.0)

	return st, New(names, NewFactory()), ids
}

func TestRegExpMatch(t *testing.T) {
	st, f, ids := newRegExpStore(t)
	names := f.NameManager()
	cat1 := names.NameToInt("Cat1")
	cat2 := names.NameToInt("Cat2")

	// Cat1 values 0072, 1234, 3400-3476, 6100-6110.
	require.NoError(t, f.SetRegExp(cat1, "^0072|1234|34[0-6][0-9]|347[0-6]|610[0-9]|6110$"))
	want := []bool{true, false, true, false, true}
	for i, id := range ids {
		assert.Equal(t, want[i], f.Match(st, id), "platform %d", id)
	}

	// Adding a second expression ANDs with the first.
	require.NoError(t, f.SetRegExp(cat2, "^032|10[0-9]|110|45[0-5]$"))
	want = []bool{false, false, true, false, true}
	for i, id := range ids {
		assert.Equal(t, want[i], f.Match(st, id), "platform %d", id)
	}

	// A category the entities lack tests the empty string.
	cat9 := names.AddCategoryName("Cat9")
	require.NoError(t, f.SetRegExp(cat9, "anything"))
	for _, id := range ids {
		assert.False(t, f.Match(st, id))
	}
	require.NoError(t, f.SetRegExp(cat9, ""))

	// Removing the expressions empties the filter again.
	require.NoError(t, f.SetRegExp(cat1, ""))
	require.NoError(t, f.SetRegExp(cat2, ""))
	assert.True(t, f.IsEmpty())
	for _, id := range ids {
		assert.True(t, f.Match(st, id))
	}
}

func TestRegExpSupersedesChecklist(t *testing.T) {
	st, f, ids := newRegExpStore(t)
	names := f.NameManager()
	cat1 := names.NameToInt("Cat1")

	// Checklist says no; the regular expression wins.
	f.SetValue(cat1, names.ValueToInt("3412"), false)
	require.NoError(t, f.SetRegExp(cat1, "3412"))
	assert.True(t, f.Match(st, ids[0]))
}

func TestSetRegExpInvalidPattern(t *testing.T) {
	f := newTestFilter(t)
	nameInt := f.NameManager().AddCategoryName("Cat1")

	err := f.SetRegExp(nameInt, "87[0-")
	require.Error(t, err)
	assert.Equal(t, "", f.RegExpPattern(nameInt))
	assert.True(t, f.IsEmpty(), "a failed compile installs nothing")
}

func TestSetValueAndRemove(t *testing.T) {
	f := newTestFilter(t)
	names := f.NameManager()
	key := names.AddCategoryName("key")
	v1 := names.AddCategoryValue(key, "v1")
	v2 := names.AddCategoryValue(key, "v2")

	f.SetValue(key, v1, true)
	f.SetValue(key, v2, false)
	values, ok := f.Values(key)
	require.True(t, ok)
	assert.Equal(t, map[int]bool{v1: true, v2: false}, values)

	require.NoError(t, f.RemoveValue(key, v1))
	assert.Error(t, f.RemoveValue(key, v1), "value already removed")
	assert.Error(t, f.RemoveValue(99, v1), "category not in filter")

	f.RemoveName(key)
	assert.True(t, f.IsEmpty())
}

func TestNameContributesToFilter(t *testing.T) {
	f := newTestFilter(t)
	names := f.NameManager()
	key := names.AddCategoryName("key")
	v1 := names.AddCategoryValue(key, "v1")

	f.SetValue(key, v1, false)
	assert.False(t, f.NameContributesToFilter(key), "all-off category is vacuous")

	f.SetValue(key, v1, true)
	assert.True(t, f.NameContributesToFilter(key))
}

func TestCloneIsIndependent(t *testing.T) {
	f := newTestFilter(t)
	names := f.NameManager()
	key := names.AddCategoryName("key")
	v1 := names.AddCategoryValue(key, "v1")
	f.SetValue(key, v1, true)

	clone := f.Clone()
	clone.SetValue(key, v1, false)

	values, _ := f.Values(key)
	assert.True(t, values[v1], "mutating the clone leaves the original alone")
	assert.Equal(t, f.Names(), clone.Names())
}
