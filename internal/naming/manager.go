// Package naming interns category names and category values to small stable
// integer IDs and notifies listeners as new names and values appear.
//
// Names and values share one flat string table: a value string interns to a
// single ID that is valid under any category name. IDs start at 1; all
// negative IDs are reserved sentinels.
package naming

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Reserved sentinel IDs. These never collide with interned IDs, which start at 1.
const (
	// NoName is returned by NameToInt for an unregistered category name.
	NoName = -1

	// NoValue is returned by ValueToInt for an unregistered category value.
	NoValue = -1

	// NoValueAtTime represents "entity has no value under this category name
	// at the query time" in filter checklists and current-value maps.
	NoValueAtTime = -2

	// UnlistedValue represents "any value not explicitly enumerated" in
	// filter checklists.
	UnlistedValue = -3
)

// Reserved display strings for the sentinel IDs.
const (
	NoNameStr        = "No Name"
	NoValueStr       = "No Value"
	UnlistedValueStr = "Unlisted Value"
)

// Listener receives synchronous notifications of name table mutations.
// Callbacks fire on the mutating goroutine in registration order; a listener
// must not mutate the manager from within a callback.
type Listener interface {
	// OnAddCategory is invoked once when a category name is first registered.
	OnAddCategory(nameInt int)

	// OnAddValue is invoked once per new (name, value) pair.
	OnAddValue(nameInt, valueInt int)

	// OnClear is invoked when the manager resets all state.
	OnClear()

	// DoneClearing is invoked after every listener has received OnClear.
	DoneClearing()
}

type registration struct {
	handle   string
	listener Listener
}

// Manager is the interning registry for category names and values.
// Construct with NewManager; multiple independent managers are supported.
// Manager is not safe for concurrent use; the owning store serializes access.
type Manager struct {
	caseSensitive bool
	nextInt       int

	ids     map[string]int // normalized string -> id
	strings map[int]string // id -> original-case string

	// categories maps a name ID to its value IDs in registration order.
	// Presence of a key marks the ID as a category name.
	categories map[int][]int

	listeners []registration
}

// NewManager returns an empty, case-sensitive manager.
func NewManager() *Manager {
	return &Manager{
		caseSensitive: true,
		nextInt:       1,
		ids:           make(map[string]int),
		strings:       make(map[int]string),
		categories:    make(map[int][]int),
	}
}

// SetCaseSensitive sets the case folding policy. It is an initialization-only
// switch: it fails once any name or value has been registered.
func (m *Manager) SetCaseSensitive(caseSensitive bool) error {
	if len(m.ids) != 0 {
		return errors.New("naming: cannot change case sensitivity after strings are registered")
	}
	m.caseSensitive = caseSensitive
	return nil
}

// CaseSensitive reports the active case folding policy.
func (m *Manager) CaseSensitive() bool {
	return m.caseSensitive
}

// Clear resets all state and notifies every listener.
func (m *Manager) Clear() {
	m.ids = make(map[string]int)
	m.strings = make(map[int]string)
	m.categories = make(map[int][]int)

	for _, reg := range m.listenersSnapshot() {
		reg.listener.OnClear()
	}
	for _, reg := range m.listenersSnapshot() {
		reg.listener.DoneClearing()
	}
}

func (m *Manager) normalize(s string) string {
	if m.caseSensitive {
		return s
	}
	return strings.ToUpper(s)
}

// internString returns the ID for s, assigning a new one on first use.
// The original casing is retained for reverse lookup.
func (m *Manager) internString(s string) int {
	key := m.normalize(s)
	if id, ok := m.ids[key]; ok {
		return id
	}
	id := m.nextInt
	m.nextInt++
	m.ids[key] = id
	m.strings[id] = s
	return id
}

// AddCategoryName registers name as a category and returns its ID.
// Idempotent: a repeat add returns the existing ID with no notification.
func (m *Manager) AddCategoryName(name string) int {
	nameInt := m.internString(name)
	if _, ok := m.categories[nameInt]; ok {
		return nameInt
	}
	m.categories[nameInt] = nil
	for _, reg := range m.listenersSnapshot() {
		reg.listener.OnAddCategory(nameInt)
	}
	return nameInt
}

// AddCategoryValue registers value under the given category name and returns
// the value's ID. OnAddValue fires only for a pair not seen before.
func (m *Manager) AddCategoryValue(nameInt int, value string) int {
	valueInt := m.internString(value)

	values, ok := m.categories[nameInt]
	if ok {
		for _, v := range values {
			if v == valueInt {
				return valueInt
			}
		}
	}
	m.categories[nameInt] = append(values, valueInt)

	for _, reg := range m.listenersSnapshot() {
		reg.listener.OnAddValue(nameInt, valueInt)
	}
	return valueInt
}

// RemoveCategory drops the category and its value list. The string mapping is
// retained: the category may come back and IDs are stable for process life.
func (m *Manager) RemoveCategory(nameInt int) {
	delete(m.categories, nameInt)
}

// RemoveValue drops one value from a category's value list.
func (m *Manager) RemoveValue(nameInt, valueInt int) {
	values, ok := m.categories[nameInt]
	if !ok {
		return
	}
	for i, v := range values {
		if v == valueInt {
			m.categories[nameInt] = append(values[:i:i], values[i+1:]...)
			return
		}
	}
}

// NameToInt returns the ID for a registered category name, or NoName.
func (m *Manager) NameToInt(name string) int {
	if id, ok := m.ids[m.normalize(name)]; ok {
		return id
	}
	return NoName
}

// ValueToInt returns the ID for a registered value string, or NoValue.
func (m *Manager) ValueToInt(value string) int {
	if id, ok := m.ids[m.normalize(value)]; ok {
		return id
	}
	return NoValue
}

// NameIntToString reverses an ID to its original-case string. Sentinel IDs
// map to their reserved strings; unknown IDs map to "".
func (m *Manager) NameIntToString(nameInt int) string {
	if s, ok := m.strings[nameInt]; ok {
		return s
	}
	switch nameInt {
	case NoName: // == NoValue
		return NoValueStr
	case NoValueAtTime:
		return NoValueStr
	case UnlistedValue:
		return UnlistedValueStr
	}
	return ""
}

// ValueIntToString reverses a value ID to its string. Names and values share
// one table, so this is NameIntToString under another name.
func (m *Manager) ValueIntToString(valueInt int) string {
	return m.NameIntToString(valueInt)
}

// AllCategoryNameInts returns every category name ID in registration order.
func (m *Manager) AllCategoryNameInts() []int {
	return sortedKeys(m.categories)
}

// AllCategoryNames returns every category name in registration order.
func (m *Manager) AllCategoryNames() []string {
	ints := m.AllCategoryNameInts()
	names := make([]string, 0, len(ints))
	for _, id := range ints {
		if s, ok := m.strings[id]; ok {
			names = append(names, s)
		}
	}
	return names
}

// AllValueIntsInCategory returns the value IDs of a category in registration order.
func (m *Manager) AllValueIntsInCategory(nameInt int) []int {
	values := m.categories[nameInt]
	out := make([]int, len(values))
	copy(out, values)
	return out
}

// AllValuesInCategory returns the value strings of a category in registration order.
func (m *Manager) AllValuesInCategory(nameInt int) []string {
	values := m.categories[nameInt]
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := m.strings[v]; ok {
			out = append(out, s)
		}
	}
	return out
}

// AddListener registers a listener and returns its handle.
func (m *Manager) AddListener(l Listener) string {
	handle := uuid.NewString()
	m.listeners = append(m.listeners, registration{handle: handle, listener: l})
	return handle
}

// RemoveListener unregisters the listener with the given handle.
func (m *Manager) RemoveListener(handle string) {
	for i, reg := range m.listeners {
		if reg.handle == handle {
			m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
			return
		}
	}
}

// sortedKeys returns map keys ascending. IDs are assigned monotonically, so
// ascending ID order is registration order.
func sortedKeys(m map[int][]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// listenersSnapshot copies the registration list so callbacks that add or
// remove listeners do not invalidate the iteration.
func (m *Manager) listenersSnapshot() []registration {
	out := make([]registration, len(m.listeners))
	copy(out, m.listeners)
	return out
}
