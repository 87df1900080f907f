// Package store holds the in-memory scenario state: entities, their host
// links, and their category data slices, all sharing one name manager.
//
// The store serializes access with a single RWMutex. Category data change
// listeners fire synchronously under the lock, so listeners must not call
// back into the store.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/scrypster/catdata/internal/naming"
	"github.com/scrypster/catdata/internal/slice"
	"github.com/scrypster/catdata/pkg/types"
)

// Listener receives a notification when an entity's effective category
// values change during an Update pass.
type Listener interface {
	OnCategoryDataChange(id types.ObjectID, t float64)
}

type listenerReg struct {
	handle   string
	listener Listener
}

// Limits configures data limiting applied as category points are added.
// Zero values disable the corresponding limit.
type Limits struct {
	Enabled bool
	Points  int
	Seconds float64
}

type entity struct {
	id       types.ObjectID
	typ      types.ObjectType
	host     types.ObjectID
	children map[types.ObjectID]struct{}
	data     *slice.Slice
}

// MemoryStore is the in-memory scenario store.
type MemoryStore struct {
	mu        sync.RWMutex
	names     *naming.Manager
	entities  map[types.ObjectID]*entity
	listeners []listenerReg
	limits    Limits
}

// New returns an empty store bound to names.
func New(names *naming.Manager) *MemoryStore {
	return &MemoryStore{
		names:    names,
		entities: make(map[types.ObjectID]*entity),
	}
}

// NameManager returns the shared name manager.
func (m *MemoryStore) NameManager() *naming.Manager {
	return m.names
}

// SetDataLimiting configures limiting for subsequently added points. With
// limiting off, points that would not change an entity's effective value
// are suppressed; with limiting on they are kept, since trimming may later
// remove the point they duplicated.
func (m *MemoryStore) SetDataLimiting(limits Limits) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = limits
}

// AddEntity registers a top-level entity.
func (m *MemoryStore) AddEntity(id types.ObjectID, typ types.ObjectType) error {
	return m.addEntity(id, typ, types.None)
}

// AddHostedEntity registers an entity attached to a host. Removing the host
// removes the entity.
func (m *MemoryStore) AddHostedEntity(id types.ObjectID, typ types.ObjectType, host types.ObjectID) error {
	if host == types.None {
		return fmt.Errorf("store: hosted entity %d requires a host", id)
	}
	return m.addEntity(id, typ, host)
}

func (m *MemoryStore) addEntity(id types.ObjectID, typ types.ObjectType, host types.ObjectID) error {
	if id == types.None {
		return fmt.Errorf("store: entity ID 0 is reserved")
	}
	if !typ.Valid() {
		return fmt.Errorf("store: unknown entity type %q", typ)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[id]; ok {
		return fmt.Errorf("store: entity %d: %w", id, types.ErrEntityExists)
	}
	if host != types.None {
		h, ok := m.entities[host]
		if !ok {
			return fmt.Errorf("store: host %d: %w", host, types.ErrNotFound)
		}
		h.children[id] = struct{}{}
	}
	m.entities[id] = &entity{
		id:       id,
		typ:      typ,
		host:     host,
		children: make(map[types.ObjectID]struct{}),
		data:     slice.New(m.names),
	}
	return nil
}

// RemoveEntity deletes an entity and, recursively, everything hosted on it.
func (m *MemoryStore) RemoveEntity(id types.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[id]; !ok {
		return fmt.Errorf("store: entity %d: %w", id, types.ErrNotFound)
	}
	m.removeLocked(id)
	return nil
}

func (m *MemoryStore) removeLocked(id types.ObjectID) {
	e := m.entities[id]
	if e == nil {
		return
	}
	for child := range e.children {
		m.removeLocked(child)
	}
	if e.host != types.None {
		if h := m.entities[e.host]; h != nil {
			delete(h.children, id)
		}
	}
	delete(m.entities, id)
}

// EntityType returns the registered type of an entity.
func (m *MemoryStore) EntityType(id types.ObjectID) (types.ObjectType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[id]
	if !ok {
		return "", fmt.Errorf("store: entity %d: %w", id, types.ErrNotFound)
	}
	return e.typ, nil
}

// HostID returns the host of an entity, or None for top-level entities.
func (m *MemoryStore) HostID(id types.ObjectID) (types.ObjectID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[id]
	if !ok {
		return types.None, fmt.Errorf("store: entity %d: %w", id, types.ErrNotFound)
	}
	return e.host, nil
}

// EntityIDs returns every registered entity ID, ascending.
func (m *MemoryStore) EntityIDs() []types.ObjectID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.ObjectID, 0, len(m.entities))
	for id := range m.entities {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AddCategoryData records an update's entries on an entity's slice.
func (m *MemoryStore) AddCategoryData(id types.ObjectID, update types.CategoryUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return fmt.Errorf("store: entity %d: %w", id, types.ErrNotFound)
	}
	for _, entry := range update.Entries {
		if !m.limits.Enabled && e.data.IsDuplicateValue(update.Time, entry.Key, entry.Value) {
			continue
		}
		e.data.Insert(update.Time, entry.Key, entry.Value)
	}
	if m.limits.Enabled {
		e.data.LimitByPoints(m.limits.Points)
		e.data.LimitByTime(m.limits.Seconds)
	}
	return nil
}

// CategorySlice returns an entity's category data slice. The slice is live;
// callers must not mutate it while the store is in use.
func (m *MemoryStore) CategorySlice(id types.ObjectID) (*slice.Slice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[id]
	if !ok {
		return nil, fmt.Errorf("store: entity %d: %w", id, types.ErrNotFound)
	}
	return e.data, nil
}

// CurrentCategoryValues returns the name ID to value ID map effective at the
// entity's last update time. An unknown entity has no values.
func (m *MemoryStore) CurrentCategoryValues(id types.ObjectID) map[int]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[id]
	if !ok {
		return nil
	}
	return e.data.CurrentInts()
}

// Update advances every entity's slice to time t and notifies listeners for
// each entity whose effective category values changed.
func (m *MemoryStore) Update(t float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed []types.ObjectID
	for id, e := range m.entities {
		if e.data.Update(t) {
			changed = append(changed, id)
		}
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i] < changed[j] })
	for _, id := range changed {
		for _, reg := range m.listeners {
			reg.listener.OnCategoryDataChange(id, t)
		}
	}
}

// Flush drops category data history for an entity, keeping only each
// category's most recent point. With recursive, hosted entities flush too.
func (m *MemoryStore) Flush(id types.ObjectID, recursive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return fmt.Errorf("store: entity %d: %w", id, types.ErrNotFound)
	}
	m.flushLocked(e, recursive)
	return nil
}

func (m *MemoryStore) flushLocked(e *entity, recursive bool) {
	e.data.Flush()
	if !recursive {
		return
	}
	for child := range e.children {
		if c := m.entities[child]; c != nil {
			m.flushLocked(c, true)
		}
	}
}

// AddListener registers a category data change listener and returns a handle
// for removal.
func (m *MemoryStore) AddListener(l Listener) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	handle := uuid.NewString()
	m.listeners = append(m.listeners, listenerReg{handle: handle, listener: l})
	return handle
}

// RemoveListener unregisters a listener by handle.
func (m *MemoryStore) RemoveListener(handle string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, reg := range m.listeners {
		if reg.handle == handle {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return
		}
	}
}
