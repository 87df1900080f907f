// Package types defines the core data structures shared across the catdata
// engine: entity identity, object classification, and the category data
// payloads that flow from ingest into the per-entity temporal slices.
package types

import "errors"

// ObjectID identifies a single entity (platform, beam, gate, ...) in a store.
type ObjectID uint64

// None is the zero ObjectID; it never identifies a real entity.
const None ObjectID = 0

// ObjectType classifies an entity.
type ObjectType string

// Entity type constants.
const (
	ObjectTypeNone     ObjectType = ""
	ObjectTypePlatform ObjectType = "platform"
	ObjectTypeBeam     ObjectType = "beam"
	ObjectTypeGate     ObjectType = "gate"
	ObjectTypeLOB      ObjectType = "lob"
)

// Valid reports whether t is one of the known entity types.
func (t ObjectType) Valid() bool {
	switch t {
	case ObjectTypePlatform, ObjectTypeBeam, ObjectTypeGate, ObjectTypeLOB:
		return true
	}
	return false
}

// Entry is a single category name/value assignment.
type Entry struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value" json:"value"`
}

// CategoryUpdate is a batch of category assignments for one entity at one
// scenario time. It is the unit of ingest into a data store.
type CategoryUpdate struct {
	Time    float64 `yaml:"time" json:"time"`
	Entries []Entry `yaml:"entries" json:"entries"`
}

// Sentinel errors shared by the store and persistence layers.
var (
	// ErrNotFound indicates the requested entity, filter, or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEntityExists indicates an entity ID is already registered.
	ErrEntityExists = errors.New("entity already exists")
)
