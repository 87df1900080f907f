// Package importer loads scenario description files into a data store.
//
// A scenario file is YAML: a list of entities, each with an ID, a type, an
// optional host, and a list of timed category data updates.
package importer

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/catdata/internal/store"
	"github.com/scrypster/catdata/pkg/types"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Entities []EntityDef `yaml:"entities"`
}

// EntityDef describes one entity and its category data.
type EntityDef struct {
	// ID is the entity's unique identifier. Required, non-zero.
	ID types.ObjectID `yaml:"id"`

	// Type classifies the entity: platform, beam, gate, or lob.
	Type types.ObjectType `yaml:"type"`

	// Host attaches this entity to another. Zero means top-level. A host
	// must be defined earlier in the file than the entities it hosts.
	Host types.ObjectID `yaml:"host,omitempty"`

	// CategoryData lists timed category updates, any order.
	CategoryData []types.CategoryUpdate `yaml:"category_data,omitempty"`
}

// LoadScenario parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("importer: failed to read %s: %w", path, err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("importer: failed to parse %s: %w", path, err)
	}
	for i, e := range sc.Entities {
		if e.ID == types.None {
			return nil, fmt.Errorf("importer: entity %d in %s has no ID", i, path)
		}
		if !e.Type.Valid() {
			return nil, fmt.Errorf("importer: entity %d has unknown type %q", e.ID, e.Type)
		}
	}
	return &sc, nil
}

// Populate registers the scenario's entities and replays their category data
// into m. Updates replay in ascending time order per entity, with entries
// sorted by key so repeated runs intern names in the same order.
func (sc *Scenario) Populate(m *store.MemoryStore) error {
	for _, e := range sc.Entities {
		var err error
		if e.Host == types.None {
			err = m.AddEntity(e.ID, e.Type)
		} else {
			err = m.AddHostedEntity(e.ID, e.Type, e.Host)
		}
		if err != nil {
			return err
		}
	}
	for _, e := range sc.Entities {
		updates := make([]types.CategoryUpdate, len(e.CategoryData))
		copy(updates, e.CategoryData)
		sort.SliceStable(updates, func(i, j int) bool {
			return updates[i].Time < updates[j].Time
		})
		for _, u := range updates {
			entries := make([]types.Entry, len(u.Entries))
			copy(entries, u.Entries)
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Key < entries[j].Key
			})
			u.Entries = entries
			if err := m.AddCategoryData(e.ID, u); err != nil {
				return err
			}
		}
	}
	return nil
}
