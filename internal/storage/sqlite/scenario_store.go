// Package sqlite persists scenarios and named filters to a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/catdata/internal/store"
	"github.com/scrypster/catdata/pkg/types"
)

// Schema creates the scenario tables. Category points reference entities so
// deleting an entity row cascades to its data.
const Schema = `
CREATE TABLE IF NOT EXISTS entities (
    id      INTEGER PRIMARY KEY,
    type    TEXT NOT NULL,
    host_id INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS category_points (
    entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    time      REAL NOT NULL,
    name      TEXT NOT NULL,
    value     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_category_points_entity
    ON category_points(entity_id, name, time);

CREATE TABLE IF NOT EXISTS filters (
    name       TEXT PRIMARY KEY,
    expression TEXT NOT NULL
);
`

// ScenarioStore persists scenario state using SQLite.
type ScenarioStore struct {
	db *sql.DB
}

// NewScenarioStore opens a SQLite database, configures WAL mode, and creates
// the schema.
func NewScenarioStore(dsn string) (*ScenarioStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load.
	// WAL mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &ScenarioStore{db: db}, nil
}

// Close releases the database connection.
func (s *ScenarioStore) Close() error {
	return s.db.Close()
}

// SaveScenario replaces the persisted scenario with the contents of m: every
// entity, its host link, and every stored category point.
func (s *ScenarioStore) SaveScenario(ctx context.Context, m *store.MemoryStore) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM category_points"); err != nil {
		return fmt.Errorf("sqlite: failed to clear category points: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM entities"); err != nil {
		return fmt.Errorf("sqlite: failed to clear entities: %w", err)
	}

	insertEntity, err := tx.PrepareContext(ctx,
		"INSERT INTO entities (id, type, host_id) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("sqlite: failed to prepare entity insert: %w", err)
	}
	defer insertEntity.Close()

	insertPoint, err := tx.PrepareContext(ctx,
		"INSERT INTO category_points (entity_id, time, name, value) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("sqlite: failed to prepare point insert: %w", err)
	}
	defer insertPoint.Close()

	for _, id := range m.EntityIDs() {
		typ, err := m.EntityType(id)
		if err != nil {
			return err
		}
		host, err := m.HostID(id)
		if err != nil {
			return err
		}
		if _, err := insertEntity.ExecContext(ctx, int64(id), string(typ), int64(host)); err != nil {
			return fmt.Errorf("sqlite: failed to insert entity %d: %w", id, err)
		}

		data, err := m.CategorySlice(id)
		if err != nil {
			return err
		}
		var visitErr error
		data.Visit(func(t float64, name, value string) {
			if visitErr != nil {
				return
			}
			if _, err := insertPoint.ExecContext(ctx, int64(id), t, name, value); err != nil {
				visitErr = fmt.Errorf("sqlite: failed to insert point for entity %d: %w", id, err)
			}
		})
		if visitErr != nil {
			return visitErr
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit scenario: %w", err)
	}
	return nil
}

// LoadScenario populates m from the persisted scenario. Points replay in
// ascending entity and time order with duplicate suppression left to the
// store's limiting configuration. Hosts insert before their hosted entities
// because host IDs are always lower than the IDs assigned to their children
// in saved scenarios; rows that violate that ordering fail to load.
func (s *ScenarioStore) LoadScenario(ctx context.Context, m *store.MemoryStore) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, host_id FROM entities ORDER BY host_id, id")
	if err != nil {
		return fmt.Errorf("sqlite: failed to query entities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, host int64
			typ      string
		)
		if err := rows.Scan(&id, &typ, &host); err != nil {
			return fmt.Errorf("sqlite: failed to scan entity: %w", err)
		}
		if host == 0 {
			err = m.AddEntity(types.ObjectID(id), types.ObjectType(typ))
		} else {
			err = m.AddHostedEntity(types.ObjectID(id), types.ObjectType(typ), types.ObjectID(host))
		}
		if err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: failed to read entities: %w", err)
	}

	points, err := s.db.QueryContext(ctx,
		"SELECT entity_id, time, name, value FROM category_points ORDER BY entity_id, name, time")
	if err != nil {
		return fmt.Errorf("sqlite: failed to query category points: %w", err)
	}
	defer points.Close()

	for points.Next() {
		var (
			id          int64
			t           float64
			name, value string
		)
		if err := points.Scan(&id, &t, &name, &value); err != nil {
			return fmt.Errorf("sqlite: failed to scan category point: %w", err)
		}
		err := m.AddCategoryData(types.ObjectID(id), types.CategoryUpdate{
			Time:    t,
			Entries: []types.Entry{{Key: name, Value: value}},
		})
		if err != nil {
			return err
		}
	}
	if err := points.Err(); err != nil {
		return fmt.Errorf("sqlite: failed to read category points: %w", err)
	}
	return nil
}

// SaveFilter stores a named filter expression (upsert semantics).
func (s *ScenarioStore) SaveFilter(ctx context.Context, name, expression string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO filters (name, expression) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET expression = excluded.expression`,
		name, expression)
	if err != nil {
		return fmt.Errorf("sqlite: failed to save filter %q: %w", name, err)
	}
	return nil
}

// LoadFilter returns the expression stored under name.
func (s *ScenarioStore) LoadFilter(ctx context.Context, name string) (string, error) {
	var expression string
	err := s.db.QueryRowContext(ctx,
		"SELECT expression FROM filters WHERE name = ?", name).Scan(&expression)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("sqlite: filter %q: %w", name, types.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: failed to load filter %q: %w", name, err)
	}
	return expression, nil
}

// ListFilters returns all stored filter names, ascending.
func (s *ScenarioStore) ListFilters(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM filters ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list filters: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan filter name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to read filter names: %w", err)
	}
	return names, nil
}

// DeleteFilter removes a stored filter. Deleting an absent filter is not an
// error.
func (s *ScenarioStore) DeleteFilter(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM filters WHERE name = ?", name); err != nil {
		return fmt.Errorf("sqlite: failed to delete filter %q: %w", name, err)
	}
	return nil
}
