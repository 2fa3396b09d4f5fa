// Package catalogdb persists an archetype catalog to SQLite.
package catalogdb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/CaliLuke/go-archql/archetype"
)

//go:embed schema.sql
var schemaSQL string

// Store reads and writes archetype catalogs.
type Store struct {
	db *sql.DB
}

// Open creates or opens the catalog database at dsn and applies the schema.
// It is safe to call on an existing database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	// single writer avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to catalog database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply catalog schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save replaces the stored catalog with the contents of reg and h in a
// single transaction.
func (s *Store) Save(ctx context.Context, reg *archetype.Registry, h *archetype.TypeHierarchy) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"node_ranges", "nodes", "archetypes", "impl_types"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, t := range h.Types() {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO impl_types (name, parent, no_active, seq) VALUES (?, ?, ?, ?)",
			t.Name, t.Parent, t.NoActive, i)
		if err != nil {
			return fmt.Errorf("save type %s: %w", t.Name, err)
		}
	}

	for _, d := range reg.Descriptors() {
		if err = saveDescriptor(ctx, tx, d); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func saveDescriptor(ctx context.Context, tx *sql.Tx, d *archetype.Descriptor) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO archetypes (short_name, impl_type, is_primary) VALUES (?, ?, ?)",
		d.ShortName, d.ImplementationType, d.Primary)
	if err != nil {
		return fmt.Errorf("save archetype %s: %w", d.ShortName, err)
	}
	for i, n := range d.Nodes() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO nodes (short_name, name, seq, path, type, collection, reference, is_date, filter)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ShortName, n.Name, i, n.Path, n.Type, n.Collection, n.ObjectReference, n.Date, n.Filter)
		if err != nil {
			return fmt.Errorf("save node %s.%s: %w", d.ShortName, n.Name, err)
		}
		for j, pattern := range n.ArchetypeRange {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO node_ranges (short_name, node, seq, pattern) VALUES (?, ?, ?, ?)",
				d.ShortName, n.Name, j, pattern)
			if err != nil {
				return fmt.Errorf("save range %s.%s: %w", d.ShortName, n.Name, err)
			}
		}
	}
	return nil
}

// Load reads the stored catalog.
func (s *Store) Load(ctx context.Context) (*archetype.Registry, *archetype.TypeHierarchy, error) {
	h, err := s.loadTypes(ctx)
	if err != nil {
		return nil, nil, err
	}
	descs, err := s.loadArchetypes(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := s.loadNodes(ctx, descs); err != nil {
		return nil, nil, err
	}

	reg := archetype.NewRegistry()
	for _, d := range descs {
		if err := reg.Register(d); err != nil {
			return nil, nil, err
		}
	}
	return reg, h, nil
}

func (s *Store) loadTypes(ctx context.Context) (*archetype.TypeHierarchy, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, parent, no_active FROM impl_types ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query types: %w", err)
	}
	defer rows.Close()

	h := archetype.NewTypeHierarchy()
	for rows.Next() {
		var t archetype.ImplType
		if err := rows.Scan(&t.Name, &t.Parent, &t.NoActive); err != nil {
			return nil, fmt.Errorf("scan type: %w", err)
		}
		if err := h.Define(t); err != nil {
			return nil, fmt.Errorf("load type %s: %w", t.Name, err)
		}
	}
	return h, rows.Err()
}

func (s *Store) loadArchetypes(ctx context.Context) (map[string]*archetype.Descriptor, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT short_name, impl_type, is_primary FROM archetypes")
	if err != nil {
		return nil, fmt.Errorf("query archetypes: %w", err)
	}
	defer rows.Close()

	descs := make(map[string]*archetype.Descriptor)
	for rows.Next() {
		var shortName, implType string
		var primary bool
		if err := rows.Scan(&shortName, &implType, &primary); err != nil {
			return nil, fmt.Errorf("scan archetype: %w", err)
		}
		descs[shortName] = archetype.NewDescriptor(shortName, implType, primary)
	}
	return descs, rows.Err()
}

func (s *Store) loadNodes(ctx context.Context, descs map[string]*archetype.Descriptor) error {
	ranges, err := s.loadRanges(ctx)
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT short_name, name, path, type, collection, reference, is_date, filter
		 FROM nodes ORDER BY short_name, seq`)
	if err != nil {
		return fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var shortName string
		n := &archetype.NodeDescriptor{}
		err := rows.Scan(&shortName, &n.Name, &n.Path, &n.Type,
			&n.Collection, &n.ObjectReference, &n.Date, &n.Filter)
		if err != nil {
			return fmt.Errorf("scan node: %w", err)
		}
		d, ok := descs[shortName]
		if !ok {
			return fmt.Errorf("node %s.%s: %w", shortName, n.Name,
				&archetype.NotFoundError{Kind: "archetype", Name: shortName})
		}
		n.ArchetypeRange = ranges[nodeKey{shortName, n.Name}]
		d.AddNode(n)
	}
	return rows.Err()
}

type nodeKey struct {
	shortName string
	node      string
}

func (s *Store) loadRanges(ctx context.Context) (map[nodeKey][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT short_name, node, pattern FROM node_ranges ORDER BY short_name, node, seq")
	if err != nil {
		return nil, fmt.Errorf("query node ranges: %w", err)
	}
	defer rows.Close()

	ranges := make(map[nodeKey][]string)
	for rows.Next() {
		var key nodeKey
		var pattern string
		if err := rows.Scan(&key.shortName, &key.node, &pattern); err != nil {
			return nil, fmt.Errorf("scan node range: %w", err)
		}
		ranges[key] = append(ranges[key], pattern)
	}
	return ranges, rows.Err()
}
