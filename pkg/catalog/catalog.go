// Package catalog keeps a history of plugin loads in a SQL database.
//
// The nxld command records every successfully loaded plugin when --catalog is
// set, so the UIDs assigned across runs can be looked up later. SQLite is the
// default backend; any database/sql driver accepting the same DDL works.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/platinummonkey/nxld/pkg/plugins"
)

// Entry is one recorded plugin load
type Entry struct {
	ID             int64     `json:"id" yaml:"id"`
	RunID          string    `json:"run_id" yaml:"run_id"`
	UID            string    `json:"uid" yaml:"uid"`
	Name           string    `json:"name" yaml:"name"`
	Version        string    `json:"version" yaml:"version"`
	Path           string    `json:"path" yaml:"path"`
	ManifestPath   string    `json:"manifest_path,omitempty" yaml:"manifest_path,omitempty"`
	InterfaceNames []string  `json:"interfaces" yaml:"interfaces"`
	LoadedAt       time.Time `json:"loaded_at" yaml:"loaded_at"`
}

// Catalog records plugin loads
type Catalog struct {
	db    *sql.DB
	owned bool
	now   func() time.Time
}

// Open opens (creating if needed) a SQLite catalog at path
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}

	c, err := NewCatalog(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.owned = true
	return c, nil
}

// NewCatalog creates a catalog on an existing connection
func NewCatalog(db *sql.DB) (*Catalog, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	c := &Catalog{
		db:  db,
		now: time.Now,
	}

	if err := c.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure plugin_loads table: %w", err)
	}

	return c, nil
}

// ensureTable creates the plugin_loads table if it doesn't exist
func (c *Catalog) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS plugin_loads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		uid TEXT NOT NULL,
		name TEXT NOT NULL,
		version TEXT NOT NULL,
		path TEXT NOT NULL,
		manifest_path TEXT,
		interfaces TEXT NOT NULL,
		loaded_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plugin_loads_uid ON plugin_loads(uid);
	CREATE INDEX IF NOT EXISTS idx_plugin_loads_run_id ON plugin_loads(run_id);
	`

	_, err := c.db.Exec(query)
	return err
}

// Record stores one loaded descriptor. It implements plugins.Recorder.
func (c *Catalog) Record(ctx context.Context, runID string, d *plugins.Descriptor) error {
	names := make([]string, 0, len(d.Interfaces))
	for _, iface := range d.Interfaces {
		names = append(names, iface.Name)
	}
	interfaces, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to marshal interfaces: %w", err)
	}

	query := `
	INSERT INTO plugin_loads (run_id, uid, name, version, path, manifest_path, interfaces, loaded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var manifestPath sql.NullString
	if d.ManifestPath != "" {
		manifestPath = sql.NullString{String: d.ManifestPath, Valid: true}
	}

	_, err = c.db.ExecContext(ctx, query,
		runID,
		d.UID,
		d.Name,
		d.Version,
		d.Path,
		manifestPath,
		string(interfaces),
		c.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record plugin load: %w", err)
	}

	return nil
}

// List returns the most recent loads, newest first. limit <= 0 returns all.
func (c *Catalog) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
	SELECT id, run_id, uid, name, version, path, manifest_path, interfaces, loaded_at
	FROM plugin_loads
	ORDER BY id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plugin loads: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var manifestPath sql.NullString
		var interfaces string

		if err := rows.Scan(&e.ID, &e.RunID, &e.UID, &e.Name, &e.Version, &e.Path, &manifestPath, &interfaces, &e.LoadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plugin load: %w", err)
		}
		e.ManifestPath = manifestPath.String
		if err := json.Unmarshal([]byte(interfaces), &e.InterfaceNames); err != nil {
			return nil, fmt.Errorf("failed to unmarshal interfaces of %s: %w", e.UID, err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plugin loads: %w", err)
	}

	return entries, nil
}

// FindByUID returns the load that was assigned uid
func (c *Catalog) FindByUID(ctx context.Context, uid string) (*Entry, error) {
	query := `
	SELECT id, run_id, uid, name, version, path, manifest_path, interfaces, loaded_at
	FROM plugin_loads
	WHERE uid = ?
	ORDER BY id DESC
	LIMIT 1
	`

	var e Entry
	var manifestPath sql.NullString
	var interfaces string

	err := c.db.QueryRowContext(ctx, query, uid).Scan(
		&e.ID, &e.RunID, &e.UID, &e.Name, &e.Version, &e.Path, &manifestPath, &interfaces, &e.LoadedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("plugin load not found: %s", uid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query plugin load: %w", err)
	}

	e.ManifestPath = manifestPath.String
	if err := json.Unmarshal([]byte(interfaces), &e.InterfaceNames); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interfaces of %s: %w", e.UID, err)
	}

	return &e, nil
}

// Close closes the database if the catalog opened it
func (c *Catalog) Close() error {
	if c.owned {
		return c.db.Close()
	}
	return nil
}

var _ plugins.Recorder = (*Catalog)(nil)
