// Package scenedb persists object state between runs: the metadata a fit
// leaves on the clothing (so a fit can be removed after a reload) and a
// history of fits.
package scenedb

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"elastic-fit/internal/mesh"
	"elastic-fit/internal/monitoring"
)

// schema.sql creates the object, object metadata and fit history tables.
//
//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when an object has never been saved.
var ErrNotFound = errors.New("scenedb: object not found")

// DB is a scene database handle.
type DB struct {
	*sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("scenedb: open %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("scenedb: open %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("scenedb: init schema %s: %w", path, err)
	}
	monitoring.Logf("scenedb: opened %s", path)
	return &DB{db}, nil
}

// SaveObject stores obj's type, shape keys, modifiers and metadata,
// replacing whatever was stored for the same name.
func (db *DB) SaveObject(obj *mesh.Object) error {
	keys, err := json.Marshal(nonNil(obj.ShapeKeys))
	if err != nil {
		return err
	}
	mods, err := json.Marshal(nonNilMods(obj.Modifiers))
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("scenedb: save %s: %w", obj.Name, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO objects (name, type, shape_keys, modifiers)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			type = excluded.type,
			shape_keys = excluded.shape_keys,
			modifiers = excluded.modifiers,
			updated_at = UNIXEPOCH('subsec')
	`, obj.Name, string(obj.Type), string(keys), string(mods))
	if err != nil {
		return fmt.Errorf("scenedb: save %s: %w", obj.Name, err)
	}

	if _, err := tx.Exec(`DELETE FROM object_meta WHERE object = ?`, obj.Name); err != nil {
		return fmt.Errorf("scenedb: save %s meta: %w", obj.Name, err)
	}
	for key, v := range obj.Meta {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO object_meta (object, key, value) VALUES (?, ?, ?)`, obj.Name, key, string(data)); err != nil {
			return fmt.Errorf("scenedb: save %s meta %s: %w", obj.Name, key, err)
		}
	}
	return tx.Commit()
}

// LoadObject fills obj's type, shape keys, modifiers and metadata from the
// row saved under obj.Name. Geometry is not stored and is left untouched.
func (db *DB) LoadObject(obj *mesh.Object) error {
	var typ, keys, mods string
	err := db.QueryRow(`SELECT type, shape_keys, modifiers FROM objects WHERE name = ?`, obj.Name).Scan(&typ, &keys, &mods)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, obj.Name)
	}
	if err != nil {
		return fmt.Errorf("scenedb: load %s: %w", obj.Name, err)
	}

	obj.Type = mesh.ObjectType(typ)
	obj.ShapeKeys = nil
	obj.Modifiers = nil
	if err := json.Unmarshal([]byte(keys), &obj.ShapeKeys); err != nil {
		return fmt.Errorf("scenedb: load %s shape keys: %w", obj.Name, err)
	}
	if err := json.Unmarshal([]byte(mods), &obj.Modifiers); err != nil {
		return fmt.Errorf("scenedb: load %s modifiers: %w", obj.Name, err)
	}

	rows, err := db.Query(`SELECT key, value FROM object_meta WHERE object = ? ORDER BY key`, obj.Name)
	if err != nil {
		return fmt.Errorf("scenedb: load %s meta: %w", obj.Name, err)
	}
	defer rows.Close()

	obj.Meta = nil
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scenedb: load %s meta: %w", obj.Name, err)
		}
		var v []float64
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			return fmt.Errorf("scenedb: load %s meta %s: %w", obj.Name, key, err)
		}
		obj.SetMeta(key, v)
	}
	return rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMods(m []mesh.Modifier) []mesh.Modifier {
	if m == nil {
		return []mesh.Modifier{}
	}
	return m
}
