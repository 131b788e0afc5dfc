// Package scene loads the objects the command-line tools operate on and
// reconciles them with the scene database.
package scene

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"elastic-fit/internal/mesh"
	"elastic-fit/internal/monitoring"
	"elastic-fit/internal/scenedb"
)

// ObjectName derives an object name from a file path: the base name
// without its extension.
func ObjectName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadObject reads an OBJ file into a mesh object. An empty name falls
// back to ObjectName(path).
func LoadObject(path, name string) (*mesh.Object, error) {
	if path == "" {
		return nil, fmt.Errorf("scene: no mesh path given")
	}
	m, err := mesh.LoadOBJ(path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = ObjectName(path)
	}
	return mesh.NewMeshObject(name, m), nil
}

// LoadClothing reads the clothing OBJ, attaches vertex groups from
// groupsPath when set, and restores the object's stored state (metadata,
// modifiers, shape keys) from db. A missing database row is not an error.
func LoadClothing(db *scenedb.DB, path, groupsPath, name string) (*mesh.Object, error) {
	obj, err := LoadObject(path, name)
	if err != nil {
		return nil, err
	}
	if groupsPath != "" {
		if err := mesh.LoadGroups(groupsPath, obj.Mesh); err != nil {
			return nil, err
		}
	}
	if db == nil {
		return obj, nil
	}

	err = db.LoadObject(obj)
	switch {
	case errors.Is(err, scenedb.ErrNotFound):
		monitoring.Logf("scene: %s has no stored state", obj.Name)
	case err != nil:
		return nil, err
	default:
		monitoring.Logf("scene: restored %s (%d modifiers, %d metadata keys)", obj.Name, len(obj.Modifiers), len(obj.Meta))
	}
	return obj, nil
}

// SaveClothing writes obj's geometry to path and its state to db.
func SaveClothing(db *scenedb.DB, obj *mesh.Object, path string) error {
	if err := mesh.SaveOBJ(path, obj.Mesh); err != nil {
		return err
	}
	if db == nil {
		return nil
	}
	return db.SaveObject(obj)
}
