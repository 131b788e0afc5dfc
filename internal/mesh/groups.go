package mesh

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// LoadGroups reads vertex-group weights from a JSON file of the form
// {"group": {"vertex index": weight, ...}, ...} and attaches them to m.
func LoadGroups(path string, m *Mesh) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("mesh: read %s: %w", path, err)
	}

	var raw map[string]map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("mesh: parse %s: %w", path, err)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		g := NewGroup(name)
		for key, w := range raw[name] {
			vi, err := strconv.Atoi(key)
			if err != nil {
				return fmt.Errorf("mesh: group %q: bad vertex index %q", name, key)
			}
			g.Set(vi, w)
		}
		m.AddGroup(g)
	}
	return nil
}

// SaveGroups writes every vertex group of m in the LoadGroups format.
func SaveGroups(path string, m *Mesh) error {
	raw := make(map[string]map[string]float64, len(m.Groups))
	for name, g := range m.Groups {
		entries := make(map[string]float64, len(g.weights))
		for vi, w := range g.weights {
			entries[strconv.Itoa(vi)] = w
		}
		raw[name] = entries
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
