package meshops

import "elastic-fit/internal/mesh"

// SnapshotUVs copies every UV layer of m.
func (Native) SnapshotUVs(m *mesh.Mesh) UVSnapshot {
	snap := make(UVSnapshot, len(m.UVLayers))
	for _, l := range m.UVLayers {
		snap[l.Name] = append([][2]float64(nil), l.UVs...)
	}
	return snap
}

// RestoreUVs writes saved coordinates back by layer name. Layers missing
// from m are skipped; only the corners present in both are restored.
func (Native) RestoreUVs(m *mesh.Mesh, snap UVSnapshot) {
	for name, uvs := range snap {
		l := m.UVLayer(name)
		if l == nil {
			continue
		}
		copy(l.UVs, uvs)
	}
}
