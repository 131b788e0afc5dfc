package fit

import (
	"fmt"

	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
	"elastic-fit/internal/meshops"
)

// Session is the cache of one active fit. It holds everything needed to
// re-derive clothing positions from new parameters without projecting
// again.
type Session struct {
	ID     string
	Object *mesh.Object

	Rest   []mathutil.Vec3 // every clothing vertex, pre-fit
	Raw    []mathutil.Vec3 // transferred displacement, by slot
	Normal []mathutil.Vec3 // nearest body normal, by slot
	Adj    Adjacency
	Class  Classification

	// Offset is the projection offset Raw was computed with.
	Offset        float64
	PreserveGroup string
	UVs           meshops.UVSnapshot

	follow Follower
}

// Positions derives every clothing vertex position for p. A change of
// offset since projection is applied along the cached body normals, a
// linear stand-in for projecting again.
func (s *Session) Positions(p Params) []mathutil.Vec3 {
	field := make([]mathutil.Vec3, len(s.Raw))
	delta := p.Offset - s.Offset
	for slot, d := range s.Raw {
		if delta != 0 {
			d = d.Add(s.Normal[slot].Scale(delta))
		}
		field[slot] = d
	}

	smoothed := p.Smoother().Smooth(field, s.Adj)
	out := append([]mathutil.Vec3(nil), s.Rest...)
	for slot, vi := range s.Class.Fitted {
		out[vi] = s.Rest[vi].Add(smoothed[slot].Scale(p.FitAmount))
	}
	s.follow.Apply(out, s.Rest, s.Class, p.FollowNeighbors, p.FollowStrength)
	return out
}

// write stores positions on the clothing mesh.
func (s *Session) write(pos []mathutil.Vec3) error {
	m := s.Object.Mesh
	if len(m.Verts) != len(pos) {
		return fmt.Errorf("fit: %s has %d vertices, session expects %d", s.Object.Name, len(m.Verts), len(pos))
	}
	copy(m.Verts, pos)
	return nil
}
