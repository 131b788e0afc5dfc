package fit

import (
	"strings"

	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
)

const (
	// MetaOriginals is the object metadata key holding the pre-fit
	// positions, three floats per vertex in index order.
	MetaOriginals = "_efit_originals"
	// ModifierPrefix names modifiers owned by the fit.
	ModifierPrefix = "EFit_"
	// ModifierArmature is the modifier type a fit tolerates on clothing.
	ModifierArmature = "ARMATURE"
)

// Blockers returns the shape-key count and the names of modifiers that
// prevent fitting obj.
func Blockers(obj *mesh.Object) (shapeKeys int, modifiers []string) {
	for _, m := range obj.Modifiers {
		if isBlocking(m) {
			modifiers = append(modifiers, m.Name)
		}
	}
	return len(obj.ShapeKeys), modifiers
}

func isBlocking(m mesh.Modifier) bool {
	return !strings.HasPrefix(m.Name, ModifierPrefix) && m.Type != ModifierArmature
}

// Cleared reports what ClearBlockers removed.
type Cleared struct {
	ShapeKeys int
	Modifiers []string
}

// Empty reports whether nothing was removed.
func (c Cleared) Empty() bool {
	return c.ShapeKeys == 0 && len(c.Modifiers) == 0
}

// clearBlockers drops shape keys and every blocking modifier, keeping
// armatures and fit modifiers.
func clearBlockers(obj *mesh.Object) Cleared {
	var out Cleared
	out.ShapeKeys, out.Modifiers = Blockers(obj)
	obj.ShapeKeys = nil
	kept := obj.Modifiers[:0]
	for _, m := range obj.Modifiers {
		if !isBlocking(m) {
			kept = append(kept, m)
		}
	}
	obj.Modifiers = kept
	return out
}

// stripFitModifiers removes modifiers carrying ModifierPrefix.
func stripFitModifiers(obj *mesh.Object) int {
	kept := obj.Modifiers[:0]
	for _, m := range obj.Modifiers {
		if !strings.HasPrefix(m.Name, ModifierPrefix) {
			kept = append(kept, m)
		}
	}
	n := len(obj.Modifiers) - len(kept)
	obj.Modifiers = kept
	return n
}

// FlattenPositions packs positions as x0 y0 z0 x1 y1 z1 ...
func FlattenPositions(pos []mathutil.Vec3) []float64 {
	out := make([]float64, 0, len(pos)*3)
	for _, p := range pos {
		out = append(out, p[0], p[1], p[2])
	}
	return out
}

// restoreOriginals writes the MetaOriginals snapshot back onto obj's
// vertices and removes the key. A short snapshot restores only the
// vertices it covers. It reports whether a snapshot was present.
func restoreOriginals(obj *mesh.Object) bool {
	flat, ok := obj.Meta[MetaOriginals]
	if !ok {
		return false
	}
	if obj.Mesh != nil {
		for vi := range obj.Mesh.Verts {
			i := vi * 3
			if i+2 >= len(flat) {
				break
			}
			obj.Mesh.Verts[vi] = mathutil.Vec3{flat[i], flat[i+1], flat[i+2]}
		}
	}
	delete(obj.Meta, MetaOriginals)
	return true
}

// objectState holds what StartFit may change on clothing before the fit
// is known to succeed.
type objectState struct {
	verts        []mathutil.Vec3
	modifiers    []mesh.Modifier
	originals    []float64
	hasOriginals bool
}

func saveState(obj *mesh.Object) objectState {
	st := objectState{
		verts:     obj.Mesh.Positions(),
		modifiers: append([]mesh.Modifier(nil), obj.Modifiers...),
	}
	if flat, ok := obj.Meta[MetaOriginals]; ok {
		st.originals = append([]float64(nil), flat...)
		st.hasOriginals = true
	}
	return st
}

func (st objectState) restore(obj *mesh.Object) {
	obj.Mesh.Verts = st.verts
	obj.Modifiers = st.modifiers
	if st.hasOriginals {
		obj.SetMeta(MetaOriginals, st.originals)
	} else {
		delete(obj.Meta, MetaOriginals)
	}
}
