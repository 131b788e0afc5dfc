package fit

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
	"elastic-fit/internal/meshops"
	"elastic-fit/internal/monitoring"
	"elastic-fit/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

func fixture() (clothing, body *mesh.Object) {
	body = mesh.NewMeshObject("Body", testutil.Cylinder(1, 2, 24, 4))
	clothing = mesh.NewMeshObject("Shirt", testutil.Cylinder(1.3, 2, 12, 3))
	return clothing, body
}

func testParams() Params {
	p := DefaultParams()
	p.ProxyTriangles = 10000
	return p
}

func radius(v mathutil.Vec3) float64 { return math.Hypot(v[0], v[1]) }

func TestStartFitZeroAmountKeepsRest(t *testing.T) {
	clothing, body := fixture()
	rest := clothing.Mesh.Positions()

	p := testParams()
	p.FitAmount = 0
	f := New(nil)
	rep, err := f.StartFit(clothing, body, p)
	require.NoError(t, err)
	assert.True(t, f.Active())
	assert.NotEmpty(t, rep.SessionID)
	assert.Equal(t, 4, rep.Subdivisions)
	assert.Equal(t, 72*256, rep.ProxyTriangles)
	assert.Equal(t, len(rest), rep.Fitted)
	assert.Equal(t, rest, clothing.Mesh.Verts)
}

func TestStartFitReachesBody(t *testing.T) {
	clothing, body := fixture()
	p := testParams()
	p.FitAmount = 1
	p.Offset = 0.01
	p.DispSmoothPasses = 0

	_, err := New(nil).StartFit(clothing, body, p)
	require.NoError(t, err)
	for i, v := range clothing.Mesh.Verts {
		assert.InDelta(t, 1.01, radius(v), 0.02, "vertex %d", i)
	}
	assert.Len(t, clothing.Meta[MetaOriginals], 3*len(clothing.Mesh.Verts))
}

func TestStartFitPartialAmount(t *testing.T) {
	clothing, body := fixture()
	_, err := New(nil).StartFit(clothing, body, testParams())
	require.NoError(t, err)
	// 0.65 of the way from 1.3 toward ~1.001
	for i, v := range clothing.Mesh.Verts {
		assert.InDelta(t, 1.3-0.65*0.299, radius(v), 0.03, "vertex %d", i)
	}
}

func TestCancelRestoresRest(t *testing.T) {
	clothing, body := fixture()
	rest := clothing.Mesh.Positions()

	f := New(nil)
	_, err := f.StartFit(clothing, body, testParams())
	require.NoError(t, err)

	p := testParams()
	for _, amount := range []float64{0.2, 1, 0.5} {
		p.FitAmount = amount
		p.Offset += 0.01
		require.NoError(t, f.UpdateParams(p))
	}
	require.NotEqual(t, rest, clothing.Mesh.Verts)

	require.NoError(t, f.Cancel())
	assert.Equal(t, rest, clothing.Mesh.Verts)
	assert.False(t, f.Active())

	err = f.Cancel()
	var se *SessionStateError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestUpdateParamsIdempotent(t *testing.T) {
	clothing, body := fixture()
	f := New(nil)
	_, err := f.StartFit(clothing, body, testParams())
	require.NoError(t, err)

	p := testParams()
	p.FitAmount = 0.9
	p.DispSmoothPasses = 30
	require.NoError(t, f.UpdateParams(p))
	first := clothing.Mesh.Positions()
	require.NoError(t, f.UpdateParams(p))
	assert.Equal(t, first, clothing.Mesh.Verts)
	assert.Equal(t, p, f.Params())
}

func TestUpdateParamsOffsetUsesBodyNormals(t *testing.T) {
	clothing, body := fixture()
	p := testParams()
	p.FitAmount = 1
	p.DispSmoothPasses = 0

	f := New(nil)
	_, err := f.StartFit(clothing, body, p)
	require.NoError(t, err)
	before := clothing.Mesh.Positions()

	p.Offset += 0.1
	require.NoError(t, f.UpdateParams(p))
	for i, v := range clothing.Mesh.Verts {
		grow := radius(v) - radius(before[i])
		assert.InDelta(t, 0.1, grow, 0.005, "vertex %d", i)
	}
}

func TestUpdateParamsErrors(t *testing.T) {
	f := New(nil)
	err := f.UpdateParams(testParams())
	assert.ErrorIs(t, err, ErrNoSession)

	clothing, body := fixture()
	_, err = f.StartFit(clothing, body, testParams())
	require.NoError(t, err)

	bad := testParams()
	bad.DispSmoothMin = 0.9
	bad.DispSmoothMax = 0.1
	var ve *ValidationError
	assert.ErrorAs(t, f.UpdateParams(bad), &ve)
	assert.True(t, f.Active())
}

func TestNestedUpdateIsDeferred(t *testing.T) {
	clothing, body := fixture()
	f := New(nil)
	_, err := f.StartFit(clothing, body, testParams())
	require.NoError(t, err)

	other := testParams()
	other.FitAmount = 0.3
	calls, depth := 0, 0
	var nested []error
	f.Observe(func(obj *mesh.Object) {
		depth++
		defer func() { depth-- }()
		calls++
		assert.Equal(t, 1, depth)
		assert.Same(t, clothing, obj)
		nested = append(nested, f.UpdateParams(other))
		nested = append(nested, f.Handle(ParameterChanged{Field: FieldFitAmount, Value: 0.0}))
	})

	p := testParams()
	p.FitAmount = 0.8
	require.NoError(t, f.UpdateParams(p))

	// The first notification defers the Handle refresh, which runs once
	// after it; the repeat request from the second notification matches
	// what was just applied and is dropped.
	want := p
	want.FitAmount = 0
	assert.Equal(t, 2, calls)
	assert.Equal(t, []error{nil, nil, nil, nil}, nested)
	assert.Equal(t, want, f.Params())
	assert.Equal(t, f.Session().Positions(want), clothing.Mesh.Verts)
}

func TestConcurrentUpdateIsApplied(t *testing.T) {
	clothing, body := fixture()
	f := New(nil)
	_, err := f.StartFit(clothing, body, testParams())
	require.NoError(t, err)

	entered := make(chan struct{})
	unblock := make(chan struct{})
	var once sync.Once
	f.Observe(func(*mesh.Object) {
		once.Do(func() {
			close(entered)
			<-unblock
		})
	})

	first := testParams()
	first.FitAmount = 0.2
	done := make(chan error, 1)
	go func() { done <- f.UpdateParams(first) }()
	<-entered

	second := testParams()
	second.FitAmount = 0.9
	require.NoError(t, f.UpdateParams(second))
	close(unblock)
	require.NoError(t, <-done)

	assert.Equal(t, second, f.Params())
	assert.Equal(t, f.Session().Positions(second), clothing.Mesh.Verts)

	// With nothing running, a call applies immediately.
	require.NoError(t, f.UpdateParams(first))
	assert.Equal(t, first, f.Params())
	assert.Equal(t, f.Session().Positions(first), clothing.Mesh.Verts)
}

func TestStartFitDuringRecomputeFails(t *testing.T) {
	clothing, body := fixture()
	f := New(nil)
	_, err := f.StartFit(clothing, body, testParams())
	require.NoError(t, err)

	other, otherBody := fixture()
	var startErr error
	f.Observe(func(*mesh.Object) { _, startErr = f.StartFit(other, otherBody, testParams()) })
	require.NoError(t, f.UpdateParams(testParams()))

	require.Error(t, startErr)
	assert.Contains(t, startErr.Error(), "recompute in progress")
	assert.Same(t, clothing, f.Session().Object)
}

func TestObserverOfCancelCannotUpdate(t *testing.T) {
	clothing, body := fixture()
	rest := clothing.Mesh.Positions()
	f := New(nil)
	_, err := f.StartFit(clothing, body, testParams())
	require.NoError(t, err)

	var nested error
	f.Observe(func(*mesh.Object) { nested = f.UpdateParams(testParams()) })
	require.NoError(t, f.Cancel())

	assert.NoError(t, nested)
	assert.False(t, f.Active())
	assert.Equal(t, rest, clothing.Mesh.Verts)

	// The flag was lowered, so a later call reports the missing session.
	assert.ErrorIs(t, f.UpdateParams(testParams()), ErrNoSession)
}

func TestStartFitValidation(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(clothing, body *mesh.Object) (*mesh.Object, *mesh.Object, Params)
		target error
	}{
		{"same object", func(c, b *mesh.Object) (*mesh.Object, *mesh.Object, Params) {
			return c, c, testParams()
		}, ErrInvalidObject},
		{"missing body", func(c, b *mesh.Object) (*mesh.Object, *mesh.Object, Params) {
			return c, nil, testParams()
		}, ErrInvalidObject},
		{"armature body", func(c, b *mesh.Object) (*mesh.Object, *mesh.Object, Params) {
			b.Type = mesh.TypeArmature
			return c, b, testParams()
		}, ErrInvalidObject},
		{"shape keys", func(c, b *mesh.Object) (*mesh.Object, *mesh.Object, Params) {
			c.ShapeKeys = []string{"Basis", "Smile"}
			return c, b, testParams()
		}, ErrBlocked},
		{"modifier", func(c, b *mesh.Object) (*mesh.Object, *mesh.Object, Params) {
			c.Modifiers = []mesh.Modifier{{Name: "Subsurf", Type: "SUBSURF"}}
			return c, b, testParams()
		}, ErrBlocked},
		{"bad params", func(c, b *mesh.Object) (*mesh.Object, *mesh.Object, Params) {
			p := testParams()
			p.FitAmount = 2
			return c, b, p
		}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clothing, body := fixture()
			rest := clothing.Mesh.Positions()
			c, b, p := tc.setup(clothing, body)

			f := New(nil)
			_, err := f.StartFit(c, b, p)
			require.Error(t, err)
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
			} else {
				var ve *ValidationError
				assert.ErrorAs(t, err, &ve)
			}
			assert.False(t, f.Active())
			assert.Equal(t, rest, clothing.Mesh.Verts)
			assert.Nil(t, clothing.Meta)
		})
	}
}

func TestStartFitSameNameDifferentObjects(t *testing.T) {
	clothing, body := fixture()
	clothing.Name, body.Name = "mesh", "mesh"

	f := New(nil)
	_, err := f.StartFit(clothing, body, testParams())
	require.NoError(t, err)
	assert.True(t, f.Active())
}

func TestBlockerErrorMessage(t *testing.T) {
	clothing, body := fixture()
	clothing.ShapeKeys = []string{"Basis"}
	clothing.Modifiers = []mesh.Modifier{{Name: "Mirror", Type: "MIRROR"}, {Name: "Armature", Type: ModifierArmature}}

	_, err := New(nil).StartFit(clothing, body, testParams())
	var be *BlockerError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 1, be.ShapeKeys)
	assert.Equal(t, []string{"Mirror"}, be.Modifiers)
	assert.Contains(t, err.Error(), "Mirror")
}

func TestClearBlockers(t *testing.T) {
	clothing, body := fixture()
	clothing.ShapeKeys = []string{"Basis", "Smile"}
	clothing.Modifiers = []mesh.Modifier{
		{Name: "Subsurf", Type: "SUBSURF"},
		{Name: "Armature", Type: ModifierArmature},
		{Name: "EFit_Smooth", Type: "CORRECTIVE_SMOOTH"},
	}

	f := New(nil)
	cleared, err := f.ClearBlockers(clothing)
	require.NoError(t, err)
	assert.Equal(t, Cleared{ShapeKeys: 2, Modifiers: []string{"Subsurf"}}, cleared)
	assert.Equal(t, []string{"Armature", "EFit_Smooth"}, []string{clothing.Modifiers[0].Name, clothing.Modifiers[1].Name})
	assert.Empty(t, clothing.ShapeKeys)

	cleared, err = f.ClearBlockers(clothing)
	require.NoError(t, err)
	assert.True(t, cleared.Empty())

	// Cleanup strips the fit's own modifiers and keeps the armature.
	_, err = f.StartFit(clothing, body, testParams())
	require.NoError(t, err)
	assert.Equal(t, []mesh.Modifier{{Name: "Armature", Type: ModifierArmature}}, clothing.Modifiers)
}

func TestCommit(t *testing.T) {
	f := New(nil)
	err := f.Commit(testParams().PostOptions())
	require.Error(t, err)
	assert.Equal(t, "fit: nothing to apply", err.Error())
	assert.ErrorIs(t, err, ErrNoSession)

	clothing, body := fixture()
	rest := clothing.Mesh.Positions()
	p := testParams()
	p.PostLaplacian = true
	_, err = f.StartFit(clothing, body, p)
	require.NoError(t, err)
	require.NoError(t, f.Commit(p.PostOptions()))

	assert.False(t, f.Active())
	assert.NotEqual(t, rest, clothing.Mesh.Verts)
	assert.Len(t, clothing.Meta[MetaOriginals], 3*len(rest))
	assert.ErrorIs(t, f.Cancel(), ErrNoSession)
}

func TestRemoveFitAfterReload(t *testing.T) {
	clothing, body := fixture()
	rest := clothing.Mesh.Positions()

	_, err := New(nil).StartFit(clothing, body, testParams())
	require.NoError(t, err)
	clothing.Modifiers = append(clothing.Modifiers, mesh.Modifier{Name: "EFit_Laplacian", Type: "LAPLACIANSMOOTH"})

	// A fresh Fitter has no session but still finds the snapshot.
	g := New(nil)
	require.NoError(t, g.RemoveFit(clothing))
	assert.Equal(t, rest, clothing.Mesh.Verts)
	assert.NotContains(t, clothing.Meta, MetaOriginals)
	assert.Empty(t, clothing.Modifiers)

	require.NoError(t, g.RemoveFit(clothing))
	assert.Equal(t, rest, clothing.Mesh.Verts)
	assert.ErrorIs(t, g.RemoveFit(nil), ErrInvalidObject)
}

func TestRemoveFitEndsOwnSession(t *testing.T) {
	clothing, body := fixture()
	rest := clothing.Mesh.Positions()
	f := New(nil)
	_, err := f.StartFit(clothing, body, testParams())
	require.NoError(t, err)

	require.NoError(t, f.RemoveFit(clothing))
	assert.False(t, f.Active())
	assert.Equal(t, rest, clothing.Mesh.Verts)
}

func TestRemoveFitPartialSnapshot(t *testing.T) {
	clothing, _ := fixture()
	want := clothing.Mesh.Positions()
	want[0] = mathutil.Vec3{7, 8, 9}
	clothing.SetMeta(MetaOriginals, []float64{7, 8, 9, 1, 2})

	require.NoError(t, New(nil).RemoveFit(clothing))
	assert.Equal(t, want, clothing.Mesh.Verts)
}

func TestRefitStartsFromSnapshot(t *testing.T) {
	clothing, body := fixture()
	f := New(nil)
	first, err := f.StartFit(clothing, body, testParams())
	require.NoError(t, err)
	rest := f.Session().Rest
	require.NoError(t, f.Commit(testParams().PostOptions()))

	second, err := f.StartFit(clothing, body, testParams())
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, rest, f.Session().Rest)

	// Without cleanup the fitted shape becomes the new rest.
	p := testParams()
	p.Cleanup = false
	fitted := clothing.Mesh.Positions()
	_, err = f.StartFit(clothing, body, p)
	require.NoError(t, err)
	assert.Equal(t, fitted, f.Session().Rest)
}

func collarGroup(m *mesh.Mesh) (*mesh.Group, []int) {
	g := mesh.NewGroup("collar")
	var idx []int
	for i, v := range m.Verts {
		if v[2] == 2 {
			g.Set(i, 1)
			idx = append(idx, i)
		}
	}
	m.AddGroup(g)
	return g, idx
}

func TestPreserveGroupFollow(t *testing.T) {
	clothing, body := fixture()
	_, collar := collarGroup(clothing.Mesh)
	rest := clothing.Mesh.Positions()

	p := testParams()
	p.PreserveGroup = " collar "
	p.FollowStrength = 0
	f := New(nil)
	rep, err := f.StartFit(clothing, body, p)
	require.NoError(t, err)
	assert.Equal(t, len(collar), rep.Preserved)
	assert.Positive(t, rep.Suppressed)
	assert.Empty(t, rep.Warnings)

	for _, vi := range collar {
		assert.Equal(t, rest[vi], clothing.Mesh.Verts[vi])
	}
	assert.Less(t, radius(clothing.Mesh.Verts[0]), 1.25)

	require.NoError(t, f.Handle(ParameterChanged{Field: FieldFollowStrength, Value: 1.0}))
	for _, vi := range collar {
		assert.Less(t, radius(clothing.Mesh.Verts[vi]), 1.29, "collar vertex %d", vi)
		assert.InDelta(t, 2.0, clothing.Mesh.Verts[vi][2], 0.05)
	}

	// Post-processing leaves preserved vertices alone.
	require.NoError(t, f.Handle(ParameterChanged{Field: FieldFollowStrength, Value: 0.0}))
	post := p.PostOptions()
	post.Laplacian = true
	post.Symmetrize = true
	require.NoError(t, f.Commit(post))
	for _, vi := range collar {
		assert.Equal(t, rest[vi], clothing.Mesh.Verts[vi])
	}
}

func TestMissingGroupWarning(t *testing.T) {
	clothing, body := fixture()
	p := testParams()
	p.PreserveGroup = "Sleeves"

	rep, err := New(nil).StartFit(clothing, body, p)
	require.NoError(t, err)
	require.Len(t, rep.Warnings, 1)
	var w *MissingGroupWarning
	require.ErrorAs(t, rep.Warnings[0], &w)
	assert.Equal(t, "Sleeves", w.Group)
	assert.Zero(t, rep.Preserved)
	assert.Equal(t, len(clothing.Mesh.Verts), rep.Fitted)
}

func TestHandleRouting(t *testing.T) {
	clothing, body := fixture()
	rest := clothing.Mesh.Positions()
	f := New(nil)

	// Without a session changes are only stored.
	require.NoError(t, f.Handle(ParameterChanged{Field: FieldProxyTriangles, Value: 10000}))
	assert.Equal(t, 10000, f.Params().ProxyTriangles)

	_, err := f.StartFit(clothing, body, f.Params())
	require.NoError(t, err)
	fitted := clothing.Mesh.Positions()

	require.NoError(t, f.Handle(ParameterChanged{Field: FieldSmoothIterations, Value: 3}))
	assert.Equal(t, fitted, clothing.Mesh.Verts)

	require.NoError(t, f.Handle(ParameterChanged{Field: FieldFitAmount, Value: 5.0}))
	assert.Equal(t, 1.0, f.Params().FitAmount)

	require.NoError(t, f.Handle(ParameterChanged{Field: FieldFitAmount, Value: 0.0}))
	assert.Equal(t, rest, clothing.Mesh.Verts)

	require.NoError(t, f.Handle(ParameterChanged{Field: FieldDispSmoothMin, Value: 0.9}))
	assert.Equal(t, 0.9, f.Params().DispSmoothMax)

	var ve *ValidationError
	assert.ErrorAs(t, f.Handle(ParameterChanged{Field: FieldOffset, Value: "far"}), &ve)
}

func TestResetDefaults(t *testing.T) {
	clothing, body := fixture()
	f := New(nil)
	p := testParams()
	p.PreserveGroup = "collar"
	collarGroup(clothing.Mesh)
	_, err := f.StartFit(clothing, body, p)
	require.NoError(t, err)
	require.NoError(t, f.Handle(ParameterChanged{Field: FieldFitAmount, Value: 0.1}))

	require.NoError(t, f.ResetDefaults())
	want := DefaultParams()
	want.PreserveGroup = "collar"
	assert.Equal(t, want, f.Params())
	assert.Equal(t, f.Session().Positions(want), clothing.Mesh.Verts)

	require.NoError(t, f.Cancel())
	require.NoError(t, f.ResetDefaults())
}

// uvScrambler stands in for a host whose smoothing operator distorts UVs.
type uvScrambler struct {
	meshops.Native
}

func (u uvScrambler) CorrectiveSmooth(m *mesh.Mesh, opts meshops.CorrectiveSmoothOptions) {
	u.Native.CorrectiveSmooth(m, opts)
	for li := range m.UVLayers {
		for i := range m.UVLayers[li].UVs {
			m.UVLayers[li].UVs[i] = [2]float64{-1, -1}
		}
	}
}

func TestCommitRestoresUVs(t *testing.T) {
	for _, preserve := range []bool{true, false} {
		clothing, body := fixture()
		want := append([][2]float64(nil), clothing.Mesh.UVLayers[0].UVs...)

		f := New(uvScrambler{})
		p := testParams()
		p.PreserveUVs = preserve
		_, err := f.StartFit(clothing, body, p)
		require.NoError(t, err)
		require.NoError(t, f.Commit(p.PostOptions()))

		if preserve {
			assert.Equal(t, want, clothing.Mesh.UVLayers[0].UVs)
		} else {
			assert.Equal(t, [2]float64{-1, -1}, clothing.Mesh.UVLayers[0].UVs[0])
		}
	}
}

// shortProjector breaks the one-point-per-vertex contract.
type shortProjector struct {
	meshops.Native
}

func (shortProjector) ProjectOntoSurface(points []mathutil.Vec3, _ *mesh.Mesh, _ meshops.ProjectOptions) []mathutil.Vec3 {
	return points[:len(points)-1]
}

func TestProjectionContractViolation(t *testing.T) {
	clothing, body := fixture()
	_, err := New(shortProjector{}).StartFit(clothing, body, testParams())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoSession))
	assert.Contains(t, err.Error(), "projection returned")
}

func TestFailedRefitLeavesObjectUntouched(t *testing.T) {
	clothing, body := fixture()
	rest := clothing.Mesh.Positions()
	f := New(nil)
	_, err := f.StartFit(clothing, body, testParams())
	require.NoError(t, err)
	require.NoError(t, f.Commit(testParams().PostOptions()))
	clothing.Modifiers = append(clothing.Modifiers, mesh.Modifier{Name: ModifierPrefix + "Laplacian", Type: "LAPLACIANSMOOTH"})

	fitted := clothing.Mesh.Positions()
	snapshot := append([]float64(nil), clothing.Meta[MetaOriginals]...)
	mods := append([]mesh.Modifier(nil), clothing.Modifiers...)

	p := testParams()
	require.True(t, p.Cleanup)
	_, err = New(shortProjector{}).StartFit(clothing, body, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "projection returned")

	assert.Equal(t, fitted, clothing.Mesh.Verts)
	assert.Equal(t, snapshot, clothing.Meta[MetaOriginals])
	assert.Equal(t, mods, clothing.Modifiers)

	// The fit can still be undone.
	require.NoError(t, f.RemoveFit(clothing))
	assert.Equal(t, rest, clothing.Mesh.Verts)
	assert.Empty(t, clothing.Modifiers)
}
