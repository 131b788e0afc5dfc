package batch

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elastic-fit/internal/fit"
	"elastic-fit/internal/mesh"
	"elastic-fit/internal/monitoring"
	"elastic-fit/internal/preview"
	"elastic-fit/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

func startFit(t *testing.T) (*fit.Fitter, *mesh.Object, *mesh.Object) {
	t.Helper()
	body := mesh.NewMeshObject("Body", testutil.Cylinder(1, 2, 24, 4))
	shirt := mesh.NewMeshObject("Shirt", testutil.Cylinder(1.3, 2, 12, 3))
	p := fit.DefaultParams()
	p.ProxyTriangles = 10000
	f := fit.New(nil)
	_, err := f.StartFit(shirt, body, p)
	require.NoError(t, err)
	return f, shirt, body
}

func TestSteps(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, Steps(0, 1, 3))
	assert.Equal(t, []float64{2}, Steps(2, 5, 1))
	assert.Equal(t, []float64{2}, Steps(2, 5, 0))
}

func TestSweepSnapshotsEachValue(t *testing.T) {
	f, shirt, _ := startFit(t)

	jobs, err := Sweep(f, fit.FieldFitAmount, Steps(0, 1, 3))
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "fit_amount", jobs[0].Field)
	assert.NotEqual(t, jobs[0].Clothing.Verts, jobs[2].Clothing.Verts)
	// The live mesh is left at the last value and is not aliased.
	assert.Equal(t, jobs[2].Clothing.Verts, shirt.Mesh.Verts)
	assert.NotSame(t, &jobs[2].Clothing.Verts[0], &shirt.Mesh.Verts[0])
	assert.Equal(t, 1.0, f.Params().FitAmount)
}

func TestSweepErrors(t *testing.T) {
	_, err := Sweep(fit.New(nil), fit.FieldFitAmount, []float64{0})
	assert.True(t, errors.Is(err, fit.ErrNoSession))

	f, _, _ := startFit(t)
	_, err = Sweep(f, fit.FieldProxyTriangles, []float64{10000})
	assert.Error(t, err)
}

func TestRunWritesFramesAndManifest(t *testing.T) {
	f, shirt, body := startFit(t)
	rest := f.Session().Rest

	jobs, err := Sweep(f, fit.FieldFitAmount, Steps(0, 1, 4))
	require.NoError(t, err)
	jobs = append(jobs, Job{Index: len(jobs), Field: "fit_amount", Value: 2})

	dir := t.TempDir()
	opts := preview.DefaultOptions()
	opts.Size = 32
	opts.Supersample = 1
	cfg := Config{
		OutputDir: dir,
		Format:    preview.FormatPNG,
		Body:      body.Mesh,
		Rest:      rest,
		Preview:   opts,
		Workers:   3,
	}
	results := Run(cfg, jobs)
	require.Len(t, results, 5)

	for _, r := range results[:4] {
		require.True(t, r.Success, r.Error)
		_, err := os.Stat(filepath.Join(dir, r.Image))
		assert.NoError(t, err)
	}
	assert.False(t, results[4].Success)
	assert.InDelta(t, 0.0, results[0].MaxDisplacement, 1e-9)
	assert.Greater(t, results[3].MaxDisplacement, results[1].MaxDisplacement)

	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, WriteManifest(path, shirt.Name, body.Name, results))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "Shirt", m.Object)
	require.Len(t, m.Frames, 4)
	assert.Equal(t, FrameName(3, "png"), m.Frames[3].Image)
	assert.Equal(t, 1.0, m.Frames[3].Value)
}
