package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elastic-fit/internal/fit"
	"elastic-fit/internal/meshops"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "efit.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAndResolve(t *testing.T) {
	path := writeConfig(t, `{
		"clothing_obj": "shirt.obj",
		"body_obj": "/abs/body.obj",
		"render_size": 128,
		"fit": {"fit_amount": 0, "symmetrize_axis": "NEGATIVE_Y", "follow_neighbors": 4}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	dir := filepath.Dir(path)
	assert.Equal(t, dir, cfg.BaseDir)

	cfg.Resolve(Flags{Supersample: 3})
	assert.Equal(t, filepath.Join(dir, "shirt.obj"), cfg.ClothingOBJ)
	assert.Equal(t, "/abs/body.obj", cfg.BodyOBJ)
	assert.Equal(t, filepath.Join(dir, "efit-out"), cfg.OutputDir)
	assert.Equal(t, filepath.Join(dir, "efit.db"), cfg.SceneDB)
	assert.Equal(t, "", cfg.GroupsJSON)
	assert.Equal(t, 128, cfg.RenderSize)
	assert.Equal(t, 3, cfg.Supersample)
	assert.Equal(t, "webp", cfg.PreviewFormat)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	require.NoError(t, cfg.Validate())

	p := cfg.Fit.Params()
	assert.Equal(t, 0.0, p.FitAmount)
	assert.Equal(t, meshops.NegativeY, p.SymmetrizeAxis)
	assert.Equal(t, 4, p.FollowNeighbors)
	assert.Equal(t, fit.DefaultParams().Offset, p.Offset)
}

func TestFlagsOverride(t *testing.T) {
	cfg := Config{BaseDir: "/data", OutputDir: "out", PreviewFormat: "png"}
	cfg.Resolve(Flags{OutputDir: "/tmp/renders", Format: "TGA", Size: 64, Workers: 3, Body: "b.obj"})
	assert.Equal(t, "/tmp/renders", cfg.OutputDir)
	assert.Equal(t, "tga", cfg.PreviewFormat)
	assert.Equal(t, 64, cfg.RenderSize)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, filepath.Join("/data", "b.obj"), cfg.BodyOBJ)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{"render_size": "big"}`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{"fit": {"offset": 3}}`))
	var ve *fit.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "offset", ve.Subject)
}

func TestValidateFormat(t *testing.T) {
	cfg := Config{PreviewFormat: "gif"}
	assert.Error(t, cfg.Validate())
	cfg.PreviewFormat = "png"
	assert.NoError(t, cfg.Validate())
}

func TestFitConfigApplyKeepsUnset(t *testing.T) {
	base := fit.DefaultParams()
	base.FitAmount = 0.3
	strength := 0.0
	got := FitConfig{FollowStrength: &strength}.Apply(base)

	want := base
	want.FollowStrength = 0
	assert.Equal(t, want, got)
}
