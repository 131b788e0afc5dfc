package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Config holds all configurable paths, preview settings and fit tuning.
type Config struct {
	// Paths
	BaseDir     string `json:"base_dir"`
	ClothingOBJ string `json:"clothing_obj"`
	BodyOBJ     string `json:"body_obj"`
	GroupsJSON  string `json:"groups_json"`
	OutputDir   string `json:"output_dir"`
	SceneDB     string `json:"scene_db"`

	// Preview settings
	RenderSize    int    `json:"render_size"`
	Supersample   int    `json:"supersample"`
	Heatmap       bool   `json:"heatmap"`
	PreviewFormat string `json:"preview_format"`
	Workers       int    `json:"workers"`

	Fit FitConfig `json:"fit"`
}

// PreviewFormats lists the accepted preview image formats.
var PreviewFormats = []string{"webp", "png", "tga"}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values; an empty BaseDir
// defaults to the directory holding the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Fit.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = filepath.Dir(path)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	BaseDir     string
	Clothing    string
	Body        string
	Groups      string
	OutputDir   string
	SceneDB     string
	Format      string
	Supersample int
	Size        int
	Workers     int
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	setString(&c.BaseDir, flags.BaseDir)
	setString(&c.ClothingOBJ, flags.Clothing)
	setString(&c.BodyOBJ, flags.Body)
	setString(&c.GroupsJSON, flags.Groups)
	setString(&c.OutputDir, flags.OutputDir)
	setString(&c.SceneDB, flags.SceneDB)
	setString(&c.PreviewFormat, strings.ToLower(flags.Format))
	if flags.Supersample > 0 {
		c.Supersample = flags.Supersample
	}
	if flags.Size > 0 {
		c.RenderSize = flags.Size
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.BaseDir == "" {
		c.BaseDir, _ = os.Getwd()
	}

	// Resolve relative paths against base dir
	c.ClothingOBJ = c.abs(c.ClothingOBJ)
	c.BodyOBJ = c.abs(c.BodyOBJ)
	c.GroupsJSON = c.abs(c.GroupsJSON)
	if c.OutputDir == "" {
		c.OutputDir = "efit-out"
	}
	c.OutputDir = c.abs(c.OutputDir)
	if c.SceneDB == "" {
		c.SceneDB = "efit.db"
	}
	c.SceneDB = c.abs(c.SceneDB)

	// Defaults for preview settings
	if c.RenderSize <= 0 {
		c.RenderSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.PreviewFormat == "" {
		c.PreviewFormat = "webp"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate checks settings that Resolve cannot default.
func (c *Config) Validate() error {
	ok := false
	for _, f := range PreviewFormats {
		if c.PreviewFormat == f {
			ok = true
		}
	}
	if !ok {
		return fmt.Errorf("config: preview_format %q must be one of %s", c.PreviewFormat, strings.Join(PreviewFormats, ", "))
	}
	return c.Fit.Validate()
}

func (c *Config) abs(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
