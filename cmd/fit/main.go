package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"elastic-fit/internal/config"
	"elastic-fit/internal/fit"
	"elastic-fit/internal/preview"
	"elastic-fit/internal/raster"
	"elastic-fit/internal/scene"
	"elastic-fit/internal/scenedb"
)

// settings collects repeated -set name=value flags.
type settings []fit.ParameterChanged

func (s *settings) String() string { return fmt.Sprint(len(*s)) }

func (s *settings) Set(v string) error {
	ev, err := fit.ParseSetting(v)
	if err != nil {
		return err
	}
	*s = append(*s, ev)
	return nil
}

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	clothingPath := flag.String("clothing", "", "Clothing OBJ")
	bodyPath := flag.String("body", "", "Body OBJ")
	groupsPath := flag.String("groups", "", "Vertex-group weights JSON for the clothing")
	name := flag.String("name", "", "Clothing object name (default: OBJ file name)")
	outputDir := flag.String("output", "", "Output directory (default: efit-out)")
	dbPath := flag.String("db", "", "Scene database (default: efit.db)")
	format := flag.String("format", "", "Preview format: webp, png or tga")
	size := flag.Int("size", 0, "Preview size in pixels")
	view := flag.String("view", "three-quarter", "Preview view: front, side or three-quarter")
	apply := flag.Bool("apply", false, "Commit the fit and write the fitted OBJ")
	noPreview := flag.Bool("no-preview", false, "Skip the preview image")
	clearBlockers := flag.Bool("clear-blockers", false, "Remove shape keys and blocking modifiers before fitting")
	var overrides settings
	flag.Var(&overrides, "set", "Override a fit parameter, name=value (repeatable)")

	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		Clothing:  *clothingPath,
		Body:      *bodyPath,
		Groups:    *groupsPath,
		OutputDir: *outputDir,
		SceneDB:   *dbPath,
		Format:    *format,
		Size:      *size,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.ClothingOBJ == "" || cfg.BodyOBJ == "" {
		fmt.Fprintln(os.Stderr, "Error: -clothing and -body (or clothing_obj/body_obj in config) are required.")
		os.Exit(1)
	}

	params := cfg.Fit.Params()
	for _, ev := range overrides {
		if err := params.Set(ev.Field, ev.Value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	db, err := scenedb.Open(cfg.SceneDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	clothing, err := scene.LoadClothing(db, cfg.ClothingOBJ, cfg.GroupsJSON, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading clothing: %v\n", err)
		os.Exit(1)
	}
	body, err := scene.LoadObject(cfg.BodyOBJ, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading body: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Elastic fit: %s → %s\n", clothing.Name, body.Name)
	fmt.Printf("Clothing: %d verts, %d faces  Body: %d verts, %d faces\n",
		len(clothing.Mesh.Verts), len(clothing.Mesh.Faces), len(body.Mesh.Verts), len(body.Mesh.Faces))
	fmt.Println("------------------------------------------------------------")

	fitter := fit.New(nil)
	if *clearBlockers {
		c, err := fitter.ClearBlockers(clothing)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !c.Empty() {
			fmt.Printf("Cleared %d shape keys, modifiers: %s\n", c.ShapeKeys, strings.Join(c.Modifiers, ", "))
		}
	}

	start := time.Now()
	rep, err := fitter.StartFit(clothing, body, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, w := range rep.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", w)
	}
	fmt.Printf("Proxy: %d triangles (%d subdivisions)\n", rep.ProxyTriangles, rep.Subdivisions)
	fmt.Printf("Vertices: %d fitted, %d preserved, %d proxy suppressed\n", rep.Fitted, rep.Preserved, rep.Suppressed)
	fmt.Printf("Fit computed in %.2fs\n", time.Since(start).Seconds())

	if err := db.RecordFit(clothing.Name, body.Name, params, rep); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: history: %v\n", err)
	}

	if !*noPreview {
		cam := raster.DefaultCamera()
		if m, ok := raster.Views[*view]; ok {
			cam.View = m
		} else {
			fmt.Fprintf(os.Stderr, "Warning: unknown view %q, using three-quarter\n", *view)
		}
		opts := preview.Options{
			Size:        cfg.RenderSize,
			Supersample: cfg.Supersample,
			Camera:      cam,
			Heatmap:     cfg.Heatmap,
		}
		img := preview.Frame(body.Mesh, clothing.Mesh, fitter.Session().Rest, opts)
		path := filepath.Join(cfg.OutputDir, clothing.Name+"_preview."+cfg.PreviewFormat)
		if err := preview.Save(path, img); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: preview: %v\n", err)
		} else {
			fmt.Printf("Preview: %s\n", path)
		}
	}

	if !*apply {
		if err := fitter.Cancel(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := db.SetFitStatus(rep.SessionID, scenedb.StatusCancelled); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: history: %v\n", err)
		}
		fmt.Println("Preview only; clothing left unchanged (use -apply to commit).")
		return
	}

	if err := fitter.Commit(params.PostOptions()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	out := filepath.Join(cfg.OutputDir, clothing.Name+".obj")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := scene.SaveClothing(db, clothing, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := db.SetFitStatus(rep.SessionID, scenedb.StatusApplied); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: history: %v\n", err)
	}
	fmt.Printf("Applied: %s\n", out)
}
