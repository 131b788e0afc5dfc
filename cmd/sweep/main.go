package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"elastic-fit/internal/batch"
	"elastic-fit/internal/config"
	"elastic-fit/internal/diag"
	"elastic-fit/internal/fit"
	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/preview"
	"elastic-fit/internal/raster"
	"elastic-fit/internal/scene"
	"elastic-fit/internal/scenedb"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	clothingPath := flag.String("clothing", "", "Clothing OBJ")
	bodyPath := flag.String("body", "", "Body OBJ")
	groupsPath := flag.String("groups", "", "Vertex-group weights JSON for the clothing")
	outputDir := flag.String("output", "", "Output directory (default: efit-out)")
	dbPath := flag.String("db", "", "Scene database (default: efit.db)")
	format := flag.String("format", "", "Frame format: webp, png or tga")
	size := flag.Int("size", 0, "Frame size in pixels")
	workers := flag.Int("workers", 0, "Number of encoder goroutines (default: NumCPU)")
	fieldName := flag.String("field", "fit_amount", "Preview parameter to sweep")
	from := flag.Float64("from", 0, "First value")
	to := flag.Float64("to", 1, "Last value")
	steps := flag.Int("steps", 11, "Number of frames")
	yaw := flag.Float64("yaw", 30, "Camera yaw in degrees")
	pitch := flag.Float64("pitch", 15, "Camera pitch in degrees")
	perspective := flag.Bool("perspective", false, "Use a perspective camera")
	plots := flag.Bool("plots", false, "Also write gradient and displacement histograms")

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
	cfg.Resolve(config.Flags{
		Clothing:  *clothingPath,
		Body:      *bodyPath,
		Groups:    *groupsPath,
		OutputDir: *outputDir,
		SceneDB:   *dbPath,
		Format:    *format,
		Size:      *size,
		Workers:   *workers,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.ClothingOBJ == "" || cfg.BodyOBJ == "" {
		fmt.Fprintln(os.Stderr, "Error: -clothing and -body (or clothing_obj/body_obj in config) are required.")
		os.Exit(1)
	}

	field, err := fit.ParseField(*fieldName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	db, err := scenedb.Open(cfg.SceneDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	clothing, err := scene.LoadClothing(db, cfg.ClothingOBJ, cfg.GroupsJSON, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading clothing: %v\n", err)
		os.Exit(1)
	}
	body, err := scene.LoadObject(cfg.BodyOBJ, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading body: %v\n", err)
		os.Exit(1)
	}

	params := cfg.Fit.Params()
	fitter := fit.New(nil)
	rep, err := fitter.StartFit(clothing, body, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, w := range rep.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", w)
	}
	session := fitter.Session()

	values := batch.Steps(*from, *to, *steps)
	fmt.Printf("Sweep %s: %s over %d values [%g, %g]\n", clothing.Name, field, len(values), *from, *to)
	fmt.Printf("Frames: %d, Workers: %d, Output: %s\n", len(values), cfg.Workers, cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	jobs, err := batch.Sweep(fitter, field, values)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Recomputed %d poses in %.2fs\n", len(jobs), time.Since(start).Seconds())

	cam := raster.Camera{View: mathutil.ViewFromAngles(*yaw, *pitch), Perspective: *perspective}
	batchCfg := batch.Config{
		OutputDir: cfg.OutputDir,
		Format:    cfg.PreviewFormat,
		Body:      body.Mesh,
		Rest:      session.Rest,
		Preview: preview.Options{
			Size:        cfg.RenderSize,
			Supersample: cfg.Supersample,
			Camera:      cam,
			Heatmap:     cfg.Heatmap,
		},
		Workers: cfg.Workers,
	}
	results := batch.Run(batchCfg, jobs)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
			fmt.Printf("  frame %d (%s=%g): %s\n", r.Index, r.Field, r.Value, r.Error)
		}
	}
	fmt.Printf("Rendered: %d/%d\n", len(results)-failed, len(results))

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, clothing.Name, body.Name, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if *plots {
		writePlots(cfg.OutputDir, session, fitter.Params())
	}

	// The sweep only previews; leave the clothing as it was.
	if err := fitter.Cancel(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func writePlots(dir string, s *fit.Session, p fit.Params) {
	sum := diag.Summarize(s, p)
	fmt.Printf("Gradient median %.4g, threshold %.4g, %d/%d steep slots\n",
		sum.MedianGradient, sum.Threshold, sum.Steep, sum.Slots)

	gp, err := diag.GradientHistogram(s, p, 40)
	if err == nil {
		err = diag.Save(gp, filepath.Join(dir, "gradients.png"))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: gradient plot: %v\n", err)
	}

	dp, err := diag.DisplacementHistogram(s.Object.Name, s.Object.Mesh.Verts, s.Rest, 40)
	if err == nil {
		err = diag.Save(dp, filepath.Join(dir, "displacement.png"))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: displacement plot: %v\n", err)
	}
}
