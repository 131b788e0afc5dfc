package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"elastic-fit/internal/config"
	"elastic-fit/internal/fit"
	"elastic-fit/internal/scene"
	"elastic-fit/internal/scenedb"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	input := flag.String("in", "", "Fitted clothing OBJ (default: <output>/<name>.obj)")
	name := flag.String("name", "", "Clothing object name (default: from -in or clothing_obj)")
	outPath := flag.String("out", "", "Where to write the restored OBJ (default: overwrite -in)")
	dbPath := flag.String("db", "", "Scene database (default: efit.db)")
	outputDir := flag.String("output", "", "Output directory (default: efit-out)")

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
	cfg.Resolve(config.Flags{SceneDB: *dbPath, OutputDir: *outputDir})

	objName := *name
	if objName == "" {
		switch {
		case *input != "":
			objName = scene.ObjectName(*input)
		case cfg.ClothingOBJ != "":
			objName = scene.ObjectName(cfg.ClothingOBJ)
		default:
			fmt.Fprintln(os.Stderr, "Error: -in, -name or clothing_obj is required.")
			os.Exit(1)
		}
	}
	in := *input
	if in == "" {
		in = filepath.Join(cfg.OutputDir, objName+".obj")
	}
	out := *outPath
	if out == "" {
		out = in
	}

	db, err := scenedb.Open(cfg.SceneDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	clothing, err := scene.LoadClothing(db, in, "", objName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", in, err)
		os.Exit(1)
	}
	_, hadSnapshot := clothing.Meta[fit.MetaOriginals]

	if err := fit.New(nil).RemoveFit(clothing); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := scene.SaveClothing(db, clothing, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	n, err := db.MarkRemoved(clothing.Name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: history: %v\n", err)
	}

	if hadSnapshot {
		fmt.Printf("Removed fit from %s (%d history entries): %s\n", clothing.Name, n, out)
	} else {
		fmt.Printf("%s had no stored pre-fit positions; fit modifiers removed: %s\n", clothing.Name, out)
	}
}
