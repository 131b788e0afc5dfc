package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"elastic-fit/internal/fit"
	"elastic-fit/internal/mesh"
	"elastic-fit/internal/monitoring"
	"elastic-fit/internal/scene"
	"elastic-fit/internal/scenedb"
)

func main() {
	dbPath := flag.String("db", "", "Scene database to read stored state and fit history from")
	proxy := flag.Int("proxy", fit.DefaultParams().ProxyTriangles, "Proxy triangle target used for the subdivision estimate")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: inspect [-db efit.db] [-proxy N] mesh.obj ...")
		os.Exit(1)
	}
	monitoring.SetLogger(nil)

	var db *scenedb.DB
	if *dbPath != "" {
		var err error
		db, err = scenedb.Open(*dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	for _, path := range flag.Args() {
		obj, err := scene.LoadObject(path, "")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		describe(obj, *proxy)
		if db != nil {
			history(db, obj)
		}
	}
}

func describe(obj *mesh.Object, proxy int) {
	m := obj.Mesh
	lo, hi := m.Bounds()
	tris := m.TriangleCount()
	level := fit.CalcSubdivisions(tris, proxy)

	fmt.Printf("%s: verts=%d, edges=%d, faces=%d, tris=%d\n", obj.Name, len(m.Verts), len(m.Edges), len(m.Faces), tris)
	fmt.Printf("  BBox: X[%.3f, %.3f] Y[%.3f, %.3f] Z[%.3f, %.3f]\n", lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])
	fmt.Printf("  Size: %.3f x %.3f x %.3f\n", hi[0]-lo[0], hi[1]-lo[1], hi[2]-lo[2])
	fmt.Printf("  Proxy at %d: %d subdivisions → %d triangles\n", proxy, level, proxyTriangles(m, level))

	boundary := 0
	for _, b := range m.BoundaryVertices() {
		if b {
			boundary++
		}
	}
	fmt.Printf("  Boundary vertices: %d\n", boundary)

	for _, l := range m.UVLayers {
		fmt.Printf("  UV layer %q: %d corners\n", l.Name, len(l.UVs))
	}

	names := make([]string, 0, len(m.Groups))
	for name := range m.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		g := m.Groups[name]
		weighted := 0
		for _, vi := range g.Indices() {
			if g.Weight(vi) > 0 {
				weighted++
			}
		}
		fmt.Printf("  Group %q: %d weighted vertices\n", name, weighted)
	}

	// Surface area by dominant normal direction
	areaByDir := map[string]float64{}
	for _, t := range m.Triangulate() {
		a, b, c := m.Verts[t.V[0]], m.Verts[t.V[1]], m.Verts[t.V[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		areaByDir[direction(n)] += 0.5 * n.Len()
	}
	fmt.Println("  --- Surface area by direction ---")
	for _, d := range []string{"-Y(front)", "+Y(back)", "+X(right)", "-X(left)", "+Z(top)", "-Z(bottom)"} {
		fmt.Printf("  %s: %.4f sq units\n", d, areaByDir[d])
	}
}

// proxyTriangles is the triangle count after level simple subdivisions:
// an n-gon becomes n quads, and every later level multiplies quads by 4.
func proxyTriangles(m *mesh.Mesh, level int) int {
	if level == 0 {
		return m.TriangleCount()
	}
	quads := 0
	for _, f := range m.Faces {
		if len(f) >= 3 {
			quads += len(f)
		}
	}
	for i := 1; i < level; i++ {
		quads *= 4
	}
	return quads * 2
}

func direction(n [3]float64) string {
	ax, ay, az := math.Abs(n[0]), math.Abs(n[1]), math.Abs(n[2])
	switch {
	case ax >= ay && ax >= az:
		if n[0] > 0 {
			return "+X(right)"
		}
		return "-X(left)"
	case ay >= ax && ay >= az:
		if n[1] > 0 {
			return "+Y(back)"
		}
		return "-Y(front)"
	}
	if n[2] > 0 {
		return "+Z(top)"
	}
	return "-Z(bottom)"
}

func history(db *scenedb.DB, obj *mesh.Object) {
	err := db.LoadObject(obj)
	switch {
	case errors.Is(err, scenedb.ErrNotFound):
		fmt.Println("  No stored state.")
		return
	case err != nil:
		fmt.Printf("  Error: %v\n", err)
		return
	}

	keys, mods := fit.Blockers(obj)
	fmt.Printf("  Stored: %d modifiers, %d shape keys", len(obj.Modifiers), len(obj.ShapeKeys))
	if keys > 0 || len(mods) > 0 {
		fmt.Printf(" (blockers: %d shape keys, modifiers %v)", keys, mods)
	}
	fmt.Println()
	if snap, ok := obj.Meta[fit.MetaOriginals]; ok {
		fmt.Printf("  Pre-fit snapshot: %d vertices\n", len(snap)/3)
	}

	recs, err := db.FitHistory(obj.Name)
	if err != nil {
		fmt.Printf("  Error: %v\n", err)
		return
	}
	for _, r := range recs {
		fmt.Printf("  %s  %-9s body=%s amount=%.2f offset=%.4f proxy=%d fitted=%d preserved=%d\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Status, r.Body,
			r.Params.FitAmount, r.Params.Offset, r.ProxyTriangles, r.Fitted, r.Preserved)
	}
}
