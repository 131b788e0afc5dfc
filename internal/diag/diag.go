// Package diag reports on a fit session: displacement and gradient
// statistics and histogram plots used to tune the adaptive smoother.
package diag

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"elastic-fit/internal/fit"
	"elastic-fit/internal/mathutil"
)

// Summary describes the raw transferred field of a session.
type Summary struct {
	Slots            int     `json:"slots"`
	MedianGradient   float64 `json:"median_gradient"`
	MaxGradient      float64 `json:"max_gradient"`
	Threshold        float64 `json:"threshold"`
	Steep            int     `json:"steep"` // slots above Threshold
	MeanDisplacement float64 `json:"mean_displacement"`
	MaxDisplacement  float64 `json:"max_displacement"`
}

// Summarize computes a Summary of s's raw field under p's smoother.
func Summarize(s *fit.Session, p fit.Params) Summary {
	grad := fit.Gradients(s.Raw, s.Adj)
	mags := Magnitudes(s.Raw)

	sum := Summary{Slots: len(s.Raw)}
	sum.MedianGradient = fit.Median(grad)
	sum.Threshold = p.Smoother().Threshold(sum.MedianGradient)
	for _, g := range grad {
		if g > sum.Threshold {
			sum.Steep++
		}
	}
	if len(grad) > 0 {
		sum.MaxGradient = floats.Max(grad)
	}
	if len(mags) > 0 {
		sum.MeanDisplacement = floats.Sum(mags) / float64(len(mags))
		sum.MaxDisplacement = floats.Max(mags)
	}
	return sum
}

// Magnitudes returns the length of every vector in field.
func Magnitudes(field []mathutil.Vec3) []float64 {
	out := make([]float64, len(field))
	for i, d := range field {
		out[i] = d.Len()
	}
	return out
}

// Distances returns |pos[i] - rest[i]| for every vertex.
func Distances(pos, rest []mathutil.Vec3) []float64 {
	n := min(len(pos), len(rest))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = pos[i].Dist(rest[i])
	}
	return out
}

// SturgesBins returns ceil(log2 n) + 1, the default histogram bin count
// for n values.
func SturgesBins(n int) int {
	if n < 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// ErrNoData is returned when a histogram has no values.
var ErrNoData = errors.New("diag: no values to plot")

// Histogram plots vals in bins buckets. A non-positive bins picks a count
// by Sturges' rule. When marker is positive a vertical line is drawn at
// that value.
func Histogram(title, xlabel string, vals []float64, bins int, marker float64) (*plot.Plot, error) {
	if len(vals) == 0 {
		return nil, ErrNoData
	}
	if bins <= 0 {
		bins = SturgesBins(len(vals))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "Count"

	h, err := plotter.NewHist(plotter.Values(vals), bins)
	if err != nil {
		return nil, fmt.Errorf("diag: histogram %q: %w", title, err)
	}
	h.FillColor = color.RGBA{R: 70, G: 110, B: 170, A: 255}
	p.Add(h)

	if marker > 0 {
		var top float64
		for _, b := range h.Bins {
			top = math.Max(top, b.Weight)
		}
		line, err := plotter.NewLine(plotter.XYs{{X: marker, Y: 0}, {X: marker, Y: top}})
		if err != nil {
			return nil, err
		}
		line.Color = color.RGBA{R: 200, G: 40, B: 40, A: 255}
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("threshold %.3g", marker), line)
		p.Legend.Top = true
	}
	return p, nil
}

// GradientHistogram plots the raw field's gradients with the smoother's
// threshold marked.
func GradientHistogram(s *fit.Session, p fit.Params, bins int) (*plot.Plot, error) {
	grad := fit.Gradients(s.Raw, s.Adj)
	threshold := p.Smoother().Threshold(fit.Median(grad))
	return Histogram(fmt.Sprintf("%s - displacement gradient", s.Object.Name), "Gradient", grad, bins, threshold)
}

// DisplacementHistogram plots how far each vertex moved from rest.
func DisplacementHistogram(name string, pos, rest []mathutil.Vec3, bins int) (*plot.Plot, error) {
	return Histogram(fmt.Sprintf("%s - displacement", name), "Distance", Distances(pos, rest), bins, 0)
}

// Save writes p to path; the format follows the extension (.png, .svg,
// .pdf).
func Save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("diag: create dir for %s: %w", path, err)
	}
	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("diag: save %s: %w", path, err)
	}
	return nil
}
