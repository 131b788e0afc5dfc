package fit

import (
	"fmt"
	"math"

	"elastic-fit/internal/meshops"
)

// Params are the user-facing fit settings.
type Params struct {
	FitAmount      float64 `json:"fit_amount"`
	Offset         float64 `json:"offset"`
	ProxyTriangles int     `json:"proxy_triangles"`
	PreserveUVs    bool    `json:"preserve_uvs"`
	PreserveGroup  string  `json:"preserve_group"`
	Cleanup        bool    `json:"cleanup"`

	// Displacement smoothing.
	DispSmoothPasses    int     `json:"disp_smooth_passes"`
	DispSmoothThreshold float64 `json:"disp_smooth_threshold"`
	DispSmoothMin       float64 `json:"disp_smooth_min"`
	DispSmoothMax       float64 `json:"disp_smooth_max"`

	// Preserved vertex follow.
	FollowStrength  float64 `json:"follow_strength"`
	FollowNeighbors int     `json:"follow_neighbors"`

	// Post-processing run on commit.
	SmoothFactor        float64      `json:"smooth_factor"`
	SmoothIterations    int          `json:"smooth_iterations"`
	PostSymmetrize      bool         `json:"post_symmetrize"`
	SymmetrizeAxis      meshops.Axis `json:"symmetrize_axis"`
	PostLaplacian       bool         `json:"post_laplacian"`
	LaplacianFactor     float64      `json:"laplacian_factor"`
	LaplacianIterations int          `json:"laplacian_iterations"`
}

// DefaultParams returns the stock settings.
func DefaultParams() Params {
	return Params{
		FitAmount:      0.65,
		Offset:         0.001,
		ProxyTriangles: 300000,
		PreserveUVs:    true,
		Cleanup:        true,

		DispSmoothPasses:    15,
		DispSmoothThreshold: 2.0,
		DispSmoothMin:       0.05,
		DispSmoothMax:       0.80,

		FollowStrength:  1.0,
		FollowNeighbors: 8,

		SmoothFactor:        0.75,
		SmoothIterations:    10,
		SymmetrizeAxis:      meshops.PositiveX,
		LaplacianFactor:     0.25,
		LaplacianIterations: 1,
	}
}

// Range is an inclusive numeric bound.
type Range struct {
	Min, Max float64
}

func (r Range) clamp(v float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, v))
}

func (r Range) contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Ranges holds the valid interval of every numeric field.
var Ranges = map[Field]Range{
	FieldFitAmount:           {0, 1},
	FieldOffset:              {0, 0.5},
	FieldProxyTriangles:      {10000, 2000000},
	FieldSmoothFactor:        {0, 2},
	FieldSmoothIterations:    {0, 100},
	FieldLaplacianFactor:     {0, 10},
	FieldLaplacianIterations: {1, 50},
	FieldFollowStrength:      {0, 1},
	FieldDispSmoothPasses:    {0, 50},
	FieldDispSmoothThreshold: {0.5, 10},
	FieldDispSmoothMin:       {0, 1},
	FieldDispSmoothMax:       {0, 1},
	FieldFollowNeighbors:     {1, 32},
}

// Validate checks every field against its range. The returned error is a
// *ValidationError naming the first offending field.
func (p Params) Validate() error {
	for _, f := range Fields {
		r, ok := Ranges[f]
		if !ok {
			continue
		}
		v, _ := p.number(f)
		if math.IsNaN(v) || !r.contains(v) {
			return &ValidationError{
				Subject: f.String(),
				Reason:  fmt.Sprintf("%g outside [%g, %g]", v, r.Min, r.Max),
			}
		}
	}
	if p.DispSmoothMin > p.DispSmoothMax {
		return &ValidationError{
			Subject: FieldDispSmoothMin.String(),
			Reason:  fmt.Sprintf("min blend %g exceeds max blend %g", p.DispSmoothMin, p.DispSmoothMax),
		}
	}
	if !p.SymmetrizeAxis.Valid() {
		return &ValidationError{Subject: FieldSymmetrizeAxis.String(), Reason: fmt.Sprintf("unknown axis %q", p.SymmetrizeAxis)}
	}
	return nil
}

// Clamp returns p with every numeric field pulled into its range and
// an unknown symmetrize axis replaced by the default.
func (p Params) Clamp() Params {
	for f, r := range Ranges {
		v, _ := p.number(f)
		if math.IsNaN(v) {
			v = r.Min
		}
		p.setNumber(f, r.clamp(v))
	}
	if p.DispSmoothMin > p.DispSmoothMax {
		p.DispSmoothMin = p.DispSmoothMax
	}
	if !p.SymmetrizeAxis.Valid() {
		p.SymmetrizeAxis = meshops.PositiveX
	}
	return p
}

// Smoother returns the displacement smoother configured by p.
func (p Params) Smoother() Smoother {
	return Smoother{
		Passes:              p.DispSmoothPasses,
		ThresholdMultiplier: p.DispSmoothThreshold,
		MinBlend:            p.DispSmoothMin,
		MaxBlend:            p.DispSmoothMax,
	}
}

// PostOptions returns the commit-time post-processing settings of p.
func (p Params) PostOptions() PostOptions {
	return PostOptions{
		SmoothFactor:        p.SmoothFactor,
		SmoothIterations:    p.SmoothIterations,
		Symmetrize:          p.PostSymmetrize,
		SymmetrizeAxis:      p.SymmetrizeAxis,
		Laplacian:           p.PostLaplacian,
		LaplacianFactor:     p.LaplacianFactor,
		LaplacianIterations: p.LaplacianIterations,
	}
}

func (p *Params) number(f Field) (float64, bool) {
	switch f {
	case FieldFitAmount:
		return p.FitAmount, true
	case FieldOffset:
		return p.Offset, true
	case FieldProxyTriangles:
		return float64(p.ProxyTriangles), true
	case FieldSmoothFactor:
		return p.SmoothFactor, true
	case FieldSmoothIterations:
		return float64(p.SmoothIterations), true
	case FieldLaplacianFactor:
		return p.LaplacianFactor, true
	case FieldLaplacianIterations:
		return float64(p.LaplacianIterations), true
	case FieldFollowStrength:
		return p.FollowStrength, true
	case FieldDispSmoothPasses:
		return float64(p.DispSmoothPasses), true
	case FieldDispSmoothThreshold:
		return p.DispSmoothThreshold, true
	case FieldDispSmoothMin:
		return p.DispSmoothMin, true
	case FieldDispSmoothMax:
		return p.DispSmoothMax, true
	case FieldFollowNeighbors:
		return float64(p.FollowNeighbors), true
	}
	return 0, false
}

func (p *Params) setNumber(f Field, v float64) bool {
	switch f {
	case FieldFitAmount:
		p.FitAmount = v
	case FieldOffset:
		p.Offset = v
	case FieldProxyTriangles:
		p.ProxyTriangles = int(math.Round(v))
	case FieldSmoothFactor:
		p.SmoothFactor = v
	case FieldSmoothIterations:
		p.SmoothIterations = int(math.Round(v))
	case FieldLaplacianFactor:
		p.LaplacianFactor = v
	case FieldLaplacianIterations:
		p.LaplacianIterations = int(math.Round(v))
	case FieldFollowStrength:
		p.FollowStrength = v
	case FieldDispSmoothPasses:
		p.DispSmoothPasses = int(math.Round(v))
	case FieldDispSmoothThreshold:
		p.DispSmoothThreshold = v
	case FieldDispSmoothMin:
		p.DispSmoothMin = v
	case FieldDispSmoothMax:
		p.DispSmoothMax = v
	case FieldFollowNeighbors:
		p.FollowNeighbors = int(math.Round(v))
	default:
		return false
	}
	return true
}
