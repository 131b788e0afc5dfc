package config

import (
	"fmt"

	"elastic-fit/internal/fit"
	"elastic-fit/internal/meshops"
)

// FitConfig is the "fit" block of the config file. Fields are pointers so
// an explicit zero (for example "fit_amount": 0) is told apart from an
// omitted field, which keeps its default.
type FitConfig struct {
	FitAmount      *float64 `json:"fit_amount,omitempty"`
	Offset         *float64 `json:"offset,omitempty"`
	ProxyTriangles *int     `json:"proxy_triangles,omitempty"`
	PreserveUVs    *bool    `json:"preserve_uvs,omitempty"`
	PreserveGroup  *string  `json:"preserve_group,omitempty"`
	Cleanup        *bool    `json:"cleanup,omitempty"`

	DispSmoothPasses    *int     `json:"disp_smooth_passes,omitempty"`
	DispSmoothThreshold *float64 `json:"disp_smooth_threshold,omitempty"`
	DispSmoothMin       *float64 `json:"disp_smooth_min,omitempty"`
	DispSmoothMax       *float64 `json:"disp_smooth_max,omitempty"`

	FollowStrength  *float64 `json:"follow_strength,omitempty"`
	FollowNeighbors *int     `json:"follow_neighbors,omitempty"`

	SmoothFactor        *float64 `json:"smooth_factor,omitempty"`
	SmoothIterations    *int     `json:"smooth_iterations,omitempty"`
	PostSymmetrize      *bool    `json:"post_symmetrize,omitempty"`
	SymmetrizeAxis      *string  `json:"symmetrize_axis,omitempty"`
	PostLaplacian       *bool    `json:"post_laplacian,omitempty"`
	LaplacianFactor     *float64 `json:"laplacian_factor,omitempty"`
	LaplacianIterations *int     `json:"laplacian_iterations,omitempty"`
}

// Params overlays the set fields on the default fit parameters.
func (f FitConfig) Params() fit.Params {
	return f.Apply(fit.DefaultParams())
}

// Apply overlays the set fields on p.
func (f FitConfig) Apply(p fit.Params) fit.Params {
	setF := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setI := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setB := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}

	setF(&p.FitAmount, f.FitAmount)
	setF(&p.Offset, f.Offset)
	setI(&p.ProxyTriangles, f.ProxyTriangles)
	setB(&p.PreserveUVs, f.PreserveUVs)
	if f.PreserveGroup != nil {
		p.PreserveGroup = *f.PreserveGroup
	}
	setB(&p.Cleanup, f.Cleanup)

	setI(&p.DispSmoothPasses, f.DispSmoothPasses)
	setF(&p.DispSmoothThreshold, f.DispSmoothThreshold)
	setF(&p.DispSmoothMin, f.DispSmoothMin)
	setF(&p.DispSmoothMax, f.DispSmoothMax)

	setF(&p.FollowStrength, f.FollowStrength)
	setI(&p.FollowNeighbors, f.FollowNeighbors)

	setF(&p.SmoothFactor, f.SmoothFactor)
	setI(&p.SmoothIterations, f.SmoothIterations)
	setB(&p.PostSymmetrize, f.PostSymmetrize)
	if f.SymmetrizeAxis != nil {
		p.SymmetrizeAxis = meshops.Axis(*f.SymmetrizeAxis)
	}
	setB(&p.PostLaplacian, f.PostLaplacian)
	setF(&p.LaplacianFactor, f.LaplacianFactor)
	setI(&p.LaplacianIterations, f.LaplacianIterations)
	return p
}

// Validate checks the overlaid parameters against their ranges.
func (f FitConfig) Validate() error {
	if err := f.Params().Validate(); err != nil {
		return fmt.Errorf("fit block: %w", err)
	}
	return nil
}
