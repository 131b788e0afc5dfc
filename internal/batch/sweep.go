package batch

import (
	"fmt"

	"elastic-fit/internal/fit"
)

// Sweep drives the active preview through values of field on the calling
// goroutine and snapshots the clothing geometry after each update. The
// fitter is left at the last value.
func Sweep(f *fit.Fitter, field fit.Field, values []float64) ([]Job, error) {
	s := f.Session()
	if s == nil {
		return nil, &fit.SessionStateError{Op: "sweep"}
	}
	if !field.Preview() {
		return nil, fmt.Errorf("batch: %s does not affect the preview", field)
	}

	jobs := make([]Job, 0, len(values))
	for i, v := range values {
		p := f.Params()
		if err := p.Set(field, v); err != nil {
			return nil, err
		}
		if err := f.UpdateParams(p); err != nil {
			return nil, err
		}
		jobs = append(jobs, Job{
			Index:    i,
			Field:    field.String(),
			Value:    v,
			Clothing: s.Object.Mesh.CloneGeometry(),
		})
	}
	return jobs, nil
}

// Steps returns n evenly spaced values from lo to hi inclusive.
func Steps(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}
