package batch

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"elastic-fit/internal/mathutil"
	"elastic-fit/internal/mesh"
	"elastic-fit/internal/preview"
)

// Config holds all shared resources for a batch run. Body and Rest are
// read concurrently and must not be modified while Run is active.
type Config struct {
	OutputDir string
	Format    string
	Body      *mesh.Mesh
	Rest      []mathutil.Vec3
	Preview   preview.Options
	Workers   int
}

// Job is one already-computed clothing pose to render.
type Job struct {
	Index    int
	Field    string
	Value    float64
	Clothing *mesh.Mesh
}

// Result holds the outcome of processing one job.
type Result struct {
	Index           int
	Field           string
	Value           float64
	Image           string // path relative to OutputDir
	MaxDisplacement float64
	Success         bool
	Error           string
}

// Run renders and encodes all jobs using a worker pool.
func Run(cfg Config, jobs []Job) []Result {
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					fmt.Printf("  [%d/%d] %.1f frames/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processJob(cfg, jobs[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

// FrameName is the output file name of frame index in format.
func FrameName(index int, format string) string {
	return fmt.Sprintf("frame_%04d.%s", index, format)
}

func processJob(cfg Config, job Job) Result {
	res := Result{Index: job.Index, Field: job.Field, Value: job.Value}
	if job.Clothing == nil || len(job.Clothing.Verts) == 0 {
		res.Error = "empty clothing mesh"
		return res
	}

	if len(cfg.Rest) == len(job.Clothing.Verts) {
		for i, p := range job.Clothing.Verts {
			res.MaxDisplacement = max(res.MaxDisplacement, p.Dist(cfg.Rest[i]))
		}
	}

	img := preview.Frame(cfg.Body, job.Clothing, cfg.Rest, cfg.Preview)

	res.Image = FrameName(job.Index, cfg.Format)
	if err := preview.Save(filepath.Join(cfg.OutputDir, res.Image), img); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}
