package batch

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one frame in the output manifest.
type ManifestEntry struct {
	Index           int     `json:"index"`
	Field           string  `json:"field"`
	Value           float64 `json:"value"`
	Image           string  `json:"image"`
	MaxDisplacement float64 `json:"max_displacement"`
}

// Manifest is the sweep description written next to the frames.
type Manifest struct {
	Object string          `json:"object"`
	Body   string          `json:"body"`
	Frames []ManifestEntry `json:"frames"`
}

// WriteManifest writes the successful results to path as JSON.
func WriteManifest(path, object, body string, results []Result) error {
	m := Manifest{Object: object, Body: body, Frames: []ManifestEntry{}}
	for _, r := range results {
		if !r.Success {
			continue
		}
		m.Frames = append(m.Frames, ManifestEntry{
			Index:           r.Index,
			Field:           r.Field,
			Value:           r.Value,
			Image:           r.Image,
			MaxDisplacement: r.MaxDisplacement,
		})
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
