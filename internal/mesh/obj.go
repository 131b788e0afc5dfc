package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/g3n/engine/loader/obj"

	"elastic-fit/internal/mathutil"
)

// DefaultUVLayer is the layer name used for OBJ texture coordinates.
const DefaultUVLayer = "UVMap"

// LoadOBJ reads a Wavefront OBJ file. Every object and group in the file
// is merged into one mesh; materials are ignored.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: open %s: %w", path, err)
	}
	defer f.Close()

	m, err := ReadOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("mesh: parse %s: %w", path, err)
	}
	return m, nil
}

// ReadOBJ decodes OBJ data from r. Face corners carry texture
// coordinates into a DefaultUVLayer only when every corner has one.
func ReadOBJ(r io.Reader) (*Mesh, error) {
	dec, err := obj.DecodeReader(r, strings.NewReader(""))
	if err != nil {
		return nil, err
	}

	nv := len(dec.Vertices) / 3
	nt := len(dec.Uvs) / 2
	m := &Mesh{Verts: make([]mathutil.Vec3, nv)}
	for i := range m.Verts {
		m.Verts[i] = mathutil.Vec3{
			float64(dec.Vertices[3*i]),
			float64(dec.Vertices[3*i+1]),
			float64(dec.Vertices[3*i+2]),
		}
	}

	var cornerUVs [][2]float64
	hasUV := nt > 0
	for oi := range dec.Objects {
		for _, face := range dec.Objects[oi].Faces {
			poly := make([]int, len(face.Vertices))
			for k, vi := range face.Vertices {
				if vi < 0 || vi >= nv {
					return nil, fmt.Errorf("object %q: vertex index %d out of range (%d vertices)", dec.Objects[oi].Name, vi+1, nv)
				}
				poly[k] = vi

				ti := -1
				if k < len(face.Uvs) {
					ti = face.Uvs[k]
				}
				if ti < 0 || ti >= nt {
					hasUV = false
					cornerUVs = append(cornerUVs, [2]float64{})
					continue
				}
				cornerUVs = append(cornerUVs, [2]float64{float64(dec.Uvs[2*ti]), float64(dec.Uvs[2*ti+1])})
			}
			m.Faces = append(m.Faces, poly)
		}
	}

	if hasUV && len(m.Faces) > 0 {
		m.UVLayers = []UVLayer{{Name: DefaultUVLayer, UVs: cornerUVs}}
	}
	m.EnsureEdges()
	return m, nil
}

// SaveOBJ writes m as OBJ. The first UV layer, if any, is written as vt
// records with one entry per face corner. The g3n loader has no encoder,
// so records are formatted directly.
func SaveOBJ(path string, m *Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mesh: create %s: %w", path, err)
	}
	if err := WriteOBJ(f, m); err != nil {
		f.Close()
		return fmt.Errorf("mesh: write %s: %w", path, err)
	}
	return f.Close()
}

// WriteOBJ serialises m to w.
func WriteOBJ(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)
	for _, v := range m.Verts {
		fmt.Fprintf(bw, "v %s %s %s\n", ftoa(v[0]), ftoa(v[1]), ftoa(v[2]))
	}

	var uvs [][2]float64
	if len(m.UVLayers) > 0 && len(m.UVLayers[0].UVs) == m.CornerCount() {
		uvs = m.UVLayers[0].UVs
		for _, uv := range uvs {
			fmt.Fprintf(bw, "vt %s %s\n", ftoa(uv[0]), ftoa(uv[1]))
		}
	}

	corner := 0
	for _, face := range m.Faces {
		bw.WriteString("f")
		for _, vi := range face {
			if uvs != nil {
				fmt.Fprintf(bw, " %d/%d", vi+1, corner+1)
			} else {
				fmt.Fprintf(bw, " %d", vi+1)
			}
			corner++
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
