package fit

import (
	"fmt"

	"elastic-fit/internal/mesh"
	"elastic-fit/internal/meshops"
)

// Project shrink-wraps the proxy onto body, recording Pre and Post.
// The proxy mesh itself keeps its pre-projection positions.
func Project(ops meshops.MeshOps, p *Proxy, body *mesh.Mesh, offset float64) error {
	p.Pre = p.Mesh.Positions()
	post := ops.ProjectOntoSurface(p.Pre, body, meshops.ProjectOptions{
		Offset: offset,
		Method: meshops.NearestSurfacePoint,
		Mode:   meshops.OutsideSurface,
	})
	if len(post) != len(p.Pre) {
		return fmt.Errorf("fit: projection returned %d points for %d proxy vertices", len(post), len(p.Pre))
	}
	p.Post = post
	return nil
}
