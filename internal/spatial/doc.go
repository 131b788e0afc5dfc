// Package spatial provides the nearest-neighbour and nearest-surface
// queries used by the fitting pipeline.
//
// PointIndex wraps a gonum k-d tree over a fixed point set and answers
// nearest and k-nearest queries that report indices back into the input
// slice. SurfaceIndex is a bounding volume hierarchy over fan-triangulated
// polygons and answers closest-point-on-surface queries that report the
// source polygon, the closest location and the face normal.
package spatial
