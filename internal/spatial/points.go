package spatial

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"elastic-fit/internal/mathutil"
)

// Neighbor is one result of a point query. Index refers to the slice the
// PointIndex was built from.
type Neighbor struct {
	Index int
	Point mathutil.Vec3
	Dist  float64
}

// PointIndex accelerates nearest neighbour queries over a fixed point set.
// The zero value (or one built from no points) answers every query with
// no result.
type PointIndex struct {
	tree *kdtree.Tree
	n    int
}

// NewPointIndex builds a k-d tree over pts. pts is copied.
func NewPointIndex(pts []mathutil.Vec3) *PointIndex {
	if len(pts) == 0 {
		return &PointIndex{}
	}
	items := make(kdPoints, len(pts))
	for i, p := range pts {
		items[i] = kdPoint{p: p, idx: i}
	}
	return &PointIndex{tree: kdtree.New(items, false), n: len(pts)}
}

// Len returns the number of indexed points.
func (pi *PointIndex) Len() int {
	if pi == nil {
		return 0
	}
	return pi.n
}

// Nearest returns the closest indexed point to q.
func (pi *PointIndex) Nearest(q mathutil.Vec3) (Neighbor, bool) {
	if pi.Len() == 0 {
		return Neighbor{}, false
	}
	c, d2 := pi.tree.Nearest(kdPoint{p: q, idx: -1})
	if c == nil {
		return Neighbor{}, false
	}
	p := c.(kdPoint)
	return Neighbor{Index: p.idx, Point: p.p, Dist: math.Sqrt(d2)}, true
}

// KNearest returns up to k closest points to q sorted by distance
// (ties by index). k is clamped to the number of indexed points.
func (pi *PointIndex) KNearest(q mathutil.Vec3, k int) []Neighbor {
	if k <= 0 || pi.Len() == 0 {
		return nil
	}
	if k > pi.n {
		k = pi.n
	}
	keep := kdtree.NewNKeeper(k)
	pi.tree.NearestSet(keep, kdPoint{p: q, idx: -1})

	out := make([]Neighbor, 0, k)
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		p := cd.Comparable.(kdPoint)
		out = append(out, Neighbor{Index: p.idx, Point: p.p, Dist: math.Sqrt(cd.Dist)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dist != out[j].Dist {
			return out[i].Dist < out[j].Dist
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// kdPoint is a position tagged with its index in the source slice.
type kdPoint struct {
	p   mathutil.Vec3
	idx int
}

func (a kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	b := c.(kdPoint)
	return a.p[d] - b.p[d]
}

func (a kdPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance, as kdtree expects.
func (a kdPoint) Distance(c kdtree.Comparable) float64 {
	b := c.(kdPoint)
	return a.p.Sub(b.p).LenSq()
}

type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p kdPoints) Len() int                      { return len(p) }
func (p kdPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

// Pivot partitions the list about the median along d.
func (p kdPoints) Pivot(d kdtree.Dim) int {
	plane := kdPlane{dim: d, points: p}
	return kdtree.Partition(plane, kdtree.MedianOfMedians(plane))
}

type kdPlane struct {
	dim    kdtree.Dim
	points kdPoints
}

func (p kdPlane) Less(i, j int) bool {
	return p.points[i].p[p.dim] < p.points[j].p[p.dim]
}
func (p kdPlane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}
func (p kdPlane) Len() int { return len(p.points) }
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
