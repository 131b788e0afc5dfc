package fit

// Adjacency lists, per fitted slot, the slots of fitted vertices sharing
// a clothing edge with it. Edges touching a preserved vertex are left out
// so smoothing never crosses into the preserved region.
type Adjacency [][]int

// BuildAdjacency derives the fitted-only adjacency from edges.
func BuildAdjacency(edges [][2]int, c Classification) Adjacency {
	adj := make(Adjacency, len(c.Fitted))
	for _, e := range edges {
		a, b := e[0], e[1]
		if a == b || a < 0 || b < 0 || a >= len(c.Slot) || b >= len(c.Slot) {
			continue
		}
		sa, sb := c.Slot[a], c.Slot[b]
		if sa < 0 || sb < 0 {
			continue
		}
		adj[sa] = append(adj[sa], sb)
		adj[sb] = append(adj[sb], sa)
	}
	return adj
}
