package metric

import "sort"

// Graph is a weighted directed graph of unit conversions. Adding an
// edge automatically adds the inverse edge with the reciprocal weight.
type Graph struct {
	adjacencies map[string]map[string]float64
}

// NewGraph returns a graph containing the given edges and their
// inverses.
func NewGraph(edges map[[2]string]float64) *Graph {
	g := &Graph{adjacencies: map[string]map[string]float64{}}
	for pair, weight := range edges {
		g.Add(pair[0], pair[1], weight)
	}
	return g
}

// Add inserts the edge from u0 to u1 with the given weight, along with
// the inverse edge from u1 to u0.
func (g *Graph) Add(u0, u1 string, weight float64) {
	g.insert(u0, u1, weight)
	g.insert(u1, u0, 1.0/weight)
}

func (g *Graph) insert(u0, u1 string, weight float64) {
	if g.adjacencies[u0] == nil {
		g.adjacencies[u0] = map[string]float64{}
	}
	g.adjacencies[u0][u1] = weight
}

// HasNode reports whether any edge starts or ends at the given unit.
func (g *Graph) HasNode(unit string) bool {
	_, ok := g.adjacencies[unit]
	return ok
}

// Nodes returns all units in the graph, sorted for deterministic
// traversal.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, len(g.adjacencies))
	for node := range g.adjacencies {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	return nodes
}

// Weight returns the weight of the edge from u0 to u1, if it exists.
func (g *Graph) Weight(u0, u1 string) (float64, bool) {
	weight, ok := g.adjacencies[u0][u1]
	return weight, ok
}

// Adjacencies returns the neighbors of the given unit and the weight of
// each connecting edge, in sorted order.
func (g *Graph) Adjacencies(unit string) []Edge {
	neighbors := g.adjacencies[unit]
	edges := make([]Edge, 0, len(neighbors))
	for node, weight := range neighbors {
		edges = append(edges, Edge{Unit: node, Weight: weight})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Unit < edges[j].Unit })
	return edges
}

// Edge is a single weighted conversion from one unit to another.
type Edge struct {
	Unit   string
	Weight float64
}
