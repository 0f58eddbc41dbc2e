package metric

import "testing"

func TestGraph(t *testing.T) {
	g := NewGraph(map[[2]string]float64{
		{"a", "b"}: 2.0,
		{"b", "c"}: 4.0,
	})

	t.Run("inverse edges", func(t *testing.T) {
		forward, ok := g.Weight("a", "b")
		if !ok || forward != 2.0 {
			t.Errorf("Weight(a, b) = %g, %t; want 2, true", forward, ok)
		}
		backward, ok := g.Weight("b", "a")
		if !ok || backward != 0.5 {
			t.Errorf("Weight(b, a) = %g, %t; want 0.5, true", backward, ok)
		}
	})

	t.Run("missing edge", func(t *testing.T) {
		if _, ok := g.Weight("a", "c"); ok {
			t.Error("Weight(a, c) should not be defined")
		}
	})

	t.Run("nodes are sorted", func(t *testing.T) {
		nodes := g.Nodes()
		want := []string{"a", "b", "c"}
		if !sameStrings(nodes, want) {
			t.Errorf("Nodes() = %v, want %v", nodes, want)
		}
	})

	t.Run("adjacencies", func(t *testing.T) {
		edges := g.Adjacencies("b")
		if len(edges) != 2 {
			t.Fatalf("Adjacencies(b) has %d edges, want 2", len(edges))
		}
		if edges[0].Unit != "a" || edges[0].Weight != 0.5 {
			t.Errorf("first edge = %+v, want a at 0.5", edges[0])
		}
		if edges[1].Unit != "c" || edges[1].Weight != 4.0 {
			t.Errorf("second edge = %+v, want c at 4", edges[1])
		}
	})

	t.Run("unknown node", func(t *testing.T) {
		if g.HasNode("z") {
			t.Error("HasNode(z) = true, want false")
		}
		if edges := g.Adjacencies("z"); edges != nil {
			t.Errorf("Adjacencies(z) = %v, want nil", edges)
		}
	})
}
