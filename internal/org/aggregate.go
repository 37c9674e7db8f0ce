package org

import (
	"cmp"
	"slices"
	"strconv"
)

// AggregatedGraph is a Graph whose root and unit vertices carry descendant
// account counts. It can only be produced by Annotate, and it is the only
// graph type that can be pruned, so counts are always taken from the full
// tree.
type AggregatedGraph struct {
	graph  *Graph
	counts map[string]int
}

// Vertex is a read only view of a vertex for renderers. DescendantAccounts
// is always present, HasCount tells a real zero apart from an account.
type Vertex struct {
	Node               `yaml:",inline"`
	Label              string `json:"label" yaml:"label"`
	DescendantAccounts int    `json:"descendant_accounts" yaml:"descendant_accounts"`
	HasCount           bool   `json:"has_count" yaml:"has_count"`
}

// Annotate computes the number of descendant accounts of every root and
// unit vertex. It takes ownership of g.
//
// Vertices are visited deepest first so every child count is known before
// its parent: count(u) = direct account children + sum of child unit counts.
func Annotate(g *Graph) *AggregatedGraph {
	ids := slices.Clone(g.order)
	slices.SortStableFunc(ids, func(a, b string) int {
		return cmp.Compare(g.vertices[b].node.Depth, g.vertices[a].node.Depth)
	})

	counts := make(map[string]int)
	for _, id := range ids {
		v := g.vertices[id]
		if !v.node.Kind.IsContainer() {
			continue
		}

		total := 0
		for _, childID := range v.children {
			child := g.vertices[childID]
			if child.node.Kind == KindAccount {
				total++
				continue
			}
			total += counts[childID]
		}
		counts[id] = total
	}

	return &AggregatedGraph{graph: g, counts: counts}
}

// PruneAccounts removes every account vertex and its incident edge, leaving
// root and unit vertices, their edges and their counts untouched. It is
// idempotent and returns the number of vertices removed.
func (a *AggregatedGraph) PruneAccounts() int {
	g := a.graph
	kept := g.order[:0]
	removed := 0

	for _, id := range g.order {
		if g.vertices[id].node.Kind == KindAccount {
			g.remove(id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	g.order = kept

	return removed
}

// DescendantAccounts returns the descendant account count of id. The second
// value is false for accounts and unknown ids.
func (a *AggregatedGraph) DescendantAccounts(id string) (int, bool) {
	count, ok := a.counts[id]
	if !ok {
		return 0, false
	}
	if _, exists := a.graph.vertices[id]; !exists {
		return 0, false
	}
	return count, true
}

// Label returns the display label of id: the node name, followed by the
// descendant account count in parentheses for root and unit vertices.
func (a *AggregatedGraph) Label(id string) string {
	n, ok := a.graph.Node(id)
	if !ok {
		return ""
	}
	if count, ok := a.DescendantAccounts(id); ok {
		return n.Name + "(" + strconv.Itoa(count) + ")"
	}
	return n.Name
}

// Vertices returns every remaining vertex in discovery order.
func (a *AggregatedGraph) Vertices() []Vertex {
	vertices := make([]Vertex, 0, a.graph.Len())
	for _, n := range a.graph.Nodes() {
		count, ok := a.DescendantAccounts(n.ID)
		vertices = append(vertices, Vertex{
			Node:               n,
			Label:              a.Label(n.ID),
			DescendantAccounts: count,
			HasCount:           ok,
		})
	}
	return vertices
}

// RootID returns the id of the root vertex.
func (a *AggregatedGraph) RootID() string { return a.graph.RootID() }

// Len returns the number of remaining vertices.
func (a *AggregatedGraph) Len() int { return a.graph.Len() }

func (a *AggregatedGraph) Nodes() []Node { return a.graph.Nodes() }

func (a *AggregatedGraph) Edges() []Edge { return a.graph.Edges() }

func (a *AggregatedGraph) Children(id string) []string { return a.graph.Children(id) }

func (a *AggregatedGraph) CountKind(k Kind) int { return a.graph.CountKind(k) }

func (a *AggregatedGraph) Node(id string) (Node, bool) { return a.graph.Node(id) }
