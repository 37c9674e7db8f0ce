package org

import (
	"fmt"
	"slices"
)

// Edge is a directed parent -> child relationship.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

type vertex struct {
	node     Node
	children []string
}

// Graph is the organization as a directed tree with edges pointing from
// parent to child. Vertex iteration follows discovery order.
//
// A Graph has a single owner and is not safe for concurrent use.
type Graph struct {
	rootID   string
	order    []string
	vertices map[string]*vertex
}

// Assemble builds a Graph from fully described nodes. All vertices are
// inserted before any edge so node order does not matter for validity.
//
// It fails with a StructuralError when the nodes do not form a single rooted
// tree: duplicate ids, a missing or second root, an edge to a parent that was
// never discovered, an account used as a parent, or a depth that is not one
// more than the parent's. Since depth strictly increases along every edge the
// depth check also rules out cycles.
func Assemble(nodes []Node) (*Graph, error) {
	g := &Graph{
		order:    make([]string, 0, len(nodes)),
		vertices: make(map[string]*vertex, len(nodes)),
	}

	for _, n := range nodes {
		if n.ID == "" {
			return nil, &StructuralError{NodeID: n.ID, Reason: "empty node id"}
		}
		if _, ok := g.vertices[n.ID]; ok {
			return nil, &StructuralError{NodeID: n.ID, Reason: "duplicate node id"}
		}

		if n.Kind == KindRoot {
			if g.rootID != "" {
				return nil, &StructuralError{NodeID: n.ID, Reason: fmt.Sprintf("second root, %s already present", g.rootID)}
			}
			if n.ParentID != "" {
				return nil, &StructuralError{NodeID: n.ID, Reason: "root has a parent"}
			}
			if n.Depth != 0 {
				return nil, &StructuralError{NodeID: n.ID, Reason: fmt.Sprintf("root depth is %d, want 0", n.Depth)}
			}
			g.rootID = n.ID
		} else if n.ParentID == "" {
			return nil, &StructuralError{NodeID: n.ID, Reason: fmt.Sprintf("%s has no parent", n.Kind)}
		}

		g.vertices[n.ID] = &vertex{node: n}
		g.order = append(g.order, n.ID)
	}

	if g.rootID == "" {
		return nil, &StructuralError{NodeID: "", Reason: "no root node"}
	}

	for _, id := range g.order {
		child := g.vertices[id]
		if child.node.ParentID == "" {
			continue
		}

		parent, ok := g.vertices[child.node.ParentID]
		if !ok {
			return nil, &StructuralError{NodeID: id, Reason: fmt.Sprintf("parent %s was never discovered", child.node.ParentID)}
		}
		if !parent.node.Kind.IsContainer() {
			return nil, &StructuralError{NodeID: id, Reason: fmt.Sprintf("parent %s is an %s", parent.node.ID, parent.node.Kind)}
		}
		if child.node.Depth != parent.node.Depth+1 {
			return nil, &StructuralError{NodeID: id, Reason: fmt.Sprintf("depth %d does not follow parent depth %d", child.node.Depth, parent.node.Depth)}
		}

		parent.children = append(parent.children, id)
	}

	return g, nil
}

// RootID returns the id of the root vertex.
func (g *Graph) RootID() string {
	return g.rootID
}

// Len returns the number of vertices.
func (g *Graph) Len() int {
	return len(g.order)
}

// Node returns the node for id.
func (g *Graph) Node(id string) (Node, bool) {
	v, ok := g.vertices[id]
	if !ok {
		return Node{}, false
	}
	return v.node, true
}

// Children returns the ids of the direct children of id in discovery order.
func (g *Graph) Children(id string) []string {
	v, ok := g.vertices[id]
	if !ok {
		return nil
	}
	return slices.Clone(v.children)
}

// Nodes returns all nodes in discovery order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.vertices[id].node)
	}
	return nodes
}

// Edges returns every parent -> child edge, ordered by child discovery order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, id := range g.order {
		n := g.vertices[id].node
		if n.ParentID == "" {
			continue
		}
		edges = append(edges, Edge{From: n.ParentID, To: id})
	}
	return edges
}

// CountKind returns the number of vertices of kind k.
func (g *Graph) CountKind(k Kind) int {
	count := 0
	for _, v := range g.vertices {
		if v.node.Kind == k {
			count++
		}
	}
	return count
}

// remove deletes a leaf vertex and the edge from its parent.
func (g *Graph) remove(id string) {
	v, ok := g.vertices[id]
	if !ok {
		return
	}
	if parent, ok := g.vertices[v.node.ParentID]; ok {
		parent.children = slices.DeleteFunc(parent.children, func(c string) bool { return c == id })
	}
	delete(g.vertices, id)
}
