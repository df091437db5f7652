package graph

import (
	"sort"
	"strings"
)

// RiskRating is the risk tier assigned to a model.
type RiskRating string

const (
	RiskHigh   RiskRating = "high"
	RiskMedium RiskRating = "medium"
	RiskLow    RiskRating = "low"
)

// ParseRisk normalizes a risk string. Unknown values report ok=false.
func ParseRisk(s string) (RiskRating, bool) {
	switch RiskRating(strings.ToLower(strings.TrimSpace(s))) {
	case RiskHigh:
		return RiskHigh, true
	case RiskMedium:
		return RiskMedium, true
	case RiskLow:
		return RiskLow, true
	}
	return "", false
}

// Node represents a model in the dependency graph.
type Node struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	RiskRating  RiskRating `json:"riskRating"`
	Owner       string     `json:"owner"`
	Department  string     `json:"department"`
	Purpose     string     `json:"purpose"`
	LastUpdated string     `json:"lastUpdated"`
}

// Edge represents a directed relationship from Source to Target.
type Edge struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Relationship string `json:"relationship"`
	Description  string `json:"description,omitempty"`
}

// Graph is an immutable snapshot of nodes and edges with id lookup tables.
// Build it with New so the invariants hold: unique node ids and no dangling edges.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	index    map[string]int
	children map[string][]string
	parents  map[string][]string
}

// Stats holds summary counts.
type Stats struct {
	Nodes        int            `json:"nodes"`
	Edges        int            `json:"edges"`
	ByRisk       map[string]int `json:"by_risk"`
	ByDepartment map[string]int `json:"by_department"`
	Roots        int            `json:"roots"`
}

// Empty returns a graph with no nodes and no edges.
func Empty() *Graph {
	return New(nil, nil)
}

// New builds a graph. Duplicate node ids keep the first occurrence, edges whose
// endpoints are unknown are dropped, and repeated identical edges are collapsed.
func New(nodes []Node, edges []Edge) *Graph {
	g := &Graph{
		Nodes:    make([]Node, 0, len(nodes)),
		Edges:    make([]Edge, 0, len(edges)),
		index:    make(map[string]int, len(nodes)),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}

	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		if _, exists := g.index[n.ID]; exists {
			continue
		}
		g.index[n.ID] = len(g.Nodes)
		g.Nodes = append(g.Nodes, n)
	}

	type edgeKey struct{ s, t, r string }
	seen := make(map[edgeKey]bool, len(edges))
	for _, e := range edges {
		if !g.Has(e.Source) || !g.Has(e.Target) {
			continue
		}
		k := edgeKey{e.Source, e.Target, e.Relationship}
		if seen[k] {
			continue
		}
		seen[k] = true
		g.Edges = append(g.Edges, e)
		g.children[e.Source] = append(g.children[e.Source], e.Target)
		g.parents[e.Target] = append(g.parents[e.Target], e.Source)
	}
	return g
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// Has reports whether a node id exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Index returns the slice position of a node id.
func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Children returns the targets of edges leaving id, in edge order.
func (g *Graph) Children(id string) []string {
	return g.children[id]
}

// Parents returns the sources of edges entering id, in edge order.
func (g *Graph) Parents(id string) []string {
	return g.parents[id]
}

// Touches reports whether an edge has id as one of its endpoints.
func Touches(e Edge, id string) bool {
	return id != "" && (e.Source == id || e.Target == id)
}

// Neighbors returns the set of nodes sharing an edge with id, excluding id itself.
func (g *Graph) Neighbors(id string) map[string]bool {
	out := make(map[string]bool)
	for _, c := range g.children[id] {
		if c != id {
			out[c] = true
		}
	}
	for _, p := range g.parents[id] {
		if p != id {
			out[p] = true
		}
	}
	return out
}

// Roots returns nodes without incoming edges, in node order.
func (g *Graph) Roots() []string {
	var roots []string
	for _, n := range g.Nodes {
		if len(g.parents[n.ID]) == 0 {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// IDs returns all node ids in node order.
func (g *Graph) IDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// GetStats returns summary statistics.
func (g *Graph) GetStats() Stats {
	s := Stats{
		Nodes:        len(g.Nodes),
		Edges:        len(g.Edges),
		ByRisk:       make(map[string]int),
		ByDepartment: make(map[string]int),
		Roots:        len(g.Roots()),
	}
	for _, n := range g.Nodes {
		s.ByRisk[string(n.RiskRating)]++
		s.ByDepartment[n.Department]++
	}
	return s
}

// Departments returns the sorted distinct departments.
func (g *Graph) Departments() []string {
	return g.distinct(func(n Node) string { return n.Department })
}

// Owners returns the sorted distinct owners.
func (g *Graph) Owners() []string {
	return g.distinct(func(n Node) string { return n.Owner })
}

func (g *Graph) distinct(field func(Node) string) []string {
	set := make(map[string]bool)
	for _, n := range g.Nodes {
		set[field(n)] = true
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
