package graph

import (
	"fmt"
	"strings"
)

// GroupBy selects how nodes are boxed together when rendering.
type GroupBy string

const (
	GroupNone       GroupBy = "none"
	GroupDepartment GroupBy = "department"
	GroupRisk       GroupBy = "risk"
)

// ParseGroupBy validates a group-by selector. Empty means none.
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(strings.ToLower(strings.TrimSpace(s))) {
	case "", GroupNone:
		return GroupNone, nil
	case GroupDepartment:
		return GroupDepartment, nil
	case GroupRisk:
		return GroupRisk, nil
	}
	return GroupNone, fmt.Errorf("unknown group-by %q (use none, department, or risk)", s)
}

// GroupKey returns the group a node belongs to, or "" when grouping is off.
func GroupKey(n Node, by GroupBy) string {
	switch by {
	case GroupDepartment:
		return n.Department
	case GroupRisk:
		return string(n.RiskRating)
	}
	return ""
}

// Filter narrows the rendered node set. An empty set on a dimension means "any".
type Filter struct {
	Risks       map[RiskRating]bool
	Departments map[string]bool
	Owners      map[string]bool
}

// NewFilter builds a filter from flag-style value lists.
func NewFilter(risks, departments, owners []string) (Filter, error) {
	f := Filter{}
	for _, r := range risks {
		risk, ok := ParseRisk(r)
		if !ok {
			return Filter{}, fmt.Errorf("unknown risk level %q (use high, medium, or low)", r)
		}
		if f.Risks == nil {
			f.Risks = make(map[RiskRating]bool)
		}
		f.Risks[risk] = true
	}
	f.Departments = toSet(departments)
	f.Owners = toSet(owners)
	return f, nil
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// IsZero reports whether the filter lets every node through.
func (f Filter) IsZero() bool {
	return len(f.Risks) == 0 && len(f.Departments) == 0 && len(f.Owners) == 0
}

// Match reports whether a node passes every active dimension.
func (f Filter) Match(n Node) bool {
	if len(f.Risks) > 0 && !f.Risks[n.RiskRating] {
		return false
	}
	if len(f.Departments) > 0 && !f.Departments[n.Department] {
		return false
	}
	if len(f.Owners) > 0 && !f.Owners[n.Owner] {
		return false
	}
	return true
}

// Apply returns the visible view of g. g itself is never modified; when the
// filter is empty g is returned as is.
func (f Filter) Apply(g *Graph) *Graph {
	if f.IsZero() {
		return g
	}
	nodes := make([]Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if f.Match(n) {
			nodes = append(nodes, n)
		}
	}
	return New(nodes, g.Edges)
}
