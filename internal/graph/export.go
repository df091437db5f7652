package graph

import (
	"encoding/json"
	"strings"
)

// ExportJSON returns the graph as pretty-printed {nodes, edges} JSON.
func (g *Graph) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// ExportCSV returns the graph as two comma-joined sections, "# NODES" and "# EDGES".
// Fields are not quoted: values containing commas will shift columns.
func (g *Graph) ExportCSV() string {
	var b strings.Builder

	b.WriteString("# NODES\n")
	b.WriteString("id,name,type,riskRating,owner,department,purpose,lastUpdated\n")
	for _, n := range g.Nodes {
		b.WriteString(strings.Join([]string{
			n.ID, n.Name, n.Type, string(n.RiskRating), n.Owner, n.Department, n.Purpose, n.LastUpdated,
		}, ","))
		b.WriteString("\n")
	}

	b.WriteString("\n# EDGES\n")
	b.WriteString("source,target,relationship,description\n")
	for _, e := range g.Edges {
		b.WriteString(strings.Join([]string{e.Source, e.Target, e.Relationship, e.Description}, ","))
		b.WriteString("\n")
	}
	return b.String()
}
