package graph

import (
	"errors"
	"testing"
)

func model(id int64, name string, inputs ...RelationshipNode) RelationshipNode {
	return RelationshipNode{
		QMModel:       &QMModel{QMModelID: id, QMName: name, CreatedAt: "2024-01-01"},
		InputToModels: inputs,
	}
}

func TestTransformSimpleTree(t *testing.T) {
	tree := []RelationshipNode{
		model(1, "Root", model(2, "Left"), model(3, "Right")),
	}

	g := Transform(tree)
	if g.Len() != 3 {
		t.Fatalf("expected 3 nodes, got %d", g.Len())
	}
	if len(g.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(g.Edges))
	}
	if g.Edges[0].Source != "1" || g.Edges[0].Target != "2" {
		t.Errorf("expected edge 1->2, got %s->%s", g.Edges[0].Source, g.Edges[0].Target)
	}
	if g.Edges[0].Relationship != RelationInputTo {
		t.Errorf("unexpected relationship %q", g.Edges[0].Relationship)
	}
}

func TestTransformDedupsSharedUpstream(t *testing.T) {
	// Model 4 feeds both 2 and 3: it must appear once, with two incoming edges.
	tree := []RelationshipNode{
		model(1, "Root",
			model(2, "A", model(4, "Shared", model(5, "Leaf"))),
			model(3, "B", model(4, "Shared", model(5, "Leaf"))),
		),
	}

	g := Transform(tree)
	seen := make(map[string]int)
	for _, n := range g.Nodes {
		seen[n.ID]++
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("node %s emitted %d times", id, count)
		}
	}
	if g.Len() != 5 {
		t.Errorf("expected 5 nodes, got %d", g.Len())
	}
	if parents := g.Parents("4"); len(parents) != 2 {
		t.Errorf("expected node 4 to have 2 parents, got %v", parents)
	}
	if parents := g.Parents("5"); len(parents) != 1 {
		t.Errorf("second visit of 4 must not re-descend, got parents of 5: %v", parents)
	}
}

func TestTransformTruncatesCycles(t *testing.T) {
	// 1 -> 2 -> 1 -> 2 ... as the backend would nest it.
	tree := []RelationshipNode{
		model(1, "A", model(2, "B", model(1, "A", model(2, "B")))),
	}

	g := Transform(tree)
	if g.Len() != 2 {
		t.Fatalf("expected 2 nodes, got %d", g.Len())
	}
	if len(g.Edges) != 2 {
		t.Errorf("expected edges 1->2 and 2->1, got %d edges", len(g.Edges))
	}
}

func TestTransformSkipsNullModels(t *testing.T) {
	tree := []RelationshipNode{
		{QMModel: nil, InputToModels: []RelationshipNode{model(9, "Orphan")}},
		model(1, "Root", RelationshipNode{QMModel: nil}, model(2, "Child")),
	}

	g := Transform(tree)
	if g.Len() != 2 {
		t.Fatalf("expected 2 nodes, got %d", g.Len())
	}
	if g.Has("9") {
		t.Error("children of a null model should be skipped")
	}
}

func TestTransformEdgeValidity(t *testing.T) {
	tree := []RelationshipNode{
		model(1, "A", model(2, "B", model(3, "C")), model(3, "C", model(1, "A"))),
		model(4, "D", model(2, "B")),
	}

	g := Transform(tree)
	for _, e := range g.Edges {
		if !g.Has(e.Source) || !g.Has(e.Target) {
			t.Errorf("edge %s->%s references unknown node", e.Source, e.Target)
		}
	}
}

func TestNodeFieldMapping(t *testing.T) {
	tree := []RelationshipNode{{
		QMModel: &QMModel{
			QMModelID:       7,
			QMName:          "Credit PD",
			Owner:           "jdoe",
			AccountableExec: "CRO Office",
			CreatedAt:       "2023-05-01",
			RiskRating:      "HIGH",
		},
	}}

	n, ok := Transform(tree).Node("7")
	if !ok {
		t.Fatal("node 7 missing")
	}
	if n.Type != "Model" {
		t.Errorf("expected default type Model, got %q", n.Type)
	}
	if n.Department != "CRO Office" {
		t.Errorf("expected department from accountableExec, got %q", n.Department)
	}
	if n.RiskRating != RiskHigh {
		t.Errorf("expected high risk, got %q", n.RiskRating)
	}
	if n.LastUpdated != "2023-05-01" {
		t.Errorf("expected lastUpdated to fall back to createdAt, got %q", n.LastUpdated)
	}
}

func TestNodeFieldDefaults(t *testing.T) {
	tree := []RelationshipNode{{QMModel: &QMModel{QMModelID: 3, UpdatedAt: "2024-02-02", RiskRating: "extreme"}}}

	n, _ := Transform(tree).Node("3")
	if n.Name != "Model 3" {
		t.Errorf("unexpected default name %q", n.Name)
	}
	if n.Department != "Unassigned" {
		t.Errorf("unexpected default department %q", n.Department)
	}
	if n.RiskRating != RiskMedium {
		t.Errorf("unknown risk should default to medium, got %q", n.RiskRating)
	}
	if n.LastUpdated != "2024-02-02" {
		t.Errorf("expected updatedAt, got %q", n.LastUpdated)
	}
}

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		nodes   int
		wantErr bool
	}{
		{"valid", `{"success":true,"message":"ok","data":[{"qmModel":{"qmModelId":1,"qmName":"A","createdAt":"x"},"inputToModels":[{"qmModel":{"qmModelId":2,"qmName":"B","createdAt":"x"},"inputToModels":[]}]}]}`, 2, false},
		{"null", `null`, 0, false},
		{"malformed", `{"success":true,"data":[`, 0, true},
		{"not json", `<html>404</html>`, 0, true},
		{"unsuccessful", `{"success":false,"message":"model not found","data":null}`, 0, true},
		{"null data", `{"success":true,"message":"","data":null}`, 0, false},
		{"null model", `{"success":true,"data":[{"qmModel":null,"inputToModels":[]}]}`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := DecodeResponse([]byte(tt.payload))
			if g == nil {
				t.Fatal("graph must never be nil")
			}
			if g.Len() != tt.nodes {
				t.Errorf("expected %d nodes, got %d", tt.nodes, g.Len())
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDecodeResponseUnsuccessfulIsSentinel(t *testing.T) {
	_, err := DecodeResponse([]byte(`{"success":false,"message":"nope"}`))
	if !errors.Is(err, ErrUnsuccessful) {
		t.Errorf("expected ErrUnsuccessful, got %v", err)
	}
}
