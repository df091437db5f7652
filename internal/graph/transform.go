package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// RelationInputTo labels the edge from an upstream model to the model it feeds.
const RelationInputTo = "input_to"

// Response is the payload returned by the model inventory relationships endpoint.
type Response struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    []RelationshipNode `json:"data"`
}

// RelationshipNode is one record of the nested relationship tree.
type RelationshipNode struct {
	QMModel       *QMModel           `json:"qmModel"`
	InputToModels []RelationshipNode `json:"inputToModels"`
}

// QMModel describes a model as the inventory backend reports it.
// RiskRating, Department and Purpose are optional extensions some deployments send.
type QMModel struct {
	QMModelID       int64  `json:"qmModelId"`
	QMName          string `json:"qmName"`
	QMType          string `json:"qmType,omitempty"`
	Owner           string `json:"owner,omitempty"`
	AccountableExec string `json:"accountableExec,omitempty"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
	RiskRating      string `json:"riskRating,omitempty"`
	Department      string `json:"department,omitempty"`
	Purpose         string `json:"purpose,omitempty"`
}

// ErrUnsuccessful is returned by DecodeResponse when the backend flagged the request as failed.
var ErrUnsuccessful = errors.New("relationships response not successful")

// DecodeResponse parses a relationships payload. The returned graph is never nil:
// null, malformed or unsuccessful payloads yield an empty graph and an error
// describing why, which callers may log and otherwise ignore.
func DecodeResponse(data []byte) (*Graph, error) {
	var resp *Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Empty(), fmt.Errorf("decode relationships: %w", err)
	}
	if resp == nil {
		return Empty(), nil
	}
	if !resp.Success {
		if resp.Message != "" {
			return Empty(), fmt.Errorf("%w: %s", ErrUnsuccessful, resp.Message)
		}
		return Empty(), ErrUnsuccessful
	}
	return Transform(resp.Data), nil
}

// Transform flattens a relationship tree into a graph.
//
// Nodes are marked visited globally rather than per path: the first encounter
// of a model emits its node and descends into its inputs, later encounters
// only emit the connecting edge. A model that feeds itself through a cycle is
// therefore truncated at the second visit.
func Transform(records []RelationshipNode) *Graph {
	t := &transformer{visited: make(map[string]bool)}
	for i := range records {
		t.walk(&records[i], "")
	}
	return New(t.nodes, t.edges)
}

type transformer struct {
	visited map[string]bool
	nodes   []Node
	edges   []Edge
}

func (t *transformer) walk(rel *RelationshipNode, parent string) {
	if rel == nil || rel.QMModel == nil {
		return
	}

	node := nodeFromModel(rel.QMModel)
	if parent != "" {
		t.edges = append(t.edges, Edge{
			Source:       parent,
			Target:       node.ID,
			Relationship: RelationInputTo,
		})
	}
	if t.visited[node.ID] {
		return
	}
	t.visited[node.ID] = true
	t.nodes = append(t.nodes, node)

	for i := range rel.InputToModels {
		t.walk(&rel.InputToModels[i], node.ID)
	}
}

func nodeFromModel(m *QMModel) Node {
	n := Node{
		ID:          strconv.FormatInt(m.QMModelID, 10),
		Name:        m.QMName,
		Type:        m.QMType,
		Owner:       m.Owner,
		Department:  m.Department,
		Purpose:     m.Purpose,
		LastUpdated: m.UpdatedAt,
	}
	if n.Name == "" {
		n.Name = "Model " + n.ID
	}
	if n.Type == "" {
		n.Type = "Model"
	}
	if n.Department == "" {
		n.Department = m.AccountableExec
	}
	if n.Department == "" {
		n.Department = "Unassigned"
	}
	if n.LastUpdated == "" {
		n.LastUpdated = m.CreatedAt
	}
	risk, ok := ParseRisk(m.RiskRating)
	if !ok {
		risk = RiskMedium
	}
	n.RiskRating = risk
	return n
}
