// Package builder holds the visual query builder: a mutable graph of placed
// tables and user-drawn column links, and the compiler that turns a snapshot
// of that graph into one SELECT statement.
//
// Usage:
//
//	g := builder.NewGraph()
//	e1 := g.AddTable("employees", cols)
//	e2 := g.AddTable("employees", cols)
//	g.ToggleColumn(e1, "id")
//	g.Connect(e1, "id", e2, "manager_id")
//
//	nodes, edges := g.Snapshot()
//	sql, err := builder.Compile(nodes, edges, builder.JoinLeft)
package builder

import (
	"slices"

	"github.com/google/uuid"
)

// Column describes a column offered by a placed table.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Node is one placed instance of a schema table on the canvas.
type Node struct {
	ID               string   `json:"id"`
	TableName        string   `json:"tableName"`
	AvailableColumns []Column `json:"availableColumns"`
	SelectedColumns  []string `json:"selectedColumns"`
}

// Endpoint is one end of a join link.
type Endpoint struct {
	NodeID string       `json:"nodeId"`
	Column string       `json:"column"`
	Role   EndpointRole `json:"role"`
}

// Edge is a user-drawn link between two columns. Stored directed, read as
// undirected by the compiler.
type Edge struct {
	ID     string   `json:"id"`
	Source Endpoint `json:"source"`
	Target Endpoint `json:"target"`
}

// touches reports whether either end of e sits on nodeID.
func (e Edge) touches(nodeID string) bool {
	return e.Source.NodeID == nodeID || e.Target.NodeID == nodeID
}

// Graph owns the nodes and edges of one builder session.
// It is not safe for concurrent use; see Workspaces for the shared registry.
type Graph struct {
	nodes []*Node
	edges []Edge
	newID func() string
}

// NewGraph returns an empty graph that mints UUID identifiers.
func NewGraph() *Graph {
	return &Graph{newID: uuid.NewString}
}

// AddTable places a fresh node for tableName, even when the table is
// already on the canvas, and returns its id.
func (g *Graph) AddTable(tableName string, columns []Column) string {
	n := &Node{
		ID:               g.newID(),
		TableName:        tableName,
		AvailableColumns: slices.Clone(columns),
		SelectedColumns:  []string{},
	}
	g.nodes = append(g.nodes, n)
	return n.ID
}

// ToggleColumn flips column in the node's selection. Unknown nodes are ignored.
func (g *Graph) ToggleColumn(nodeID, column string) {
	n := g.find(nodeID)
	if n == nil {
		return
	}
	if i := slices.Index(n.SelectedColumns, column); i >= 0 {
		n.SelectedColumns = slices.Delete(n.SelectedColumns, i, i+1)
		return
	}
	n.SelectedColumns = append(n.SelectedColumns, column)
}

// DeleteNode removes the node and every edge touching it.
func (g *Graph) DeleteNode(nodeID string) {
	g.nodes = slices.DeleteFunc(g.nodes, func(n *Node) bool { return n.ID == nodeID })
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.touches(nodeID) })
}

// Connect links two columns and returns the edge id. Nothing is validated:
// duplicates, self-loops and unknown columns are all accepted.
func (g *Graph) Connect(sourceNodeID, sourceColumn, targetNodeID, targetColumn string) string {
	return g.Link(
		Endpoint{NodeID: sourceNodeID, Column: sourceColumn, Role: RoleSource},
		Endpoint{NodeID: targetNodeID, Column: targetColumn, Role: RoleTarget},
	)
}

// Link is Connect with caller-chosen endpoint roles, for edges drawn from
// canvas handles whose role was decided when the handle was created.
func (g *Graph) Link(source, target Endpoint) string {
	e := Edge{ID: g.newID(), Source: source, Target: target}
	g.edges = append(g.edges, e)
	return e.ID
}

// Disconnect removes a single edge.
func (g *Graph) Disconnect(edgeID string) {
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.ID == edgeID })
}

// Clear empties the canvas.
func (g *Graph) Clear() {
	g.nodes = nil
	g.edges = nil
}

// Len returns the number of nodes and edges.
func (g *Graph) Len() (nodes, edges int) {
	return len(g.nodes), len(g.edges)
}

// Snapshot returns copies of the nodes and edges in insertion order.
// Mutating the result never affects the graph.
func (g *Graph) Snapshot() ([]Node, []Edge) {
	nodes := make([]Node, len(g.nodes))
	for i, n := range g.nodes {
		nodes[i] = Node{
			ID:               n.ID,
			TableName:        n.TableName,
			AvailableColumns: slices.Clone(n.AvailableColumns),
			SelectedColumns:  slices.Clone(n.SelectedColumns),
		}
	}
	return nodes, slices.Clone(g.edges)
}

func (g *Graph) find(nodeID string) *Node {
	for _, n := range g.nodes {
		if n.ID == nodeID {
			return n
		}
	}
	return nil
}
