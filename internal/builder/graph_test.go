package builder

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqldesk/internal/errs"
)

// seqGraph returns a graph with predictable ids (n1, n2, …).
func seqGraph() *Graph {
	var i int
	return &Graph{newID: func() string {
		i++
		return fmt.Sprintf("n%d", i)
	}}
}

var empCols = []Column{{Name: "id", Type: "int"}, {Name: "name", Type: "varchar(64)"}, {Name: "manager_id", Type: "int"}}

func TestGraph_AddTableAlwaysCreatesNode(t *testing.T) {
	g := NewGraph()
	a := g.AddTable("employees", empCols)
	b := g.AddTable("employees", empCols)

	assert.NotEqual(t, a, b)
	nodes, edges := g.Snapshot()
	require.Len(t, nodes, 2)
	assert.Empty(t, edges)
	assert.Equal(t, "employees", nodes[1].TableName)
	assert.Empty(t, nodes[0].SelectedColumns)
	assert.Equal(t, empCols, nodes[0].AvailableColumns)
}

func TestGraph_ToggleColumnKeepsSelectionOrder(t *testing.T) {
	g := seqGraph()
	id := g.AddTable("employees", empCols)

	g.ToggleColumn(id, "name")
	g.ToggleColumn(id, "id")
	g.ToggleColumn(id, "manager_id")
	g.ToggleColumn(id, "id")
	g.ToggleColumn("missing", "id")

	nodes, _ := g.Snapshot()
	assert.Equal(t, []string{"name", "manager_id"}, nodes[0].SelectedColumns)
}

func TestGraph_DeleteNodeCascadesEdges(t *testing.T) {
	g := seqGraph()
	a := g.AddTable("A", nil)
	b := g.AddTable("B", nil)
	c := g.AddTable("C", nil)
	g.Connect(a, "id", b, "a_id")
	keep := g.Connect(b, "id", c, "b_id")
	g.Connect(c, "id", a, "c_id")

	g.DeleteNode(a)

	nodes, edges := g.Snapshot()
	require.Len(t, nodes, 2)
	require.Len(t, edges, 1)
	assert.Equal(t, keep, edges[0].ID)
}

func TestGraph_ConnectAcceptsAnything(t *testing.T) {
	g := seqGraph()
	a := g.AddTable("A", nil)
	g.Connect(a, "id", a, "parent_id")
	g.Connect(a, "id", a, "parent_id")
	g.Connect(a, "nope", "ghost", "id")

	_, edges := g.Snapshot()
	require.Len(t, edges, 3)
	assert.Equal(t, RoleSource, edges[0].Source.Role)
	assert.Equal(t, RoleTarget, edges[0].Target.Role)
}

func TestGraph_LinkKeepsRoles(t *testing.T) {
	g := seqGraph()
	a := g.AddTable("orders", nil)
	b := g.AddTable("customers", nil)
	id := g.Link(
		Endpoint{NodeID: a, Column: "customer_id", Role: RoleTarget},
		Endpoint{NodeID: b, Column: "id", Role: RoleSource},
	)

	nodes, edges := g.Snapshot()
	require.Len(t, edges, 1)
	assert.Equal(t, id, edges[0].ID)
	assert.Equal(t, RoleTarget, edges[0].Source.Role)
	assert.Equal(t, RoleSource, edges[0].Target.Role)

	sql, err := Compile(nodes, edges, JoinInner)
	require.NoError(t, err)
	assert.Contains(t, sql, "JOIN `customers` ON `orders`.`customer_id` = `customers`.`id`;")
}

func TestGraph_DisconnectAndClear(t *testing.T) {
	g := seqGraph()
	a := g.AddTable("A", nil)
	b := g.AddTable("B", nil)
	e := g.Connect(a, "id", b, "a_id")

	g.Disconnect(e)
	n, m := g.Len()
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, m)

	g.Clear()
	n, m = g.Len()
	assert.Zero(t, n)
	assert.Zero(t, m)

	nodes, edges := g.Snapshot()
	_, err := Compile(nodes, edges, JoinInner)
	require.ErrorIs(t, err, ErrEmptyGraph)
}

func TestGraph_SnapshotIsACopy(t *testing.T) {
	g := seqGraph()
	id := g.AddTable("A", empCols)
	g.ToggleColumn(id, "id")

	nodes, _ := g.Snapshot()
	nodes[0].SelectedColumns[0] = "changed"
	nodes[0].TableName = "changed"

	again, _ := g.Snapshot()
	assert.Equal(t, "A", again[0].TableName)
	assert.Equal(t, []string{"id"}, again[0].SelectedColumns)
}

func TestGraph_EndToEndSelfJoin(t *testing.T) {
	g := seqGraph()
	e1 := g.AddTable("employees", empCols)
	e2 := g.AddTable("employees", empCols)
	g.ToggleColumn(e1, "id")
	g.ToggleColumn(e1, "name")
	g.ToggleColumn(e2, "manager_id")
	g.Connect(e1, "id", e2, "manager_id")

	nodes, edges := g.Snapshot()
	got, err := Compile(nodes, edges, JoinLeft)
	require.NoError(t, err)
	assert.Contains(t, got, "LEFT JOIN `employees` ON `employees`.`id` = `employees`.`manager_id`;")
}

func TestParseJoinKind(t *testing.T) {
	tests := []struct {
		in   string
		want JoinKind
	}{
		{"", JoinInner},
		{"JOIN", JoinInner},
		{"inner", JoinInner},
		{"LEFT JOIN", JoinLeft},
		{"left", JoinLeft},
		{"RIGHT  JOIN", JoinRight},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseJoinKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseJoinKind("FULL")
	assert.Error(t, err)
}

func TestParseHandle(t *testing.T) {
	col, role := ParseHandle("manager_id-target", RoleSource)
	assert.Equal(t, "manager_id", col)
	assert.Equal(t, RoleTarget, role)

	col, role = ParseHandle("id-source", RoleTarget)
	assert.Equal(t, "id", col)
	assert.Equal(t, RoleSource, role)

	col, role = ParseHandle("plain", RoleTarget)
	assert.Equal(t, "plain", col)
	assert.Equal(t, RoleTarget, role)
}

func TestWorkspaces(t *testing.T) {
	ws := NewWorkspaces(DefaultWorkspaceConfig())
	id := ws.Create()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ws.Update(id, func(g *Graph) { g.AddTable("t", nil) })
		}()
	}
	wg.Wait()

	nodes, _, err := ws.Snapshot(id)
	require.NoError(t, err)
	assert.Len(t, nodes, 8)

	require.NoError(t, ws.Drop(id))
	_, _, err = ws.Snapshot(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, errs.IsNotFound(ws.Drop(id)))
}

func TestWorkspaces_EvictsLeastRecentlyUsed(t *testing.T) {
	ws := NewWorkspaces(WorkspaceConfig{MaxSessions: 2})
	first := ws.Create()
	second := ws.Create()

	// touching first makes second the eviction candidate
	require.NoError(t, ws.Update(first, func(g *Graph) {}))
	third := ws.Create()

	assert.Equal(t, 2, ws.Len())
	assert.NoError(t, ws.Update(first, func(g *Graph) {}))
	assert.NoError(t, ws.Update(third, func(g *Graph) {}))
	assert.ErrorIs(t, ws.Update(second, func(g *Graph) {}), ErrSessionNotFound)
}

func TestWorkspaces_ExpiresIdleSessions(t *testing.T) {
	ws := NewWorkspaces(WorkspaceConfig{MaxSessions: 4, IdleTTL: 30 * time.Millisecond})
	id := ws.Create()

	require.Eventually(t, func() bool {
		_, _, err := ws.Snapshot(id)
		return errs.IsNotFound(err)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCanvas_Compile(t *testing.T) {
	var c Canvas
	require.NoError(t, json.Unmarshal([]byte(`{
		"joinType": "LEFT JOIN",
		"nodes": [
			{"id": "a", "data": {"label": "orders", "columns": [{"name": "id", "type": "int"}], "selectedColumns": ["id"]}},
			{"id": "b", "data": {"tableName": "customers", "selectedColumns": ["name"]}}
		],
		"edges": [
			{"id": "e1", "source": "b", "target": "a", "sourceHandle": "id-source", "targetHandle": "customer_id-target"}
		]
	}`), &c))

	got, err := c.Compile()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT\n  `orders`.`id`,\n  `customers`.`name`\nFROM\n  `orders`\nLEFT JOIN `customers` ON `orders`.`customer_id` = `customers`.`id`;",
		got)

	nodes, edges, kind, opts, err := c.Decode()
	require.NoError(t, err)
	assert.Equal(t, JoinLeft, kind)
	assert.Empty(t, opts)
	assert.Equal(t, "orders", nodes[0].TableName)
	assert.Equal(t, Endpoint{NodeID: "a", Column: "customer_id", Role: RoleTarget}, edges[0].Target)
}

func TestCanvas_Errors(t *testing.T) {
	_, err := Canvas{JoinType: "FULL OUTER"}.Compile()
	assert.True(t, errs.IsInvalidInput(err))

	_, err = Canvas{}.Compile()
	assert.ErrorIs(t, err, ErrEmptyGraph)
}

func TestCanvas_Alias(t *testing.T) {
	c := Canvas{Alias: true}
	c.Nodes = make([]CanvasNode, 1)
	c.Nodes[0].ID = "x"
	c.Nodes[0].Data.TableName = "t"

	got, err := c.Compile()
	require.NoError(t, err)
	assert.Equal(t, "SELECT\n  *\nFROM\n  `t` AS `t1`;", got)
}
