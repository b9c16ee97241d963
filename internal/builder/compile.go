package builder

import (
	"fmt"
	"strings"

	"github.com/koustreak/sqldesk/internal/database"
	"github.com/koustreak/sqldesk/internal/errs"
)

// ErrEmptyGraph is returned when there is no table to select from.
var ErrEmptyGraph = errs.New(errs.ErrKindInvalidInput, "Add some tables to the canvas first.")

// Option tweaks compilation.
type Option func(*compileOptions)

type compileOptions struct {
	aliasNodes bool
}

// AliasNodes gives every node its own alias (t1, t2, …) so that a table
// placed twice yields executable SQL. Without it tables are referenced by name.
func AliasNodes() Option {
	return func(o *compileOptions) { o.aliasNodes = true }
}

// Compile turns a graph snapshot into one SELECT statement.
//
// The first node anchors FROM. Edges with exactly one visited end attach the
// other end as a join clause, scanning in edge order until a full pass adds
// nothing. Nodes still unreachable are appended to FROM as a cross join.
// The output depends only on its arguments.
func Compile(nodes []Node, edges []Edge, kind JoinKind, opts ...Option) (string, error) {
	if len(nodes) == 0 {
		return "", ErrEmptyGraph
	}

	var o compileOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := newCompilation(nodes, o)

	var sb strings.Builder
	sb.WriteString("SELECT\n  ")
	sb.WriteString(strings.Join(c.projection(), ",\n  "))
	sb.WriteString("\nFROM\n  ")
	sb.WriteString(c.tableRef(0))
	c.visited[nodes[0].ID] = true

	used := make([]bool, len(edges))
	for changed := true; changed; {
		changed = false
		for i, e := range edges {
			if used[i] {
				continue
			}
			from, to, ok := c.orient(e)
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "\n%s %s ON %s = %s",
				kind.Keyword(),
				c.tableRef(c.index[to.NodeID]),
				c.columnRef(from),
				c.columnRef(to),
			)
			c.visited[to.NodeID] = true
			used[i] = true
			changed = true
		}
	}

	for i, n := range nodes {
		if c.visited[n.ID] {
			continue
		}
		sb.WriteString(",\n  ")
		sb.WriteString(c.tableRef(i))
		c.visited[n.ID] = true
	}

	sb.WriteString(";")
	return sb.String(), nil
}

type compilation struct {
	nodes   []Node
	opts    compileOptions
	index   map[string]int
	visited map[string]bool
}

func newCompilation(nodes []Node, o compileOptions) *compilation {
	c := &compilation{
		nodes:   nodes,
		opts:    o,
		index:   make(map[string]int, len(nodes)),
		visited: make(map[string]bool, len(nodes)),
	}
	for i, n := range nodes {
		// first occurrence wins if a snapshot repeats an id
		if _, dup := c.index[n.ID]; !dup {
			c.index[n.ID] = i
		}
	}
	return c
}

func (c *compilation) projection() []string {
	var cols []string
	for i, n := range c.nodes {
		for _, col := range n.SelectedColumns {
			cols = append(cols, c.qualifier(i)+"."+database.QuoteIdent(col))
		}
	}
	if len(cols) == 0 {
		return []string{"*"}
	}
	return cols
}

// orient returns the edge ends as (visited, unvisited). ok is false when the
// edge cannot attach a node in this pass: both or neither end visited, or an
// end names a node missing from the snapshot.
func (c *compilation) orient(e Edge) (from, to Endpoint, ok bool) {
	_, srcKnown := c.index[e.Source.NodeID]
	_, dstKnown := c.index[e.Target.NodeID]
	if !srcKnown || !dstKnown {
		return Endpoint{}, Endpoint{}, false
	}

	srcVisited := c.visited[e.Source.NodeID]
	dstVisited := c.visited[e.Target.NodeID]
	switch {
	case srcVisited && !dstVisited:
		return e.Source, e.Target, true
	case !srcVisited && dstVisited:
		return e.Target, e.Source, true
	}
	return Endpoint{}, Endpoint{}, false
}

// qualifier is how columns of node i are prefixed.
func (c *compilation) qualifier(i int) string {
	if c.opts.aliasNodes {
		return database.QuoteIdent(alias(i))
	}
	return database.QuoteIdent(c.nodes[i].TableName)
}

// tableRef is how node i appears in FROM / JOIN.
func (c *compilation) tableRef(i int) string {
	if c.opts.aliasNodes {
		return database.QuoteIdent(c.nodes[i].TableName) + " AS " + database.QuoteIdent(alias(i))
	}
	return database.QuoteIdent(c.nodes[i].TableName)
}

func (c *compilation) columnRef(ep Endpoint) string {
	return c.qualifier(c.index[ep.NodeID]) + "." + database.QuoteIdent(ep.Column)
}

func alias(i int) string {
	return fmt.Sprintf("t%d", i+1)
}

