package builder

// Canvas is the builder document as the browser's flow editor serialises
// it. Handle ids on edges carry a "-source"/"-target" suffix that is
// resolved here, before anything reaches Compile.
type Canvas struct {
	Nodes    []CanvasNode `json:"nodes" validate:"dive"`
	Edges    []CanvasEdge `json:"edges" validate:"dive"`
	JoinType string       `json:"joinType"`
	// Alias asks for per-node table aliases.
	Alias bool `json:"alias"`
}

type CanvasNode struct {
	ID   string `json:"id" validate:"required"`
	Data struct {
		// Label is the table name in older documents.
		Label           string   `json:"label"`
		TableName       string   `json:"tableName"`
		Columns         []Column `json:"columns"`
		SelectedColumns []string `json:"selectedColumns"`
	} `json:"data"`
}

type CanvasEdge struct {
	ID           string `json:"id"`
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle"`
	TargetHandle string `json:"targetHandle"`
}

// Decode converts the document into compiler input.
func (c Canvas) Decode() ([]Node, []Edge, JoinKind, []Option, error) {
	kind, err := ParseJoinKind(c.JoinType)
	if err != nil {
		return nil, nil, JoinInner, nil, err
	}

	nodes := make([]Node, len(c.Nodes))
	for i, n := range c.Nodes {
		table := n.Data.TableName
		if table == "" {
			table = n.Data.Label
		}
		nodes[i] = Node{
			ID:               n.ID,
			TableName:        table,
			AvailableColumns: n.Data.Columns,
			SelectedColumns:  n.Data.SelectedColumns,
		}
	}

	edges := make([]Edge, len(c.Edges))
	for i, e := range c.Edges {
		srcCol, srcRole := ParseHandle(e.SourceHandle, RoleSource)
		dstCol, dstRole := ParseHandle(e.TargetHandle, RoleTarget)
		edges[i] = Edge{
			ID:     e.ID,
			Source: Endpoint{NodeID: e.Source, Column: srcCol, Role: srcRole},
			Target: Endpoint{NodeID: e.Target, Column: dstCol, Role: dstRole},
		}
	}

	var opts []Option
	if c.Alias {
		opts = append(opts, AliasNodes())
	}
	return nodes, edges, kind, opts, nil
}

// Compile decodes and compiles in one step.
func (c Canvas) Compile() (string, error) {
	nodes, edges, kind, opts, err := c.Decode()
	if err != nil {
		return "", err
	}
	return Compile(nodes, edges, kind, opts...)
}
