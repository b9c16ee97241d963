package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/koustreak/sqldesk/internal/builder"
)

// handleCompile compiles a whole canvas document without server state.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var c builder.Canvas
	if err := decode(r, &c); err != nil {
		s.fail(w, r, err)
		return
	}

	sql, err := c.Compile()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"sql": sql})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ok(w, envelope{"id": s.workspaces.Create()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	nodes, edges, err := s.workspaces.Snapshot(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if nodes == nil {
		nodes = []builder.Node{}
	}
	if edges == nil {
		edges = []builder.Edge{}
	}
	ok(w, envelope{"nodes": nodes, "edges": edges})
}

func (s *Server) handleDropSession(w http.ResponseWriter, r *http.Request) {
	if err := s.workspaces.Drop(chi.URLParam(r, "sessionID")); err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, nil)
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, func(g *builder.Graph) envelope {
		g.Clear()
		return nil
	})
}

type addTableRequest struct {
	TableName string           `json:"tableName" validate:"required"`
	Columns   []builder.Column `json:"columns"`
}

func (s *Server) handleAddTable(w http.ResponseWriter, r *http.Request) {
	var req addTableRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.update(w, r, func(g *builder.Graph) envelope {
		return envelope{"nodeId": g.AddTable(req.TableName, req.Columns)}
	})
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	s.update(w, r, func(g *builder.Graph) envelope {
		g.DeleteNode(nodeID)
		return nil
	})
}

type toggleRequest struct {
	Column string `json:"column" validate:"required"`
}

func (s *Server) handleToggleColumn(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	s.update(w, r, func(g *builder.Graph) envelope {
		g.ToggleColumn(nodeID, req.Column)
		return nil
	})
}

// connectEdgeRequest columns may be plain names or canvas handle ids; a
// handle suffix sets the endpoint's role.
type connectEdgeRequest struct {
	SourceNodeID string `json:"sourceNodeId" validate:"required"`
	SourceColumn string `json:"sourceColumn" validate:"required"`
	TargetNodeID string `json:"targetNodeId" validate:"required"`
	TargetColumn string `json:"targetColumn" validate:"required"`
}

func (s *Server) handleConnectEdge(w http.ResponseWriter, r *http.Request) {
	var req connectEdgeRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	srcCol, srcRole := builder.ParseHandle(req.SourceColumn, builder.RoleSource)
	dstCol, dstRole := builder.ParseHandle(req.TargetColumn, builder.RoleTarget)

	s.update(w, r, func(g *builder.Graph) envelope {
		return envelope{"edgeId": g.Link(
			builder.Endpoint{NodeID: req.SourceNodeID, Column: srcCol, Role: srcRole},
			builder.Endpoint{NodeID: req.TargetNodeID, Column: dstCol, Role: dstRole},
		)}
	})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeID")
	s.update(w, r, func(g *builder.Graph) envelope {
		g.Disconnect(edgeID)
		return nil
	})
}

// handleSessionSQL compiles the session graph. Query parameters: joinType
// (e.g. "LEFT JOIN") and alias (bool).
func (s *Server) handleSessionSQL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, err := builder.ParseJoinKind(q.Get("joinType"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var opts []builder.Option
	if alias, _ := strconv.ParseBool(q.Get("alias")); alias {
		opts = append(opts, builder.AliasNodes())
	}

	nodes, edges, err := s.workspaces.Snapshot(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sql, err := builder.Compile(nodes, edges, kind, opts...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"sql": sql})
}

// update applies fn to the session graph and answers with its payload.
func (s *Server) update(w http.ResponseWriter, r *http.Request, fn func(g *builder.Graph) envelope) {
	var payload envelope
	err := s.workspaces.Update(chi.URLParam(r, "sessionID"), func(g *builder.Graph) {
		payload = fn(g)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, payload)
}
