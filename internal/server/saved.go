package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	ok(w, envelope{"history": s.history.List(limit)})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.history.Clear()
	ok(w, nil)
}

func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request) {
	queries, err := s.saved.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"queries": queries})
}

type saveQueryRequest struct {
	Name  string `json:"name" validate:"required"`
	Query string `json:"query" validate:"required"`
}

func (s *Server) handleSaveQuery(w http.ResponseWriter, r *http.Request) {
	var req saveQueryRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	q, err := s.saved.Save(r.Context(), req.Name, req.Query)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"query": q})
}

func (s *Server) handleGetSaved(w http.ResponseWriter, r *http.Request) {
	q, err := s.saved.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"query": q})
}

func (s *Server) handleDeleteSaved(w http.ResponseWriter, r *http.Request) {
	if err := s.saved.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, nil)
}
