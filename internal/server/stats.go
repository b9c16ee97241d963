package server

import (
	"fmt"
	"net/http"

	"github.com/koustreak/sqldesk/internal/database"
	"github.com/koustreak/sqldesk/internal/stats"
)

// openFromBody decodes connection params and opens the database.
func (s *Server) openFromBody(w http.ResponseWriter, r *http.Request) (database.DB, bool) {
	var p database.ConnParams
	if err := decode(r, &p); err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	db, err := s.connector.Open(r.Context(), p)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return db, true
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	db, opened := s.openFromBody(w, r)
	if !opened {
		return
	}
	schemas, err := stats.Dashboard(r.Context(), db)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"schemas": schemas})
}

func (s *Server) handleServerStatus(w http.ResponseWriter, r *http.Request) {
	db, opened := s.openFromBody(w, r)
	if !opened {
		return
	}
	st, err := stats.Status(r.Context(), db)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"status": st})
}

func (s *Server) handleProcesses(w http.ResponseWriter, r *http.Request) {
	db, opened := s.openFromBody(w, r)
	if !opened {
		return
	}
	procs, err := stats.Processes(r.Context(), db)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"processes": procs})
}

type killRequest struct {
	database.ConnParams
	ID int64 `json:"id" validate:"gt=0"`
}

func (s *Server) handleKill(w http.ResponseWriter, r *http.Request) {
	var req killRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	db, err := s.connector.Open(r.Context(), req.ConnParams)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := stats.Kill(r.Context(), db, req.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"message": fmt.Sprintf("Process %d killed", req.ID)})
}
