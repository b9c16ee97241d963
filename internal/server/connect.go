package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/koustreak/sqldesk/internal/database"
)

type connectRequest struct {
	database.ConnParams
	CreateDatabase bool `json:"createDatabase"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	if !req.CreateDatabase {
		if _, err := s.connector.Open(r.Context(), req.ConnParams); err != nil {
			s.fail(w, r, err)
			return
		}
		ok(w, envelope{"message": "Connection successful"})
		return
	}

	if strings.TrimSpace(req.Database) == "" {
		s.fail(w, r, badRequest("Database name is required"))
		return
	}

	server, err := s.connector.Open(r.Context(), req.WithoutDatabase())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := server.Exec(r.Context(), "CREATE DATABASE IF NOT EXISTS "+database.QuoteIdent(req.Database)); err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.connector.Open(r.Context(), req.ConnParams); err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"message": "Database created and connected"})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	var p database.ConnParams
	if err := decode(r, &p); err != nil {
		s.fail(w, r, err)
		return
	}

	// Open before consulting the cache: its key has no password.
	db, err := s.connector.Open(r.Context(), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	schema, err := s.schemas.Get(r.Context(), p.Key(), db)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	fks := schema.ForeignKeys
	if fks == nil {
		fks = []database.ForeignKey{}
	}
	ok(w, envelope{"schema": tableMap(schema.Tables), "foreignKeys": fks})
}

// tableMap encodes tables as one JSON object keyed by table name, keeping
// the introspection order.
type tableMap []database.Table

func (t tableMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tbl := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tbl.Name)
		if err != nil {
			return nil, err
		}
		cols := tbl.Columns
		if cols == nil {
			cols = []database.Column{}
		}
		val, err := json.Marshal(cols)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
