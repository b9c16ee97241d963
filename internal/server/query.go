package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/koustreak/sqldesk/internal/database"
	"github.com/koustreak/sqldesk/internal/errs"
	"github.com/koustreak/sqldesk/internal/gridedit"
	"github.com/koustreak/sqldesk/internal/history"
	"github.com/koustreak/sqldesk/internal/logger"
	"github.com/koustreak/sqldesk/internal/sqltext"
)

// runScript executes user SQL, records it in the history and drops the
// cached schema of the connection, since the script may have run DDL.
func (s *Server) runScript(ctx context.Context, p database.ConnParams, script string) ([]database.ResultSet, error) {
	start := time.Now()

	db, err := s.connector.Open(ctx, p)
	var sets []database.ResultSet
	if err == nil {
		sets, err = db.RunScript(ctx, script)
		s.schemas.Invalidate(p.Key())
	}

	entry := history.Entry{
		Query:      script,
		ExecutedAt: start.UTC(),
		DurationMS: time.Since(start).Milliseconds(),
		Success:    err == nil,
		Database:   p.Database,
	}
	if err != nil {
		entry.Error = errs.Message(err)
	} else {
		for _, set := range sets {
			entry.RowCount += len(set.Rows)
		}
	}
	s.history.Add(entry)

	return sets, err
}

// resultPayload shapes result sets the way the browser grid reads them: a
// single statement gives its rows and fields directly, several give one
// entry per statement. A statement without a result set stands in with its
// exec result (or an empty list) and null fields.
func resultPayload(sets []database.ResultSet) envelope {
	one := func(set database.ResultSet) (rows, fields any) {
		if set.HasRows() || set.Result == nil {
			if !set.HasRows() {
				return set.Rows, nil
			}
			return set.Rows, set.Fields
		}
		return set.Result, nil
	}

	if len(sets) == 1 {
		rows, fields := one(sets[0])
		return envelope{"rows": rows, "fields": fields}
	}

	rows := make([]any, len(sets))
	fields := make([]any, len(sets))
	for i, set := range sets {
		rows[i], fields[i] = one(set)
	}
	return envelope{"rows": rows, "fields": fields}
}

type queryRequest struct {
	database.ConnParams
	Query string `json:"query"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, errs.Wrap(errs.ErrKindInvalidInput, "Invalid request body", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.fail(w, r, badRequest("Query is required"))
		return
	}
	if err := check(&req); err != nil {
		s.fail(w, r, err)
		return
	}

	sets, err := s.runScript(r.Context(), req.ConnParams, req.Query)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, resultPayload(sets))
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.fail(w, r, badRequest(fmt.Sprintf("File exceeds %d bytes", tooBig.Limit)))
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			s.fail(w, r, errs.Wrap(errs.ErrKindInvalidInput, "Invalid upload", err))
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, badRequest("No file uploaded"))
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, errs.Wrap(errs.ErrKindInvalidInput, "Failed to read upload", err))
		return
	}
	if strings.TrimSpace(string(body)) == "" {
		s.fail(w, r, badRequest("File is empty"))
		return
	}

	p := database.ConnParams{
		Host:     r.FormValue("host"),
		User:     r.FormValue("user"),
		Password: r.FormValue("password"),
		Database: r.FormValue("database"),
		Port:     database.ParsePort(r.FormValue("port")),
	}
	if err := check(&p); err != nil {
		s.fail(w, r, err)
		return
	}

	s.archiveImport(r.Context(), header.Filename, body)

	sets, err := s.runScript(r.Context(), p, string(body))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"message": "Import successful", "statements": len(sets)})
}

// archiveImport keeps a copy of the uploaded script. Failures are logged
// and do not block the import.
func (s *Server) archiveImport(ctx context.Context, filename string, body []byte) {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "import.sql"
	}
	key := fmt.Sprintf("imports/%s-%s-%s",
		time.Now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8], name)

	if _, err := s.files.Put(ctx, key, bytes.NewReader(body), int64(len(body)), "application/sql"); err != nil {
		logger.FromContext(ctx).ErrorWith("failed to archive import", err, map[string]interface{}{"key": key})
	}
}

type statementRequest struct {
	Text      string `json:"text"`
	Selection string `json:"selection"`
	Offset    int    `json:"offset" validate:"gte=0"`
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	var req statementRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	q := sqltext.Pick(req.Text, req.Selection, req.Offset)
	if strings.TrimSpace(q) == "" {
		s.fail(w, r, badRequest("No query to execute"))
		return
	}
	ok(w, envelope{"query": q})
}

type gridRequest struct {
	Fields []gridedit.Field `json:"fields" validate:"dive"`
	Edits  []gridedit.Edit  `json:"edits" validate:"required,min=1,dive"`

	// Execute runs the statements against Connection.
	Execute    bool                 `json:"execute"`
	Connection *database.ConnParams `json:"connection"`
}

func (s *Server) handleGridUpdates(w http.ResponseWriter, r *http.Request) {
	var req gridRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	plan := gridedit.Build(req.Fields, req.Edits)
	resp := envelope{
		"sql":        plan.SQL(),
		"statements": plan.Statements,
		"skipped":    plan.Skipped,
	}
	if plan.Skipped > 0 {
		resp["message"] = fmt.Sprintf("Could not generate updates for %d rows due to missing table information.", plan.Skipped)
	}

	if !req.Execute || len(plan.Statements) == 0 {
		ok(w, resp)
		return
	}
	if req.Connection == nil {
		s.fail(w, r, badRequest("Connection is required"))
		return
	}

	sets, err := s.runScript(r.Context(), *req.Connection, plan.SQL())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	for k, v := range resultPayload(sets) {
		resp[k] = v
	}
	ok(w, resp)
}

const (
	defaultPreviewLimit = 100
	maxPreviewLimit     = 1000
)

type previewRequest struct {
	database.ConnParams
	Table     string   `json:"table" validate:"required"`
	Columns   []string `json:"columns"`
	OrderBy   string   `json:"orderBy"`
	Direction string   `json:"direction"`
	Limit     int      `json:"limit" validate:"gte=0"`
	Offset    int      `json:"offset" validate:"gte=0"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultPreviewLimit
	}
	limit = min(limit, maxPreviewLimit)

	b := database.Select(req.Table).Columns(req.Columns...).Limit(limit)
	if req.Offset > 0 {
		b.Offset(req.Offset)
	}
	if req.OrderBy != "" {
		dir, err := database.ParseSortDirection(req.Direction)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		b.OrderBy(req.OrderBy, dir)
	}
	query, args, err := b.Build()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	db, err := s.connector.Open(r.Context(), req.ConnParams)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rows, err := db.Query(r.Context(), query, args...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer rows.Close()

	fields, err := rows.Fields()
	if err != nil {
		s.fail(w, r, errs.Wrap(errs.ErrKindQueryFailed, "failed to read result metadata", err))
		return
	}
	data, err := database.ScanRows(rows)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"sql": query, "rows": data, "fields": fields})
}
