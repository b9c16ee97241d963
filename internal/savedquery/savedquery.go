// Package savedquery stores named SQL snippets as JSON objects in the file
// store, one object per query under saved-queries/.
package savedquery

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/koustreak/sqldesk/internal/errs"
	"github.com/koustreak/sqldesk/internal/filestore"
)

const prefix = "saved-queries/"

// Query is one saved snippet.
type Query struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists queries in a filestore.Store.
type Store struct {
	files filestore.Store
	now   func() time.Time
}

func New(files filestore.Store) *Store {
	return &Store{files: files, now: time.Now}
}

// Save stores a new query and returns it with its generated id.
func (s *Store) Save(ctx context.Context, name, query string) (Query, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Query{}, errs.New(errs.ErrKindInvalidInput, "Query name is required")
	}
	if strings.TrimSpace(query) == "" {
		return Query{}, errs.New(errs.ErrKindInvalidInput, "Query text is required")
	}

	q := Query{
		ID:        uuid.NewString(),
		Name:      name,
		Query:     query,
		CreatedAt: s.now().UTC(),
	}

	body, err := json.Marshal(q)
	if err != nil {
		return Query{}, errs.Wrap(errs.ErrKindUnknown, "failed to encode saved query", err)
	}
	if _, err := s.files.Put(ctx, key(q.ID), bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Get loads one query by id.
func (s *Store) Get(ctx context.Context, id string) (Query, error) {
	if err := uuid.Validate(id); err != nil {
		return Query{}, errs.New(errs.ErrKindNotFound, "saved query not found")
	}

	obj, err := s.files.Get(ctx, key(id))
	if err != nil {
		if errs.IsNotFound(err) {
			return Query{}, errs.Wrap(errs.ErrKindNotFound, "saved query not found", err)
		}
		return Query{}, err
	}
	defer obj.Close()

	var q Query
	if err := json.NewDecoder(obj).Decode(&q); err != nil {
		return Query{}, errs.Wrap(errs.ErrKindQueryFailed, "saved query "+id+" is corrupt", err)
	}
	return q, nil
}

// List returns every saved query, newest first.
func (s *Store) List(ctx context.Context) ([]Query, error) {
	infos, err := s.files.List(ctx, filestore.ListOptions{Prefix: prefix})
	if err != nil {
		return nil, err
	}

	queries := make([]Query, 0, len(infos))
	for _, info := range infos {
		id := strings.TrimSuffix(path.Base(info.Key), ".json")
		q, err := s.Get(ctx, id)
		if errs.IsNotFound(err) {
			// deleted between List and Get
			continue
		}
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}

	sort.SliceStable(queries, func(i, j int) bool {
		return queries[i].CreatedAt.After(queries[j].CreatedAt)
	})
	return queries, nil
}

// Delete removes a query. Unknown ids report NotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.files.Delete(ctx, key(id))
}

func key(id string) string {
	return prefix + id + ".json"
}
