package builder

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/koustreak/sqldesk/internal/errs"
)

// WorkspaceConfig bounds the session registry.
type WorkspaceConfig struct {
	// MaxSessions caps live sessions; the least recently used is evicted.
	MaxSessions int `yaml:"max_sessions" validate:"gte=0"`

	// IdleTTL drops sessions untouched for this long. 0 means never.
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

func DefaultWorkspaceConfig() WorkspaceConfig {
	return WorkspaceConfig{MaxSessions: 1024, IdleTTL: time.Hour}
}

// ErrSessionNotFound is returned for unknown, dropped and expired sessions.
var ErrSessionNotFound = errs.New(errs.ErrKindNotFound, "builder session not found")

// Workspaces keeps one Graph per builder session. The HTTP server shares it
// between requests, so every access goes through the registry lock.
type Workspaces struct {
	mu     sync.Mutex
	graphs *expirable.LRU[string, *Graph]
}

// NewWorkspaces returns an empty registry. Zero fields of cfg fall back to
// DefaultWorkspaceConfig.
func NewWorkspaces(cfg WorkspaceConfig) *Workspaces {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultWorkspaceConfig().MaxSessions
	}
	return &Workspaces{graphs: expirable.NewLRU[string, *Graph](cfg.MaxSessions, nil, cfg.IdleTTL)}
}

// Create opens a new empty session and returns its id.
func (w *Workspaces) Create() string {
	id := uuid.NewString()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.graphs.Add(id, NewGraph())
	return id
}

// Drop forgets a session.
func (w *Workspaces) Drop(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.graphs.Remove(id) {
		return ErrSessionNotFound
	}
	return nil
}

// Update runs fn against the session's graph under the registry lock and
// restarts the session's idle timer.
func (w *Workspaces) Update(id string, fn func(g *Graph)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	g, ok := w.graphs.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	fn(g)
	w.graphs.Add(id, g)
	return nil
}

// Snapshot returns a copy of the session's graph.
func (w *Workspaces) Snapshot(id string) ([]Node, []Edge, error) {
	var nodes []Node
	var edges []Edge
	err := w.Update(id, func(g *Graph) {
		nodes, edges = g.Snapshot()
	})
	return nodes, edges, err
}

// Len returns the number of live sessions.
func (w *Workspaces) Len() int {
	return w.graphs.Len()
}
