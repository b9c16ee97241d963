package database

import "context"

// DB is the central contract for everything SQLDesk runs against a server.
// All layers above this package talk only to this interface;
// they never import the mysql package directly.
type DB interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Query executes a statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, sql string, args ...any) (ExecResult, error)

	// RunScript executes user-supplied SQL, possibly several statements, on
	// one connection after applying the session prelude. Every statement
	// contributes one ResultSet, in order.
	RunScript(ctx context.Context, script string) ([]ResultSet, error)

	// InspectSchema returns tables, columns and foreign keys of the current
	// database. This is an expensive operation; callers should cache it.
	InspectSchema(ctx context.Context) (*Schema, error)
}

// Connector hands out a DB for a set of browser-supplied credentials.
type Connector interface {
	// Open returns a verified handle. Handles are pooled; callers do not close them.
	Open(ctx context.Context, p ConnParams) (DB, error)

	// Close releases every pool.
	Close() error
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the current result set.
	Columns() ([]string, error)

	// Fields returns name and type metadata of the current result set.
	Fields() ([]Field, error)

	// NextResultSet moves to the next statement's results of a batch.
	NextResultSet() bool

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// ExecResult reports what a row-less statement did.
type ExecResult struct {
	RowsAffected int64 `json:"affectedRows"`
	LastInsertID int64 `json:"insertId"`
}

// Field describes one column of a result set.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// ResultSet is the materialised output of one statement. Statements that
// produce no rows leave Fields and Rows empty; a lone row-less statement also
// reports its ExecResult.
type ResultSet struct {
	Fields []Field          `json:"fields"`
	Rows   []map[string]any `json:"rows"`
	Result *ExecResult      `json:"result,omitempty"`
}

// HasRows reports whether the statement produced a row set at all.
func (r ResultSet) HasRows() bool {
	return len(r.Fields) > 0
}
