// Package dbtest provides in-memory fakes of database.DB, database.Rows and
// database.Connector for tests of the layers above the driver.
package dbtest

import (
	"context"
	"sync"

	"github.com/koustreak/sqldesk/internal/database"
	"github.com/koustreak/sqldesk/internal/errs"
)

// Set is one canned result set. Values are positional per Columns.
type Set struct {
	Columns []string
	Values  [][]any
}

// Rows serves Sets in order.
type Rows struct {
	sets   []Set
	set    int
	row    int
	Closed bool
}

func NewRows(sets ...Set) *Rows {
	if len(sets) == 0 {
		sets = []Set{{}}
	}
	return &Rows{sets: sets}
}

func (r *Rows) Next() bool {
	if r.row >= len(r.sets[r.set].Values) {
		return false
	}
	r.row++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	vals := r.sets[r.set].Values[r.row-1]
	for i := range dest {
		*(dest[i].(*any)) = vals[i]
	}
	return nil
}

func (r *Rows) Columns() ([]string, error) { return r.sets[r.set].Columns, nil }

func (r *Rows) Fields() ([]database.Field, error) {
	cols := r.sets[r.set].Columns
	fields := make([]database.Field, len(cols))
	for i, c := range cols {
		fields[i] = database.Field{Name: c, Type: "VARCHAR", Nullable: true}
	}
	return fields, nil
}

func (r *Rows) NextResultSet() bool {
	if r.set+1 >= len(r.sets) {
		return false
	}
	r.set++
	r.row = 0
	return true
}

func (r *Rows) Close()     { r.Closed = true }
func (r *Rows) Err() error { return nil }

// DB is a scriptable database.DB. Unset funcs return empty results. Every
// statement passed to Query, Exec and RunScript is recorded.
type DB struct {
	QueryFunc  func(sql string, args []any) (database.Rows, error)
	ExecFunc   func(sql string, args []any) (database.ExecResult, error)
	ScriptFunc func(script string) ([]database.ResultSet, error)
	Schema     *database.Schema
	SchemaErr  error
	PingErr    error

	mu          sync.Mutex
	statements  []string
	schemaCalls int
}

func (d *DB) record(sql string) {
	d.mu.Lock()
	d.statements = append(d.statements, sql)
	d.mu.Unlock()
}

// Statements returns everything run so far.
func (d *DB) Statements() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.statements...)
}

// SchemaCalls counts InspectSchema invocations.
func (d *DB) SchemaCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.schemaCalls
}

func (d *DB) Ping(context.Context) error { return d.PingErr }

func (d *DB) Query(_ context.Context, sql string, args ...any) (database.Rows, error) {
	d.record(sql)
	if d.QueryFunc == nil {
		return NewRows(), nil
	}
	return d.QueryFunc(sql, args)
}

func (d *DB) Exec(_ context.Context, sql string, args ...any) (database.ExecResult, error) {
	d.record(sql)
	if d.ExecFunc == nil {
		return database.ExecResult{}, nil
	}
	return d.ExecFunc(sql, args)
}

func (d *DB) RunScript(_ context.Context, script string) ([]database.ResultSet, error) {
	d.record(script)
	if d.ScriptFunc == nil {
		return []database.ResultSet{{Fields: []database.Field{}, Rows: []map[string]any{}}}, nil
	}
	return d.ScriptFunc(script)
}

func (d *DB) InspectSchema(context.Context) (*database.Schema, error) {
	d.mu.Lock()
	d.schemaCalls++
	d.mu.Unlock()
	if d.SchemaErr != nil {
		return nil, d.SchemaErr
	}
	if d.Schema == nil {
		return &database.Schema{Tables: []database.Table{}, ForeignKeys: []database.ForeignKey{}}, nil
	}
	return d.Schema, nil
}

// Connector hands out one DB per database name; params with an empty
// database get the entry for "". Unknown databases fail like a server
// answering "Unknown database".
type Connector struct {
	DBs     map[string]*DB
	OpenErr error

	mu     sync.Mutex
	opened []database.ConnParams
}

func (c *Connector) Open(_ context.Context, p database.ConnParams) (database.DB, error) {
	c.mu.Lock()
	c.opened = append(c.opened, p)
	c.mu.Unlock()

	if c.OpenErr != nil {
		return nil, c.OpenErr
	}
	db, ok := c.DBs[p.Database]
	if !ok {
		return nil, errs.New(errs.ErrKindConnectionFailed, "Unknown database '"+p.Database+"'")
	}
	return db, nil
}

func (c *Connector) Close() error { return nil }

// Opened returns the params of every Open call.
func (c *Connector) Opened() []database.ConnParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]database.ConnParams(nil), c.opened...)
}
