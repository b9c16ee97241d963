// Package mysql is the go-sql-driver/mysql implementation of database.DB.
package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/koustreak/sqldesk/internal/database"
	"github.com/koustreak/sqldesk/internal/sqltext"
)

// sessionPrelude relaxes ONLY_FULL_GROUP_BY so ad-hoc GROUP BY queries run
// the way users expect from older servers.
const sessionPrelude = "SET SESSION sql_mode=(SELECT REPLACE(@@sql_mode,'ONLY_FULL_GROUP_BY',''))"

// DB implements database.DB on top of a pooled *sql.DB.
// It is safe for concurrent use by multiple goroutines.
type DB struct {
	sqlDB        *sql.DB
	queryTimeout time.Duration
}

// --- database.DB implementation ---

func (d *DB) Ping(ctx context.Context) error {
	if err := d.sqlDB.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *DB) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := d.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &mysqlRows{rows: rows}, nil
}

func (d *DB) Exec(ctx context.Context, query string, args ...any) (database.ExecResult, error) {
	res, err := d.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return database.ExecResult{}, mapError(err, "statement failed")
	}
	return execResult(res), nil
}

// RunScript applies the session prelude and runs script on a single
// connection. Trailing semicolons are stripped first; the driver treats a
// trailing empty statement as an error when multiStatements is on.
func (d *DB) RunScript(ctx context.Context, script string) ([]database.ResultSet, error) {
	script = sqltext.TrimTrailingSemicolons(script)

	if d.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.queryTimeout)
		defer cancel()
	}

	conn, err := d.sqlDB.Conn(ctx)
	if err != nil {
		return nil, mapError(err, "failed to acquire connection")
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, sessionPrelude); err != nil {
		return nil, mapError(err, "failed to prepare session")
	}

	if !sqltext.AnyReturnsRows(script) {
		return execScript(ctx, conn, script)
	}

	rows, err := conn.QueryContext(ctx, script)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return database.ScanAll(&mysqlRows{rows: rows})
}

// execScript runs a batch without result sets on the driver connection
// itself: database/sql wraps the result and hides the per-statement counts
// of gomysql.Result.
func execScript(ctx context.Context, conn *sql.Conn, script string) ([]database.ResultSet, error) {
	var res driver.Result
	err := conn.Raw(func(dc any) error {
		ex, ok := dc.(driver.ExecerContext)
		if !ok {
			return driver.ErrSkip
		}
		var err error
		res, err = ex.ExecContext(ctx, script, nil)
		return err
	})
	if errors.Is(err, driver.ErrSkip) {
		// not a go-sql-driver connection; one summed result is all we get
		res, err = conn.ExecContext(ctx, script)
	}
	if err != nil {
		return nil, mapError(err, "statement failed")
	}
	return execResultSets(res), nil
}

// execResultSets reports one result per statement of the batch.
func execResultSets(res sql.Result) []database.ResultSet {
	mr, ok := res.(gomysql.Result)
	if !ok {
		return []database.ResultSet{execSet(execResult(res))}
	}

	affected := mr.AllRowsAffected()
	ids := mr.AllLastInsertIds()
	sets := make([]database.ResultSet, len(affected))
	for i := range affected {
		r := database.ExecResult{RowsAffected: affected[i]}
		if i < len(ids) {
			r.LastInsertID = ids[i]
		}
		sets[i] = execSet(r)
	}
	return sets
}

func execSet(r database.ExecResult) database.ResultSet {
	return database.ResultSet{Fields: []database.Field{}, Rows: []map[string]any{}, Result: &r}
}

func execResult(res sql.Result) database.ExecResult {
	var r database.ExecResult
	// go-sql-driver never fails these
	r.RowsAffected, _ = res.RowsAffected()
	r.LastInsertID, _ = res.LastInsertId()
	return r
}

// --- sql.Rows wrapper ---

type mysqlRows struct {
	rows *sql.Rows
}

func (r *mysqlRows) Next() bool                 { return r.rows.Next() }
func (r *mysqlRows) Scan(dest ...any) error     { return r.rows.Scan(dest...) }
func (r *mysqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *mysqlRows) NextResultSet() bool        { return r.rows.NextResultSet() }
func (r *mysqlRows) Close()                     { _ = r.rows.Close() }
func (r *mysqlRows) Err() error                 { return r.rows.Err() }

func (r *mysqlRows) Fields() ([]database.Field, error) {
	types, err := r.rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	fields := make([]database.Field, len(types))
	for i, ct := range types {
		nullable, _ := ct.Nullable()
		fields[i] = database.Field{
			Name:     ct.Name(),
			Type:     ct.DatabaseTypeName(),
			Nullable: nullable,
		}
	}
	return fields, nil
}
