package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqldesk/internal/database"
	"github.com/koustreak/sqldesk/internal/errs"
)

func TestBuildDSN(t *testing.T) {
	cfg := database.DefaultPoolConfig()
	cfg.ConnectTimeout = 5 * time.Second

	dsn := buildDSN(cfg, database.ConnParams{
		Host:     "db.local",
		User:     "root",
		Password: "p@ss:word",
		Database: "shop",
	})

	parsed, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "root", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "db.local:3306", parsed.Addr)
	assert.Equal(t, "shop", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.True(t, parsed.MultiStatements)
	assert.Equal(t, 5*time.Second, parsed.Timeout)
}

func TestBuildDSN_ServerOnly(t *testing.T) {
	p := database.ConnParams{Host: "::1", User: "u", Database: "x", Port: 3310}
	parsed, err := gomysql.ParseDSN(buildDSN(database.DefaultPoolConfig(), p.WithoutDatabase()))
	require.NoError(t, err)
	assert.Equal(t, "[::1]:3310", parsed.Addr)
	assert.Empty(t, parsed.DBName)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"canceled", fmt.Errorf("wrapped: %w", context.Canceled), errs.ErrKindTimeout},
		{"no rows", sql.ErrNoRows, errs.ErrKindNotFound},
		{"access denied", &gomysql.MySQLError{Number: 1045, Message: "Access denied"}, errs.ErrKindConnectionFailed},
		{"unknown db", &gomysql.MySQLError{Number: 1049, Message: "Unknown database"}, errs.ErrKindConnectionFailed},
		{"table access", &gomysql.MySQLError{Number: 1142, Message: "SELECT command denied"}, errs.ErrKindPermissionDenied},
		{"syntax", &gomysql.MySQLError{Number: 1064, Message: "You have an error"}, errs.ErrKindQueryFailed},
		{"killed", &gomysql.MySQLError{Number: 1317, Message: "interrupted"}, errs.ErrKindTimeout},
		{"network", errors.New("dial tcp: connection refused"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(tt.err, "query failed")
			assert.Equal(t, tt.kind, errs.KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, mapError(nil, "nothing"))
}

func TestMapError_KeepsServerMessage(t *testing.T) {
	err := mapError(&gomysql.MySQLError{Number: 1146, Message: "Table 'shop.nope' doesn't exist"}, "query failed")
	assert.Contains(t, errs.Message(err), "query failed: Table 'shop.nope' doesn't exist")
}

func TestPools_OpenUnreachable(t *testing.T) {
	cfg := database.DefaultPoolConfig()
	cfg.ConnectTimeout = 200 * time.Millisecond
	ps := NewPools(cfg, nil)
	defer ps.Close()

	// port 1 on loopback refuses immediately
	_, err := ps.Open(context.Background(), database.ConnParams{Host: "127.0.0.1", Port: 1, User: "root"})
	require.Error(t, err)
	assert.True(t, errs.IsConnectionFailed(err) || errs.IsTimeout(err))
	assert.Empty(t, ps.pools)
}

type batchResult struct {
	affected []int64
	ids      []int64
}

func (r batchResult) LastInsertId() (int64, error) { return r.ids[len(r.ids)-1], nil }
func (r batchResult) RowsAffected() (int64, error) { return r.affected[len(r.affected)-1], nil }
func (r batchResult) AllRowsAffected() []int64 { return r.affected }
func (r batchResult) AllLastInsertIds() []int64 { return r.ids }

type plainResult struct{}

func (plainResult) LastInsertId() (int64, error) { return 7, nil }
func (plainResult) RowsAffected() (int64, error) { return 3, nil }

func TestExecResultSets_OnePerStatement(t *testing.T) {
	var _ gomysql.Result = batchResult{}

	sets := execResultSets(batchResult{
		affected: []int64{1, 0, 4},
		ids:      []int64{42, 0, 0},
	})
	require.Len(t, sets, 3)

	want := []database.ExecResult{
		{RowsAffected: 1, LastInsertID: 42},
		{RowsAffected: 0, LastInsertID: 0},
		{RowsAffected: 4, LastInsertID: 0},
	}
	for i, set := range sets {
		assert.Empty(t, set.Fields)
		assert.Empty(t, set.Rows)
		require.NotNil(t, set.Result)
		assert.Equal(t, want[i], *set.Result, "statement %d", i)
	}
}

func TestExecResultSets_PlainResult(t *testing.T) {
	sets := execResultSets(plainResult{})
	require.Len(t, sets, 1)
	require.NotNil(t, sets[0].Result)
	assert.Equal(t, database.ExecResult{RowsAffected: 3, LastInsertID: 7}, *sets[0].Result)
}
