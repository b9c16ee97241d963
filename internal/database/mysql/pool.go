package mysql

import (
	"context"
	"database/sql"
	"net"
	"strconv"
	"sync"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/koustreak/sqldesk/internal/database"
	"github.com/koustreak/sqldesk/internal/errs"
	"github.com/koustreak/sqldesk/internal/logger"
)

// Pools implements database.Connector. It keeps one *sql.DB per distinct
// set of credentials so repeated browser requests reuse connections.
// It is safe for concurrent use by multiple goroutines.
type Pools struct {
	cfg *database.PoolConfig
	log *logger.Logger

	mu    sync.Mutex
	pools map[string]*DB
}

// NewPools returns an empty pool registry. A nil cfg means DefaultPoolConfig.
func NewPools(cfg *database.PoolConfig, log *logger.Logger) *Pools {
	if cfg == nil {
		cfg = database.DefaultPoolConfig()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Pools{cfg: cfg, log: log, pools: make(map[string]*DB)}
}

// Open returns the pooled handle for p, creating and pinging it on first use.
func (ps *Pools) Open(ctx context.Context, p database.ConnParams) (database.DB, error) {
	dsn := buildDSN(ps.cfg, p)

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if db, ok := ps.pools[dsn]; ok {
		return db, nil
	}

	sqlDB, err := buildPool(ps.cfg, dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, ps.cfg.ConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, mapError(err, "connect failed")
	}

	db := &DB{sqlDB: sqlDB, queryTimeout: ps.cfg.QueryTimeout}
	ps.pools[dsn] = db
	ps.log.With().Str("conn", p.Key()).Logger().Info("opened mysql pool")
	return db, nil
}

// Close shuts every pool down.
func (ps *Pools) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	var firstErr error
	for dsn, db := range ps.pools {
		if err := db.sqlDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(ps.pools, dsn)
	}
	return firstErr
}

// buildPool configures and returns a *sql.DB with pool settings
func buildPool(cfg *database.PoolConfig, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

// buildDSN constructs the MySQL DSN string.
// parseTime makes DATETIME scan as time.Time; multiStatements allows
// script execution and imports.
func buildDSN(cfg *database.PoolConfig, p database.ConnParams) string {
	c := gomysql.NewConfig()
	c.User = p.User
	c.Passwd = p.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(p.Host, strconv.Itoa(p.Port.Int()))
	c.DBName = p.Database
	c.ParseTime = true
	c.MultiStatements = true
	c.Timeout = cfg.ConnectTimeout
	c.TLSConfig = cfg.TLS
	return c.FormatDSN()
}
