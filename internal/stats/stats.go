// Package stats reads server-wide information for the dashboard, server
// status and client connection views.
package stats

import (
	"context"
	"fmt"
	"strconv"

	"github.com/koustreak/sqldesk/internal/database"
	"github.com/koustreak/sqldesk/internal/errs"
)

const dashboardSQL = `SELECT table_schema AS schema_name,
       COUNT(*) AS table_count,
       ROUND(SUM(data_length + index_length) / 1024 / 1024, 2) AS size_mb
FROM information_schema.tables
WHERE table_schema NOT IN ('information_schema', 'performance_schema', 'mysql', 'sys')
GROUP BY table_schema
ORDER BY table_schema`

const serverInfoSQL = `SELECT VERSION() AS version, USER() AS user, @@hostname AS hostname,
       @@port AS port, @@datadir AS datadir`

const uptimeSQL = "SHOW GLOBAL STATUS LIKE 'Uptime'"

// SchemaSize is one dashboard row.
type SchemaSize struct {
	Schema     string  `json:"schema_name"`
	TableCount int64   `json:"table_count"`
	SizeMB     float64 `json:"size_mb"`
}

// ServerStatus describes the server the session is connected to.
type ServerStatus struct {
	Version  string `json:"version"`
	User     string `json:"user"`
	Hostname string `json:"hostname"`
	Port     int64  `json:"port"`
	DataDir  string `json:"datadir"`
	// Uptime is in seconds.
	Uptime int64 `json:"uptime"`
}

// Dashboard lists user schemas with their table count and size.
func Dashboard(ctx context.Context, db database.DB) ([]SchemaSize, error) {
	rows, err := queryMaps(ctx, db, dashboardSQL)
	if err != nil {
		return nil, err
	}

	out := make([]SchemaSize, 0, len(rows))
	for _, r := range rows {
		out = append(out, SchemaSize{
			Schema:     asString(r["schema_name"]),
			TableCount: asInt(r["table_count"]),
			SizeMB:     asFloat(r["size_mb"]),
		})
	}
	return out, nil
}

// Status reports version, identity, data directory and uptime.
func Status(ctx context.Context, db database.DB) (*ServerStatus, error) {
	info, err := queryMaps(ctx, db, serverInfoSQL)
	if err != nil {
		return nil, err
	}
	if len(info) == 0 {
		return nil, errs.New(errs.ErrKindQueryFailed, "server returned no status row")
	}

	st := &ServerStatus{
		Version:  asString(info[0]["version"]),
		User:     asString(info[0]["user"]),
		Hostname: asString(info[0]["hostname"]),
		Port:     asInt(info[0]["port"]),
		DataDir:  asString(info[0]["datadir"]),
	}

	uptime, err := queryMaps(ctx, db, uptimeSQL)
	if err != nil {
		return nil, err
	}
	if len(uptime) > 0 {
		st.Uptime = asInt(uptime[0]["Value"])
	}
	return st, nil
}

// Processes returns SHOW PROCESSLIST as-is.
func Processes(ctx context.Context, db database.DB) ([]map[string]any, error) {
	return queryMaps(ctx, db, "SHOW PROCESSLIST")
}

// Kill terminates the connection with the given process id.
func Kill(ctx context.Context, db database.DB, id int64) error {
	if id <= 0 {
		return errs.New(errs.ErrKindInvalidInput, "Invalid process id")
	}
	_, err := db.Exec(ctx, fmt.Sprintf("KILL %d", id))
	return err
}

func queryMaps(ctx context.Context, db database.DB, sql string) ([]map[string]any, error) {
	rows, err := db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return database.ScanRows(rows)
}

// The driver hands back int64 for integers and strings for DECIMAL and
// SHOW STATUS values.

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func asInt(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case uint64:
		return int64(x)
	case float64:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	default:
		return 0
	}
}
