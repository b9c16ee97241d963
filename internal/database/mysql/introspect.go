package mysql

import (
	"context"
	"database/sql"

	"github.com/koustreak/sqldesk/internal/database"
)

// InspectSchema returns every base table of the current database with its
// columns in ordinal order, plus all foreign keys.
func (d *DB) InspectSchema(ctx context.Context) (*database.Schema, error) {
	tables, err := d.listTables(ctx)
	if err != nil {
		return nil, err
	}

	columns, err := d.listColumns(ctx)
	if err != nil {
		return nil, err
	}

	schema := &database.Schema{
		Tables:      make([]database.Table, 0, len(tables)),
		ForeignKeys: []database.ForeignKey{},
	}
	for _, name := range tables {
		cols := columns[name]
		if cols == nil {
			cols = []database.Column{}
		}
		schema.Tables = append(schema.Tables, database.Table{Name: name, Columns: cols})
	}

	fks, err := d.listForeignKeys(ctx)
	if err != nil {
		return nil, err
	}
	schema.ForeignKeys = append(schema.ForeignKeys, fks...)
	return schema, nil
}

func (d *DB) listTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := d.sqlDB.QueryContext(ctx, q)
	if err != nil {
		return nil, mapError(err, "failed to list tables")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapError(err, "failed to scan table name")
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating tables")
	}
	return tables, nil
}

// listColumns fetches the columns of all tables in one round trip.
func (d *DB) listColumns(ctx context.Context) (map[string][]database.Column, error) {
	const q = `
		SELECT table_name,
		       column_name,
		       column_type,
		       column_key
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		ORDER BY table_name, ordinal_position`

	rows, err := d.sqlDB.QueryContext(ctx, q)
	if err != nil {
		return nil, mapError(err, "failed to fetch columns")
	}
	defer rows.Close()

	out := make(map[string][]database.Column)
	for rows.Next() {
		var table string
		var c database.Column
		var key sql.NullString
		if err := rows.Scan(&table, &c.Name, &c.Type, &key); err != nil {
			return nil, mapError(err, "failed to scan column info")
		}
		c.Key = key.String
		out[table] = append(out[table], c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating columns")
	}
	return out, nil
}

func (d *DB) listForeignKeys(ctx context.Context) ([]database.ForeignKey, error) {
	const q = `
		SELECT table_name,
		       column_name,
		       referenced_table_name,
		       referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE()
		  AND referenced_table_name IS NOT NULL
		ORDER BY table_name, constraint_name, ordinal_position`

	rows, err := d.sqlDB.QueryContext(ctx, q)
	if err != nil {
		return nil, mapError(err, "failed to fetch foreign keys")
	}
	defer rows.Close()

	var fks []database.ForeignKey
	for rows.Next() {
		var fk database.ForeignKey
		if err := rows.Scan(&fk.Table, &fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, mapError(err, "failed to scan foreign key")
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating foreign keys")
	}
	return fks, nil
}
