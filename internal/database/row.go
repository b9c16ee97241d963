package database

import "github.com/koustreak/sqldesk/internal/errs"

// ScanRows reads the current result set into a slice of maps keyed by column
// name. []byte values are converted to strings so the result encodes as JSON
// text rather than base64.
//
// The returned slice is always non-nil (empty slice on zero rows).
// ScanRows does not close rows, so callers can move on with NextResultSet.
func ScanRows(rows Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	result := make([]map[string]any, 0)

	for rows.Next() {
		// Allocate scan targets as *any so the driver can write any type.
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := dest[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = dest[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}

	return result, nil
}

// ScanAll drains every result set of a batch. The rows are closed on return.
func ScanAll(rows Rows) ([]ResultSet, error) {
	defer rows.Close()

	var sets []ResultSet
	for {
		fields, err := rows.Fields()
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read result metadata", err)
		}
		data, err := ScanRows(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, ResultSet{Fields: fields, Rows: data})

		if !rows.NextResultSet() {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "error moving to next result set", err)
	}
	return sets, nil
}
