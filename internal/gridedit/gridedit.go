// Package gridedit turns pending cell edits from the result grid into
// UPDATE statements guarded by the row's original values.
//
// The WHERE clause repeats every column of the untouched row and the
// statement is capped with LIMIT 1, so an edit only lands if the row still
// looks the way the user saw it. There is no transaction and no conflict
// reporting: a row changed by someone else simply matches nothing.
package gridedit

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/koustreak/sqldesk/internal/database"
)

// Field is the grid's column metadata. OrgTable is the underlying table
// when Table is an alias.
type Field struct {
	Name     string `json:"name" validate:"required"`
	Table    string `json:"table"`
	OrgTable string `json:"orgTable"`
}

// Edit is one changed cell.
type Edit struct {
	RowID       int            `json:"rowId"`
	Column      string         `json:"col" validate:"required"`
	Value       any            `json:"value"`
	OriginalRow map[string]any `json:"originalRow"`
}

// Plan is the outcome of Build.
type Plan struct {
	Statements []string `json:"statements"`
	// Skipped counts rows whose table could not be determined.
	Skipped int `json:"skipped"`
}

// SQL joins the statements the way they are sent for execution.
func (p Plan) SQL() string {
	return strings.Join(p.Statements, "\n")
}

// Build groups edits by row, in the order rows were first edited, and emits
// one UPDATE per row.
func Build(fields []Field, edits []Edit) Plan {
	var order []int
	byRow := make(map[int][]Edit)
	for _, e := range edits {
		if _, seen := byRow[e.RowID]; !seen {
			order = append(order, e.RowID)
		}
		byRow[e.RowID] = append(byRow[e.RowID], e)
	}

	plan := Plan{Statements: []string{}}
	for _, rowID := range order {
		rowEdits := byRow[rowID]
		table := tableOf(fields, rowEdits[0].Column)
		if table == "" {
			plan.Skipped++
			continue
		}
		plan.Statements = append(plan.Statements, updateStatement(table, fields, rowEdits))
	}
	return plan
}

func tableOf(fields []Field, column string) string {
	for _, f := range fields {
		if f.Name != column {
			continue
		}
		if f.OrgTable != "" {
			return f.OrgTable
		}
		return f.Table
	}
	return ""
}

func updateStatement(table string, fields []Field, edits []Edit) string {
	set := make([]string, len(edits))
	for i, e := range edits {
		set[i] = database.QuoteIdent(e.Column) + " = " + Literal(e.Value)
	}

	original := edits[0].OriginalRow
	where := make([]string, len(fields))
	for i, f := range fields {
		v, ok := original[f.Name]
		if !ok || v == nil {
			where[i] = database.QuoteIdent(f.Name) + " IS NULL"
			continue
		}
		where[i] = database.QuoteIdent(f.Name) + " = " + Literal(v)
	}

	return fmt.Sprintf("UPDATE %s SET %s WHERE %s LIMIT 1;",
		database.QuoteIdent(table),
		strings.Join(set, ", "),
		strings.Join(where, " AND "),
	)
}

// Literal renders v as a SQL literal: NULL, a bare number, or a quoted
// string with single quotes doubled.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case json.Number:
		if _, ok := new(big.Float).SetString(x.String()); ok {
			return x.String()
		}
		return quote(x.String())
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case string:
		return quote(x)
	default:
		return quote(fmt.Sprint(x))
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
