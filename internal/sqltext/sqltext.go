// Package sqltext holds the small text heuristics the editor relies on:
// picking the statement under the cursor, trimming terminators and
// guessing whether a statement yields rows.
//
// None of it is a SQL parser. Semicolons inside string literals or comments
// are treated as statement separators.
package sqltext

import (
	"strings"
	"unicode"
	"unicode/utf16"
)

// StatementAt returns the trimmed statement containing offset. The text is
// split on every ';' and offset is measured in UTF-16 code units, the unit
// browser editors report cursor positions in. A statement owns its
// terminating semicolon, so a cursor right after ';' still selects it.
// Offsets past the end fall back to the whole text, trimmed.
func StatementAt(text string, offset int) string {
	units := utf16.Encode([]rune(text))

	start := 0
	for i := 0; i <= len(units); i++ {
		if i < len(units) && units[i] != ';' {
			continue
		}
		// chunk is units[start:i]; it spans len+1 units including ';'
		if i+1 >= offset {
			return strings.TrimSpace(string(utf16.Decode(units[start:i])))
		}
		start = i + 1
	}
	return strings.TrimSpace(text)
}

// Pick resolves what the editor should run: a non-blank selection wins,
// otherwise the statement at the cursor.
func Pick(text, selection string, offset int) string {
	if strings.TrimSpace(selection) != "" {
		return selection
	}
	return StatementAt(text, offset)
}

// TrimTrailingSemicolons removes trailing ';' and whitespace, repeatedly.
func TrimTrailingSemicolons(sql string) string {
	s := strings.TrimSpace(sql)
	for strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	}
	return s
}

// FirstKeyword returns the upper-cased first word of sql, skipping leading
// whitespace, comments and opening parentheses.
func FirstKeyword(sql string) string {
	s := skipNoise(sql)
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	})
	if end < 0 {
		end = len(s)
	}
	return strings.ToUpper(s[:end])
}

var rowKeywords = map[string]bool{
	"SELECT":   true,
	"SHOW":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"EXPLAIN":  true,
	"WITH":     true,
	"TABLE":    true,
	"VALUES":   true,
	"CALL":     true,
	// table maintenance statements answer with a status table
	"CHECK":    true,
	"CHECKSUM": true,
	"ANALYZE":  true,
	"OPTIMIZE": true,
	"REPAIR":   true,
	"HELP":     true,
}

// ReturnsRows reports whether a single statement is expected to produce a
// result set. CALL counts, since procedures may select.
func ReturnsRows(sql string) bool {
	return rowKeywords[FirstKeyword(sql)]
}

// Split cuts script on every ';' and drops blank pieces. It shares the
// limits of StatementAt: quotes and comments are not understood.
func Split(script string) []string {
	var out []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// AnyReturnsRows reports whether some statement of script is expected to
// produce a result set. A piece cut out of a string literal can only turn
// the answer into true.
func AnyReturnsRows(script string) bool {
	for _, s := range Split(script) {
		if ReturnsRows(s) {
			return true
		}
	}
	return false
}

func skipNoise(s string) string {
	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '(' })
		switch {
		case strings.HasPrefix(s, "--"), strings.HasPrefix(s, "#"):
			nl := strings.IndexByte(s, '\n')
			if nl < 0 {
				return ""
			}
			s = s[nl+1:]
		case strings.HasPrefix(s, "/*"):
			end := strings.Index(s[2:], "*/")
			if end < 0 {
				return ""
			}
			s = s[end+4:]
		default:
			return s
		}
	}
}
