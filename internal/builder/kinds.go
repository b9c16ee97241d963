package builder

import (
	"fmt"
	"strings"

	"github.com/koustreak/sqldesk/internal/errs"
)

// JoinKind is the join flavour applied to every emitted join clause.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
)

// Keyword returns the SQL keyword emitted for the kind.
func (k JoinKind) Keyword() string {
	switch k {
	case JoinLeft:
		return "LEFT JOIN"
	case JoinRight:
		return "RIGHT JOIN"
	default:
		return "JOIN"
	}
}

func (k JoinKind) String() string {
	switch k {
	case JoinLeft:
		return "LEFT"
	case JoinRight:
		return "RIGHT"
	default:
		return "INNER"
	}
}

// ParseJoinKind accepts both the short names (INNER, LEFT, RIGHT) and the
// keywords the browser sends (JOIN, LEFT JOIN, RIGHT JOIN). Empty means inner.
func ParseJoinKind(s string) (JoinKind, error) {
	switch strings.ToUpper(strings.Join(strings.Fields(s), " ")) {
	case "", "INNER", "JOIN", "INNER JOIN":
		return JoinInner, nil
	case "LEFT", "LEFT JOIN", "LEFT OUTER JOIN":
		return JoinLeft, nil
	case "RIGHT", "RIGHT JOIN", "RIGHT OUTER JOIN":
		return JoinRight, nil
	}
	return JoinInner, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown join kind %q", s))
}

func (k JoinKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *JoinKind) UnmarshalText(text []byte) error {
	parsed, err := ParseJoinKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// EndpointRole records which handle of a column an edge end was drawn from.
type EndpointRole int

const (
	RoleSource EndpointRole = iota
	RoleTarget
)

func (r EndpointRole) String() string {
	if r == RoleTarget {
		return "target"
	}
	return "source"
}

func (r EndpointRole) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *EndpointRole) UnmarshalText(text []byte) error {
	switch string(text) {
	case "source", "":
		*r = RoleSource
	case "target":
		*r = RoleTarget
	default:
		return fmt.Errorf("unknown endpoint role %q", text)
	}
	return nil
}

const (
	sourceSuffix = "-source"
	targetSuffix = "-target"
)

// ParseHandle splits a canvas handle id such as "manager_id-target" into the
// column name and the role. Ids without a known suffix are returned unchanged
// with the fallback role.
func ParseHandle(handle string, fallback EndpointRole) (string, EndpointRole) {
	if col, ok := strings.CutSuffix(handle, sourceSuffix); ok {
		return col, RoleSource
	}
	if col, ok := strings.CutSuffix(handle, targetSuffix); ok {
		return col, RoleTarget
	}
	return handle, fallback
}
