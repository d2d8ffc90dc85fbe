package schema

// convert.go turns raw CSV cell values into pgtype values for database
// writes. Each helper returns an invalid pgtype value when the cell
// does not parse, which the type predicates in schema.go rely on.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

var integerRegex = regexp.MustCompile(`^[+-]?\d+$`)

func toText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func toInt8(s string) pgtype.Int8 {
	s = strings.TrimSpace(s)
	if !integerRegex.MatchString(s) {
		return pgtype.Int8{}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: n, Valid: true}
}

func toFloat8(s string) pgtype.Float8 {
	s = strings.TrimSpace(s)

	// Accounting format "(12.34)" means negative.
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.TrimSpace(s[1:len(s)-1])
	}
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return pgtype.Float8{}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: f, Valid: true}
}

// checkTimestamp validates a raw timestamp cell. When the column
// declares a pattern the pattern is authoritative; otherwise the value
// must parse as RFC 3339.
func checkTimestamp(s string, pattern *regexp.Regexp) bool {
	s = strings.TrimSpace(s)
	if pattern != nil {
		return pattern.MatchString(s)
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

// Value converts a raw cell into the typed database value for the
// column. Null (empty) cells become invalid pgtype values, which pgx
// encodes as SQL NULL. Callers validate rows before converting, so a
// non-null cell is already known to pass Check.
func (c Column) Value(raw string) any {
	raw = strings.TrimSpace(raw)
	switch c.Type {
	case TypeInteger:
		return toInt8(raw)
	case TypeFloat:
		return toFloat8(raw)
	default:
		// Timestamps are pattern-constrained strings and are stored
		// as received.
		return toText(raw)
	}
}
