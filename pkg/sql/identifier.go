// Package sql validates and assembles the SQL that the query endpoints send to
// registered databases.
package sql

import (
	"regexp"
	"strings"

	"github.com/ekaya-inc/ekaya-bi/pkg/apperrors"
)

// segmentPattern is the allow-list for one dot-separated identifier segment.
var segmentPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// EnsureValid checks that identifier is a plain, optionally dot-qualified
// table or column name. Identifiers cannot be bound as parameters, so this is
// the only thing standing between request input and the SQL text.
// field names the request field in the error message.
func EnsureValid(identifier, field string) error {
	if strings.TrimSpace(identifier) == "" {
		return apperrors.InvalidInput("%s is empty.", field)
	}

	segments := Segments(identifier)
	if len(segments) == 0 {
		return apperrors.InvalidInput("Invalid %s: '%s'.", field, identifier)
	}
	for _, seg := range segments {
		if !segmentPattern.MatchString(seg) {
			return apperrors.InvalidInput("Invalid %s: '%s'.", field, identifier)
		}
	}
	return nil
}

// Segments splits identifier on '.' and drops empty parts.
func Segments(identifier string) []string {
	parts := strings.Split(identifier, ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitQualified splits a table name into schema and name using the same
// segments as EnsureValid: the first segment is the schema and the rest is
// the name. Unqualified names get defaultSchema.
func SplitQualified(table, defaultSchema string) (schema, name string) {
	segments := Segments(table)
	switch len(segments) {
	case 0:
		return defaultSchema, ""
	case 1:
		return defaultSchema, segments[0]
	default:
		return segments[0], strings.Join(segments[1:], ".")
	}
}
