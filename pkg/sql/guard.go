package sql

import (
	"regexp"
	"strings"

	"github.com/ekaya-inc/ekaya-bi/pkg/apperrors"
)

var (
	selectPrefixPattern = regexp.MustCompile(`(?i)^\s*(select|with)\b`)

	forbiddenKeywordPattern = regexp.MustCompile(`(?i)\b(insert|update|delete|merge|drop|alter|create|truncate|grant|revoke)\b`)
)

// EnsureSelectOnly admits analyst SQL that reads like a single SELECT or WITH
// statement. It is a keyword heuristic over the raw text, not a parser: a
// forbidden word inside a string literal or quoted identifier is still
// rejected, and comments are not stripped before the keyword scan.
func EnsureSelectOnly(sqlQuery string) error {
	if strings.TrimSpace(sqlQuery) == "" {
		return apperrors.InvalidInput("SQL is empty.")
	}

	if !selectPrefixPattern.MatchString(sqlQuery) {
		return apperrors.InvalidInput("Only SELECT queries are allowed.")
	}

	if forbiddenKeywordPattern.MatchString(sqlQuery) {
		return apperrors.InvalidInput("Query contains a forbidden keyword.")
	}

	trimmed := strings.TrimSpace(sqlQuery)
	switch strings.Count(trimmed, ";") {
	case 0:
	case 1:
		if !strings.HasSuffix(trimmed, ";") {
			return apperrors.InvalidInput("Multiple statements are not allowed.")
		}
	default:
		return apperrors.InvalidInput("Multiple statements are not allowed.")
	}

	return nil
}

// ForbiddenKeyword returns the first forbidden keyword in sqlQuery, lower-cased,
// or "" when there is none. Used for audit logging of rejected statements.
func ForbiddenKeyword(sqlQuery string) string {
	return strings.ToLower(forbiddenKeywordPattern.FindString(sqlQuery))
}
