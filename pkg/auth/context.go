package auth

import (
	"context"
	"fmt"
)

// GetUserIDFromContext returns the token subject, or "" when the request is
// anonymous (auth disabled or no claims).
func GetUserIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok {
		return ""
	}
	return claims.Subject
}

// RequireUserIDFromContext is GetUserIDFromContext for callers that cannot
// proceed anonymously.
func RequireUserIDFromContext(ctx context.Context) (string, error) {
	userID := GetUserIDFromContext(ctx)
	if userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
