package http

import "context"

// contextKey is a typed key for request context values.
type contextKey string

// claimsContextKey holds the verified token claims (JWT or OIDC).
const claimsContextKey contextKey = "claims"

// ClaimsFromContext returns the claims stored by the auth middleware.
func ClaimsFromContext(ctx context.Context) (map[string]interface{}, bool) {
	claims, ok := ctx.Value(claimsContextKey).(map[string]interface{})
	return claims, ok
}

// SubjectFromContext is the "sub" claim of the caller, or "".
func SubjectFromContext(ctx context.Context) string {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}
