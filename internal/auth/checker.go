package auth

import "context"

var _ Checker = (*LoginChecker)(nil)
var _ Checker = (*LoginTestChecker)(nil)

// Checker resolves a session token to the user it was issued for.
// Sessions are issued by the account service; this service only reads them.
type Checker interface {
	LoggedUser(ctx context.Context, token string) (userID string, logged bool, err error)
}

type userContextKey struct{}

// ContextWithUser marks the request context as authenticated for userID.
func ContextWithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey{}, userID)
}

// UserFromContext returns the authenticated user of the request, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userContextKey{}).(string)
	return userID, ok && userID != ""
}
