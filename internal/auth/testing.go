package auth

import "context"

// SetUserIDForTest marks ctx as authenticated for userID, the way Middleware
// does for a token without a display name.
func SetUserIDForTest(ctx context.Context, userID string) context.Context {
	return WithClaims(ctx, &Claims{UserID: userID})
}
