package auth

import "context"

type contextKey string

const callerIDKey contextKey = "runweek-caller-id"

// WithCallerID stores the authenticated user id on the context.
func WithCallerID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, callerIDKey, userID)
}

// CallerIDFromContext retrieves the user id stored by WithCallerID.
func CallerIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(callerIDKey).(string)
	return userID, ok
}
