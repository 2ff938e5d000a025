package httpx

import (
	"context"
	"net/http"

	"bookfinder/internal/entity"
)

type contextKey string

const (
	userIDKey    contextKey = "userID"
	requestIDKey contextKey = "requestID"
)

// UserIDFrom retrieves the authenticated user id from the request context.
func UserIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ContextUserSource implements favorites.UserSource from the request context
// populated by AuthMiddleware, so one synchronizer instance serves every
// request-scoped caller.
type ContextUserSource struct{}

func (ContextUserSource) CurrentUser(ctx context.Context) (entity.User, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return entity.User{}, false
	}
	return entity.User{ID: id}, true
}
