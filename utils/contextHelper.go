package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	userIdKey        contextKey = "userId"
	correlationIdKey contextKey = "correlationId"
)

// SetUserIdInContext records the already-authenticated actor; the engine performs
// no authorization itself, it only stamps the actor on audit entities.
func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return context.WithValue(ctx, userIdKey, userId)
}

func GetUserIdFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIdKey).(int)
	return id, ok
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return context.WithValue(ctx, correlationIdKey, correlationId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(correlationIdKey).(string)
	return v, ok
}

func CorrelationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
