package ctxutil

import (
	"context"
)

type ctxKey string

const operationIDKey ctxKey = "operation_id"

// WithOperationID stores the id of the running store operation in the context.
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operationIDKey, id)
}

// OperationIDFromCtx extracts the operation ID from the context.
// Returns an empty string and false if the value is missing, empty, or wrong type.
func OperationIDFromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(operationIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
