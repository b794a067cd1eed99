package requestmeta

import "context"

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, id)
}

// WithIdempotencyKey marks every request issued with ctx as a retry of the
// same logical operation.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ContextKeyIdempotencyKey, key)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}

func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(ContextKeyIdempotencyKey).(string)
	return key
}
