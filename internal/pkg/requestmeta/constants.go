package requestmeta

// contextKey is an unexported type for context keys in this package.
type contextKey string

const (
	HeaderXRequestID      = "X-Request-Id"
	HeaderXIdempotencyKey = "X-Idempotency-Key"

	// ContextKeyRequestID is the context key for the request ID.
	ContextKeyRequestID contextKey = "x-request-id"
	// ContextKeyIdempotencyKey is the context key for the idempotency key.
	ContextKeyIdempotencyKey contextKey = "x-idempotency-key"
)
