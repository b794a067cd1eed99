package requestmeta

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// AttachRequestMetadata copies the request id assigned by chi's RequestID
// middleware and the caller's idempotency key into typed context values.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		idempotencyKey := r.Header.Get(HeaderXIdempotencyKey)

		ctx := WithRequestID(r.Context(), requestID)
		ctx = WithIdempotencyKey(ctx, idempotencyKey)

		if requestID != "" {
			w.Header().Set(HeaderXRequestID, requestID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
