package requestmeta

import (
	"net/http"

	"github.com/google/uuid"
)

// Transport stamps outgoing requests with a request id (taken from the
// context or freshly generated) and the context's idempotency key, if any.
type Transport struct {
	Base http.RoundTripper
}

func NewTransport(base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	out := req.Clone(ctx)

	if out.Header.Get(HeaderXRequestID) == "" {
		id := RequestID(ctx)
		if id == "" {
			id = uuid.NewString()
		}
		out.Header.Set(HeaderXRequestID, id)
	}
	if key := IdempotencyKey(ctx); key != "" {
		out.Header.Set(HeaderXIdempotencyKey, key)
	}

	return t.Base.RoundTrip(out)
}
