// Package journal records every checkout attempt the client makes. It is an
// append-only audit trail: one STARTED row per attempt followed by exactly
// one outcome row. Rows carry the trace ids of the span that was active so an
// attempt can be matched to its distributed trace.
package journal

import (
	"context"
	"time"

	"github.com/jcmexdev/storefront/internal/pkg/telemetry"
)

type Status string

const (
	StatusStarted Status = "STARTED"
	StatusPaid    Status = "PAID"
	// StatusFailed means the server answered with a status other than PAID.
	StatusFailed Status = "FAILED"
	// StatusError means no answer was obtained (transport or HTTP failure).
	StatusError Status = "ERROR"
)

// Entry is a single journal row.
type Entry struct {
	AttemptID string
	UserID    string
	Status    Status
	// OrderID is zero until the server has assigned one.
	OrderID int64
	// Total is the server's total for outcome rows and the cart's total for STARTED.
	Total      string
	Lines      int
	Error      string
	TraceID    string
	SpanID     string
	RecordedAt time.Time
}

// Recorder persists entries. Implementations must be safe for concurrent use.
type Recorder interface {
	Save(ctx context.Context, e *Entry) error
}

// NewEntry builds an entry stamped with the trace of ctx and the current time.
func NewEntry(ctx context.Context, attemptID, userID string, status Status) *Entry {
	ti := telemetry.ExtractTraceInfo(ctx)
	return &Entry{
		AttemptID:  attemptID,
		UserID:     userID,
		Status:     status,
		TraceID:    ti.TraceID,
		SpanID:     ti.SpanID,
		RecordedAt: time.Now().UTC(),
	}
}
