// Package sagalog is the durable audit trail of every state transition a
// checkout saga goes through. Each row carries the trace ids of the span that
// was active when it was written, so a row leads straight to its trace.
package sagalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jcmexdev/storefront/internal/pkg/telemetry"
)

type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

// SagaLog is a single row of the log.
type SagaLog struct {
	SagaID      string
	Status      Status
	CurrentStep string
	// Payload is the JSON input that started the saga, written once on STARTED.
	Payload string
	// ErrorMessages is a JSON array of failure details.
	ErrorMessages string
	TraceID       string
	SpanID        string
	UpdatedAt     time.Time
}

// Repository persists log entries. Save appends; rows are never updated.
type Repository interface {
	Save(ctx context.Context, entry *SagaLog) error
}

// NewEntry builds an entry stamped with the trace of ctx.
//
//	entry := sagalog.NewEntry(ctx, sagaID, sagalog.StatusStepDone, "reserve_stock", "", nil)
//	_ = repo.Save(ctx, entry)
func NewEntry(ctx context.Context, sagaID string, status Status, currentStep, payload string, errs []string) *SagaLog {
	ti := telemetry.ExtractTraceInfo(ctx)

	errJSON := "[]"
	if len(errs) > 0 {
		if b, err := json.Marshal(errs); err == nil {
			errJSON = string(b)
		}
	}

	return &SagaLog{
		SagaID:        sagaID,
		Status:        status,
		CurrentStep:   currentStep,
		Payload:       payload,
		ErrorMessages: errJSON,
		TraceID:       ti.TraceID,
		SpanID:        ti.SpanID,
		UpdatedAt:     time.Now().UTC(),
	}
}
