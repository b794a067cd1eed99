// Package saga runs a sequence of steps and, when one fails, compensates the
// steps that already succeeded in reverse order. Every transition is written
// to an optional saga log.
package saga

import (
	"context"
	"log/slog"

	"github.com/jcmexdev/storefront/internal/backend/saga/sagalog"
)

// Step is a single unit of work with a compensating action that undoes it.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

type Orchestrator struct {
	sagaID  string
	payload string
	steps   []Step
	log     sagalog.Repository
}

// NewOrchestrator builds a saga. repo may be nil, in which case transitions
// are only logged, not persisted.
func NewOrchestrator(sagaID, payload string, steps []Step, repo sagalog.Repository) *Orchestrator {
	return &Orchestrator{sagaID: sagaID, payload: payload, steps: steps, log: repo}
}

// Start runs the steps in order. On the first failure the successful steps
// are compensated LIFO and the step's error is returned.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.record(ctx, sagalog.StatusStarted, "", o.payload, nil)

	var done []Step
	for _, step := range o.steps {
		slog.DebugContext(ctx, "executing saga step", "saga_id", o.sagaID, "step", step.Name())
		if err := step.Execute(ctx); err != nil {
			slog.WarnContext(ctx, "saga step failed, compensating", "saga_id", o.sagaID, "step", step.Name(), "error", err)
			o.record(ctx, sagalog.StatusCompensating, step.Name(), "", []string{step.Name() + " failed: " + err.Error()})
			errs := o.rollback(ctx, done)
			o.record(ctx, sagalog.StatusFailed, step.Name(), "", append([]string{err.Error()}, errs...))
			return err
		}
		done = append(done, step)
		o.record(ctx, sagalog.StatusStepDone, step.Name(), "", nil)
	}

	o.record(ctx, sagalog.StatusCompleted, "", "", nil)
	slog.DebugContext(ctx, "saga completed", "saga_id", o.sagaID)
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, steps []Step) []string {
	var errs []string
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "CRITICAL: compensation failed", "saga_id", o.sagaID, "step", step.Name(), "error", err)
			errs = append(errs, "compensation of "+step.Name()+" failed: "+err.Error())
		}
	}
	return errs
}

func (o *Orchestrator) record(ctx context.Context, status sagalog.Status, step, payload string, errs []string) {
	if o.log == nil {
		return
	}
	if err := o.log.Save(ctx, sagalog.NewEntry(ctx, o.sagaID, status, step, payload, errs)); err != nil {
		slog.WarnContext(ctx, "saga log write failed", "saga_id", o.sagaID, "status", status, "error", err)
	}
}
