package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/novuscrm/syncwork/internal/domain"
)

// TickStatus summarizes the outcome of a single processQueue invocation.
type TickStatus string

const (
	TickStatusSuccess TickStatus = "success"
	TickStatusPartial TickStatus = "partial"
	TickStatusError TickStatus = "error"
)

// TickResult aggregates the counts and errors from one tick.
type TickResult struct {
	Status TickStatus
	ItemsProcessed int
	ItemsSucceeded int
	ItemsFailed int
	ItemsRequeued int
	ItemsMaxRetries int
	ItemsRecovered int
	Errors []string
}

const errorEntryMaxLen = 100

func (r *TickResult) addError(jobID string, err error) {
	entry:= fmt.Sprintf("%s: %s", jobID, err.Error())
	if len(entry) > errorEntryMaxLen {
 entry = entry[:errorEntryMaxLen]
	}
	r.Errors = append(r.Errors, entry)
}

// finalize derives the overall tick status from the counts (step 5):
// success if nothing failed, partial if some jobs succeeded and some
// failed, error if every dispatched job failed.
func (r *TickResult) finalize() {
	switch {
	case r.ItemsFailed == 0:
 r.Status = TickStatusSuccess
	case r.ItemsSucceeded > 0:
 r.Status = TickStatusPartial
	default:
 r.Status = TickStatusError
	}
}

// Processor drives a single processQueue tick: recover stuck jobs, fetch a
// bounded batch of eligible pending jobs, and dispatch each in turn to its
// registered handler.
//
// Jobs are processed sequentially within one tick —
// concurrency comes from more tickers or splitting job types across
// endpoints, not from fanning out inside a single tick.
type Processor struct {
	service *Service
	registry *Registry
}

// NewProcessor builds a Processor over a Service and a populated Registry.
func NewProcessor(service *Service, registry *Registry) *Processor {
	return &Processor{service: service, registry: registry}
}

// ProcessQueue runs one tick, optionally restricted to a single job type.
func (p *Processor) ProcessQueue(ctx context.Context, jobType *domain.JobType) (*TickResult, error) {
	result:= &TickResult{}

	recovered, err:= p.service.RecoverStuck(ctx)
	if err != nil {
 return nil, fmt.Errorf("stuck recovery failed: %w", err)
	}
	result.ItemsRecovered = recovered

	jobs, err:= p.service.GetPending(ctx, jobType, domain.DefaultGetPendingLimit)
	if err != nil {
 return nil, fmt.Errorf("failed to fetch pending jobs: %w", err)
	}

	for _, job:= range jobs {
 p.processOne(ctx, job, result)
	}

	result.finalize()
	return result, nil
}

// processOne dispatches a single job and folds its outcome into result.
// Bookkeeping errors here are logged but never abort the loop for other jobs
// (step 3e).
func (p *Processor) processOne(ctx context.Context, job *domain.Job, result *TickResult) {
	claimed, err:= p.service.MarkInProgress(ctx, job.ID)
	if err != nil {
 slog.ErrorContext(ctx, "failed to claim job", "job_id", job.ID, "error", err)
 return
	}
	if !claimed {
 // Claimed by a concurrent ticker between fetch and claim; skip quietly.
 return
	}

	result.ItemsProcessed++

	handler, err:= p.registry.Lookup(job.JobType)
	if err != nil {
 // "unsupported" is a non-retryable pattern, so a missing handler fails
 // the job on its first attempt.
 p.fail(ctx, job, fmt.Errorf("unsupported job type: %w", err), result)
 return
	}

	handlerResult, handlerErr:= p.invoke(ctx, handler, job)
	if handlerErr != nil {
 p.fail(ctx, job, handlerErr, result)
 return
	}

	if err:= p.service.MarkCompleted(ctx, job.ID, handlerResult); err != nil {
 slog.ErrorContext(ctx, "failed to mark job completed", "job_id", job.ID, "error", err)
 return
	}
	result.ItemsSucceeded++
}

// invoke runs the handler in its own panic boundary so a handler bug
// becomes an ordinary job failure instead of aborting the tick. The
// "handler panicked" message matches no non-retryable pattern, so the job
// is requeued until max_attempts like any unrecognized error.
func (p *Processor) invoke(ctx context.Context, handler Handler, job *domain.Job) (res map[string]any, err error) {
	defer func() {
 if r := recover(); r != nil {
 err = fmt.Errorf("handler panicked: %v", r)
 }
	}()
	return handler(ctx, job)
}

func (p *Processor) fail(ctx context.Context, job *domain.Job, handlerErr error, result *TickResult) {
	requeued, err:= p.service.MarkFailedRetry(ctx, job.ID, handlerErr.Error(), nil)
	if err != nil {
 slog.ErrorContext(ctx, "failed to mark job failed", "job_id", job.ID, "error", err)
 return
	}
	result.addError(job.ID, handlerErr)
	result.ItemsFailed++
	if requeued {
 result.ItemsRequeued++
	} else {
 result.ItemsMaxRetries++
	}
}
