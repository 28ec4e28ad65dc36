package docqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/novuscrm/syncwork/internal/domain"
)

// TickStatus mirrors internal/queue.TickStatus for the document-task tick.
type TickStatus string

const (
	TickStatusSuccess TickStatus = "success"
	TickStatusPartial TickStatus = "partial"
	TickStatusError TickStatus = "error"
)

// TickResult aggregates the counts and errors from one document-queue tick.
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

func (r *TickResult) addError(taskID string, err error) {
	entry:= fmt.Sprintf("%s: %s", taskID, err.Error())
	if len(entry) > errorEntryMaxLen {
 entry = entry[:errorEntryMaxLen]
	}
	r.Errors = append(r.Errors, entry)
}

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

// Processor drives a single document-queue tick over the built-in Pipeline.
// There is no handler registry to consult here: every task runs the
// same pipeline.
type Processor struct {
	service *Service
	pipeline *Pipeline
}

// NewProcessor builds a Processor over a Service and a Pipeline.
func NewProcessor(service *Service, pipeline *Pipeline) *Processor {
	return &Processor{service: service, pipeline: pipeline}
}

// ProcessQueue runs one tick.
func (p *Processor) ProcessQueue(ctx context.Context) (*TickResult, error) {
	result:= &TickResult{}

	recovered, err:= p.service.RecoverStuck(ctx)
	if err != nil {
 return nil, fmt.Errorf("stuck recovery failed: %w", err)
	}
	result.ItemsRecovered = recovered

	tasks, err:= p.service.GetPending(ctx, domain.DefaultGetPendingLimit)
	if err != nil {
 return nil, fmt.Errorf("failed to fetch pending document tasks: %w", err)
	}

	for _, task:= range tasks {
 p.processOne(ctx, task, result)
	}

	result.finalize()
	return result, nil
}

func (p *Processor) processOne(ctx context.Context, task *domain.DocumentTask, result *TickResult) {
	claimed, err:= p.service.MarkInProgress(ctx, task.ID)
	if err != nil {
 slog.ErrorContext(ctx, "failed to claim document task", "task_id", task.ID, "error", err)
 return
	}
	if !claimed {
 return
	}

	result.ItemsProcessed++

	pipelineResult, pipelineErr:= p.invoke(ctx, task)
	if pipelineErr != nil {
 p.fail(ctx, task, pipelineErr, result)
 return
	}

	if err:= p.service.MarkCompleted(ctx, task.ID, pipelineResult); err != nil {
 slog.ErrorContext(ctx, "failed to mark document task completed", "task_id", task.ID, "error", err)
 return
	}
	result.ItemsSucceeded++
}

// invoke runs the pipeline in its own panic boundary, matching
// internal/queue.Processor.invoke: a pipeline bug becomes an ordinary,
// retryable task failure instead of aborting the tick.
func (p *Processor) invoke(ctx context.Context, task *domain.DocumentTask) (res map[string]any, err error) {
	defer func() {
 if r := recover(); r != nil {
 err = fmt.Errorf("pipeline panicked: %v", r)
 }
	}()
	return p.pipeline.Run(ctx, task)
}

func (p *Processor) fail(ctx context.Context, task *domain.DocumentTask, pipelineErr error, result *TickResult) {
	requeued, err:= p.service.MarkFailedRetry(ctx, task.ID, pipelineErr.Error(), nil)
	if err != nil {
 slog.ErrorContext(ctx, "failed to mark document task failed", "task_id", task.ID, "error", err)
 return
	}
	result.addError(task.ID, pipelineErr)
	result.ItemsFailed++
	if requeued {
 result.ItemsRequeued++
	} else {
 result.ItemsMaxRetries++
	}
}
