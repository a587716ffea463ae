package gateway

import (
	"context"
	"log/slog"

	"novacall/internal/task"
)

// StatusQueued is reported to the caller once a task is persisted and its
// run is scheduled.
const StatusQueued = "queued"

// SubmitResult is the immediate response to a task submission.
type SubmitResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Scheduler accepts a call id for asynchronous execution.
type Scheduler interface {
	Enqueue(callID string) error
}

// Gateway accepts new call tasks: persist first, then schedule execution.
// The caller never waits on simulated call duration.
type Gateway struct {
	tasks     *task.Repository
	scheduler Scheduler
	log       *slog.Logger
}

func New(tasks *task.Repository, scheduler Scheduler, log *slog.Logger) *Gateway {
	return &Gateway{tasks: tasks, scheduler: scheduler, log: log}
}

// Submit validates and persists the task, then enqueues its run. On queue
// saturation the task stays persisted as pending and the error is surfaced;
// resubmission of the same task id is not a supported operation.
func (g *Gateway) Submit(ctx context.Context, in task.NewCallTask) (SubmitResult, error) {
	id, err := g.tasks.Create(ctx, in)
	if err != nil {
		return SubmitResult{}, err
	}

	if err := g.scheduler.Enqueue(id); err != nil {
		g.log.Error("failed to schedule call run", "call_id", id, "err", err)
		return SubmitResult{}, err
	}

	g.log.Info("call task queued", "call_id", id, "target_phone", in.TargetPhone)
	return SubmitResult{ID: id, Status: StatusQueued}, nil
}
