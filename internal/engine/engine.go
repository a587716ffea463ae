package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"novacall/internal/task"
	"novacall/internal/transcript"
	"novacall/pkg/logger"
)

// Runner drives one call from pending to a terminal status. A real telephony
// engine substitutes here without changing the lifecycle contract: exactly one
// status transition per lifecycle stage, transcript entries strictly ordered,
// terminal entry carrying the outcome marker.
type Runner interface {
	Run(ctx context.Context, callID string) error
}

// DefaultStepInterval paces transcript appends to emulate conversational
// cadence for downstream polling UIs.
const DefaultStepInterval = 600 * time.Millisecond

// Config tunes the simulated engine.
type Config struct {
	// StepInterval is the pause between transcript steps. A real engine
	// replaces this with genuine call-duration timing.
	StepInterval time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.StepInterval <= 0 {
		out.StepInterval = DefaultStepInterval
	}
	return out
}

// Engine is the placeholder call executor: a linear script runner with no
// branching or backtracking. It emits a fixed conversation for the task,
// paced by StepInterval, and moves the task pending → in_progress → completed.
type Engine struct {
	tasks       *task.Repository
	transcripts *transcript.Repository
	cfg         Config
}

func New(tasks *task.Repository, transcripts *transcript.Repository, cfg Config) *Engine {
	return &Engine{
		tasks:       tasks,
		transcripts: transcripts,
		cfg:         cfg.withDefaults(),
	}
}

// Run executes the simulated call for callID. It is invoked detached from any
// request, so an unknown id is logged and swallowed rather than raised; every
// other failure is made observable by best-effort marking the task failed.
func (e *Engine) Run(ctx context.Context, callID string) error {
	log := logger.From(ctx).With("call_id", callID)

	t, err := e.tasks.Get(ctx, callID)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			// Deleted or never existed; abort without side effects.
			log.Warn("call task not found, skipping run")
			return nil
		}
		return fmt.Errorf("load task: %w", err)
	}

	if !t.Status.CanTransition(task.StatusInProgress) {
		return fmt.Errorf("%w: %s -> %s", task.ErrInvalidTransition, t.Status, task.StatusInProgress)
	}
	if err := e.tasks.UpdateStatus(ctx, callID, task.StatusInProgress); err != nil {
		return fmt.Errorf("mark in_progress: %w", err)
	}

	log.Info("call started", "target_phone", t.TargetPhone, "voice_model_id", t.VoiceModelID)

	for _, line := range scriptFor(t) {
		if _, err := e.transcripts.Append(ctx, transcript.Entry{
			CallID: callID,
			Role:   line.role,
			Text:   line.text,
		}); err != nil {
			e.markFailed(ctx, log, callID, err)
			return fmt.Errorf("append transcript: %w", err)
		}
		if err := e.pace(ctx); err != nil {
			e.markFailed(ctx, log, callID, err)
			return err
		}
	}

	if _, err := e.transcripts.Append(ctx, transcript.Entry{
		CallID:  callID,
		Role:    transcript.RoleSystem,
		Text:    "Call ended.",
		Outcome: string(task.StatusCompleted),
	}); err != nil {
		e.markFailed(ctx, log, callID, err)
		return fmt.Errorf("append outcome: %w", err)
	}

	if err := e.tasks.UpdateStatus(ctx, callID, task.StatusCompleted); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	log.Info("call completed")
	return nil
}

// pace suspends between transcript steps. Cooperative: holds no locks and
// yields to ctx cancellation, so concurrent runs are unaffected.
func (e *Engine) pace(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.cfg.StepInterval):
		return nil
	}
}

// markFailed moves the task to failed so a run aborted mid-script is never
// left silently stuck in in_progress. Best-effort: the original error wins.
func (e *Engine) markFailed(ctx context.Context, log *slog.Logger, callID string, cause error) {
	log.Error("call run aborted", "err", cause)
	if err := e.tasks.UpdateStatus(context.WithoutCancel(ctx), callID, task.StatusFailed); err != nil {
		log.Error("failed to mark task failed", "err", err)
	}
}
