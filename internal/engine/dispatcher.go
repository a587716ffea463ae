package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"novacall/pkg/utils"
)

var (
	// ErrQueueFull is returned when the submission queue is saturated;
	// callers surface backpressure instead of blocking the request.
	ErrQueueFull = errors.New("engine: run queue is full")
	// ErrStopped is returned when the dispatcher no longer accepts work.
	ErrStopped = errors.New("engine: dispatcher stopped")
)

const activeCallsKey = "novacall:engine:active_calls"

// DispatcherConfig tunes the background run facility.
type DispatcherConfig struct {
	Workers   int
	QueueSize int

	// MaxActiveCalls bounds simultaneous runs process-wide via a Redis
	// concurrency cap. Zero disables the cap (and the Redis dependency).
	MaxActiveCalls int

	// CapTTL guards against leaked cap slots on crash. Should exceed the
	// longest plausible simulated call.
	CapTTL time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	out := c
	if out.Workers <= 0 {
		out.Workers = 4
	}
	if out.QueueSize <= 0 {
		out.QueueSize = 64
	}
	if out.CapTTL <= 0 {
		out.CapTTL = 5 * time.Minute
	}
	return out
}

// Dispatcher is the bounded queue between the submission gateway and the
// engine. A fixed worker pool consumes call ids; Enqueue never blocks, and
// Stop drains in-flight runs before returning.
type Dispatcher struct {
	runner Runner
	cfg    DispatcherConfig
	log    *slog.Logger
	rdb    *redis.Client

	queue chan string
	wg    sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewDispatcher creates a dispatcher; rdb may be nil when MaxActiveCalls is 0.
func NewDispatcher(runner Runner, rdb *redis.Client, cfg DispatcherConfig, log *slog.Logger) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		runner: runner,
		cfg:    cfg,
		log:    log,
		rdb:    rdb,
		queue:  make(chan string, cfg.QueueSize),
	}
}

// Start launches the worker pool. ctx cancellation propagates into runs.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

// Enqueue schedules a run without blocking the caller.
func (d *Dispatcher) Enqueue(callID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrStopped
	}
	select {
	case d.queue <- callID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes intake and waits for queued and in-flight runs to drain.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for callID := range d.queue {
		d.execute(ctx, callID)
	}
}

func (d *Dispatcher) execute(ctx context.Context, callID string) {
	if d.cfg.MaxActiveCalls > 0 && d.rdb != nil {
		if err := d.acquireSlot(ctx); err != nil {
			d.log.Error("concurrency cap acquire failed", "call_id", callID, "err", err)
			return
		}
		defer func() {
			if err := utils.ReleaseConcurrencyCap(context.WithoutCancel(ctx), d.rdb, activeCallsKey); err != nil {
				d.log.Error("concurrency cap release failed", "err", err)
			}
		}()
	}

	if err := d.runner.Run(ctx, callID); err != nil {
		d.log.Error("call run failed", "call_id", callID, "err", err)
	}
}

// acquireSlot polls the Redis cap until a slot frees up or ctx is cancelled.
func (d *Dispatcher) acquireSlot(ctx context.Context) error {
	for {
		ok, err := utils.AcquireConcurrencyCap(ctx, d.rdb, activeCallsKey, d.cfg.MaxActiveCalls, d.cfg.CapTTL)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}
