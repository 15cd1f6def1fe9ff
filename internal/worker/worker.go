// Package worker runs background jobs one at a time on a single goroutine.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/matheus3301/sms/internal/logging"
	"go.uber.org/zap"
)

var (
	ErrNotRunning = errors.New("worker: not running")
	ErrQueueFull  = errors.New("worker: queue full")
)

// Task is a unit of background work. ctx is cancelled when the worker stops.
type Task func(ctx context.Context)

// Worker drains a FIFO queue of tasks sequentially.
type Worker struct {
	logger *zap.Logger
	tasks  chan Task

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a worker whose queue holds up to queueSize pending tasks.
func New(queueSize int, logger *zap.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Worker{
		logger: logging.OrNop(logger),
		tasks:  make(chan Task, queueSize),
	}
}

// Start launches the worker goroutine. Starting a running worker is a no-op.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.running = true
	go w.loop(ctx, w.done)
}

// Stop cancels the worker and waits for the task in flight to return.
// Tasks still queued are discarded.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.cancel()
	done := w.done
	w.mu.Unlock()

	<-done
	for {
		select {
		case <-w.tasks:
		default:
			return
		}
	}
}

// Submit enqueues t without blocking.
func (w *Worker) Submit(t Task) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return ErrNotRunning
	}
	select {
	case w.tasks <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *Worker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case t := <-w.tasks:
			if err := w.run(ctx, t); err != nil {
				w.logger.Error("background task failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) run(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	t(ctx)
	return nil
}
