// Package dispatch runs one task per inbound message with a bound on how
// many tasks run at once.
package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-bot/internal/logger"
)

// DefaultMaxConcurrent is used when New is given a non-positive limit.
const DefaultMaxConcurrent = 8

// ErrClosed is returned by Dispatch after Stop has been called.
var ErrClosed = errors.New("dispatcher is closed")

// Task processes a single message. Tasks share no state with each other.
type Task func(ctx context.Context)

// Dispatcher starts a goroutine per task, with at most maxConcurrent running.
// It is safe for concurrent use.
type Dispatcher struct {
	slots     chan struct{}
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	log       zerolog.Logger
}

// New creates a dispatcher allowing maxConcurrent tasks in flight.
func New(maxConcurrent int, log zerolog.Logger) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Dispatcher{
		slots:     make(chan struct{}, maxConcurrent),
		closeChan: make(chan struct{}),
		log:       log,
	}
}

// Dispatch waits for a free slot and then runs task in its own goroutine.
// It returns the task ID used in log fields.
//
// The task context carries the values of ctx and a logger tagged with
// task_id, but is not cancelled with ctx: a message that has started is
// allowed to finish its Notion call and reply.
func (d *Dispatcher) Dispatch(ctx context.Context, task Task) (string, error) {
	select {
	case d.slots <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-d.closeChan:
		return "", ErrClosed
	}

	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		<-d.slots
		return "", ErrClosed
	}
	d.wg.Add(1)
	d.mu.RUnlock()

	taskID := uuid.New().String()
	log := logger.FromContext(ctx).With().Str("task_id", taskID).Logger()
	taskCtx := logger.WithContext(context.WithoutCancel(ctx), log)

	go d.run(taskCtx, taskID, task)

	return taskID, nil
}

func (d *Dispatcher) run(ctx context.Context, taskID string, task Task) {
	defer d.wg.Done()
	defer func() { <-d.slots }()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Interface("panic", r).
				Str("task_id", taskID).
				Msg("Panic recovered in message task")
		}
	}()

	task(ctx)
}

// InFlight returns the number of tasks currently holding a slot.
func (d *Dispatcher) InFlight() int {
	return len(d.slots)
}

// Stop rejects new tasks and waits for in-flight tasks to complete, or for
// ctx to expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.closeChan)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
