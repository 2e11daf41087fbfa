package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inventory-backend/internal/apps/notification/models"
)

// Dispatcher delivers messages asynchronously on a fixed pool of workers
type Dispatcher struct {
	notifier Notifier
	workers  int
	queue    chan models.Message
	log      *slog.Logger

	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewDispatcher creates a dispatcher; call Start before Dispatch
func NewDispatcher(notifier Notifier, workers, queueSize int, log *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Dispatcher{
		notifier: notifier,
		workers:  workers,
		queue:    make(chan models.Message, queueSize),
		log:      log.With(slog.String("service", "mail_dispatcher")),
	}
}

// Start launches the workers. Sends run with a context detached from ctx
// cancellation so queued messages still go out while draining.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	sendCtx := context.WithoutCancel(ctx)
	for i := 1; i <= d.workers; i++ {
		d.wg.Add(1)
		go d.work(sendCtx, i)
	}
}

func (d *Dispatcher) work(ctx context.Context, id int) {
	defer d.wg.Done()
	log := d.log.With(slog.Int("worker_id", id))

	for msg := range d.queue {
		start := time.Now()
		if err := d.deliver(ctx, msg); err != nil {
			log.Error("dispatch_failed", slog.String("to", msg.To), slog.String("reason", err.Error()))
			continue
		}
		log.Debug("dispatch_completed", slog.String("to", msg.To), slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg models.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panicked: %v", r)
		}
	}()

	return d.notifier.Send(ctx, msg)
}

// Dispatch queues msg without blocking. It reports false when the queue is
// full or the dispatcher is stopped.
func (d *Dispatcher) Dispatch(msg models.Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("dispatch_dropped", slog.String("reason", "dispatcher stopped"), slog.String("to", msg.To))
		return false
	}

	select {
	case d.queue <- msg:
		return true
	default:
		d.log.Warn("dispatch_dropped", slog.String("reason", "queue full"), slog.Int("queue_size", cap(d.queue)), slog.String("to", msg.To))
		return false
	}
}

// Stop closes the queue and waits for the workers to drain it
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Info("dispatcher_stopped")
}

// Run starts the workers, blocks until ctx is done and then drains the queue
func (d *Dispatcher) Run(ctx context.Context) error {
	d.Start(ctx)
	<-ctx.Done()
	d.Stop()
	return nil
}
