package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Async hands events to a background worker so slow targets never delay a
// request. Events are dropped (and logged) when the queue is full.
type Async struct {
	next    Publisher
	logger  *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	wg     sync.WaitGroup
}

func NewAsync(next Publisher, logger *zap.Logger, queueSize int, timeout time.Duration) *Async {
	if queueSize <= 0 {
		queueSize = 256
	}
	a := &Async{
		next:    next,
		logger:  logger,
		timeout: timeout,
		queue:   make(chan Event, queueSize),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *Async) run() {
	defer a.wg.Done()
	for ev := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.next.Publish(ctx, ev); err != nil {
			a.logger.Warn("Failed to publish handover event",
				zap.String("type", ev.Type),
				zap.String("handover_id", ev.HandoverID),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// Publish enqueues ev; it never blocks and never returns an error.
func (a *Async) Publish(_ context.Context, ev Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil
	}
	select {
	case a.queue <- ev:
	default:
		a.logger.Warn("Event queue full, dropping handover event",
			zap.String("type", ev.Type),
			zap.String("handover_id", ev.HandoverID),
		)
	}
	return nil
}

// Close stops accepting events and waits for the queue to drain.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	a.wg.Wait()
}
