// Package event provides the in-process event bus that runs side effects
// (notifications) after a transaction has committed.
package event

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rtmanagement/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultWorkers        = 2
	defaultQueueSize      = 256
	defaultHandlerTimeout = time.Minute
)

var (
	// ErrBusNotRunning is returned by Publish before Start or after Stop
	ErrBusNotRunning = errors.New("event bus is not running")
	// ErrQueueFull is returned when the dispatch queue has no free slot
	ErrQueueFull = errors.New("event bus queue is full")
)

type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// InMemoryEventBus implements EventBus with a bounded queue drained by a
// fixed number of workers. Publish never runs handlers on the caller's
// goroutine.
type InMemoryEventBus struct {
	logger         *zap.Logger
	workers        int
	queueSize      int
	handlerTimeout time.Duration

	handlersMu sync.RWMutex
	handlers   map[string][]shared.EventHandler // eventType -> handlers
	wildcard   []shared.EventHandler

	mu      sync.RWMutex
	running bool
	queue   chan envelope
	wg      sync.WaitGroup
}

// BusOption configures an InMemoryEventBus
type BusOption func(*InMemoryEventBus)

// WithWorkers sets the number of dispatch goroutines
func WithWorkers(n int) BusOption {
	return func(b *InMemoryEventBus) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithQueueSize sets the capacity of the dispatch queue
func WithQueueSize(n int) BusOption {
	return func(b *InMemoryEventBus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// WithHandlerTimeout bounds a single handler invocation
func WithHandlerTimeout(d time.Duration) BusOption {
	return func(b *InMemoryEventBus) {
		if d > 0 {
			b.handlerTimeout = d
		}
	}
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	b := &InMemoryEventBus{
		logger:         logger,
		workers:        defaultWorkers,
		queueSize:      defaultQueueSize,
		handlerTimeout: defaultHandlerTimeout,
		handlers:       make(map[string][]shared.EventHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish queues events for asynchronous dispatch. Context values (request
// id, trace) are kept; cancellation of ctx is not propagated to handlers.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.running {
		return ErrBusNotRunning
	}

	detached := context.WithoutCancel(ctx)
	for _, event := range events {
		select {
		case b.queue <- envelope{ctx: detached, event: event}:
		default:
			b.logger.Warn("event dropped, queue full",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
			)
			return ErrQueueFull
		}
	}
	return nil
}

// Subscribe registers a handler for specific event types.
// With no event types, the handler's own EventTypes are used; a handler
// that declares none receives every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}

	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()

	if len(eventTypes) == 0 {
		b.wildcard = append(b.wildcard, handler)
	}
	for _, eventType := range eventTypes {
		b.handlers[eventType] = append(b.handlers[eventType], handler)
	}
	b.logger.Debug("handler subscribed",
		zap.Strings("event_types", eventTypes),
	)
}

func (b *InMemoryEventBus) handlersFor(eventType string) []shared.EventHandler {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()

	typed := b.handlers[eventType]
	result := make([]shared.EventHandler, 0, len(typed)+len(b.wildcard))
	result = append(result, typed...)
	result = append(result, b.wildcard...)
	return result
}

// Start launches the dispatch workers
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return nil
	}
	b.queue = make(chan envelope, b.queueSize)
	b.running = true

	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.worker(b.queue)
	}
	b.logger.Info("event bus started",
		zap.Int("workers", b.workers),
		zap.Int("queue_size", b.queueSize),
	)
	return nil
}

// Stop refuses new events and waits for queued ones to be handled until
// ctx is done
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	close(b.queue)
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		b.logger.Warn("event bus stop timed out with events in flight")
		return ctx.Err()
	}
}

func (b *InMemoryEventBus) worker(queue <-chan envelope) {
	defer b.wg.Done()
	for env := range queue {
		for _, handler := range b.handlersFor(env.event.EventType()) {
			if err := b.dispatchToHandler(env.ctx, handler, env.event); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", env.event.EventType()),
					zap.String("event_id", env.event.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
}

// dispatchToHandler runs one handler with a timeout, recovering panics
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	ctx, cancel := context.WithTimeout(ctx, b.handlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
			err = errors.New("handler panicked")
		}
	}()

	return handler.Handle(ctx, event)
}

// Ensure InMemoryEventBus implements EventBus
var _ shared.EventBus = (*InMemoryEventBus)(nil)
