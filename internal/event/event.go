package event

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const (
	defaultMaxInflight    = 1024
	defaultHandlerTimeout = 30 * time.Second
)

type Event interface {
	Name() string
}

type Handler func(ctx context.Context, e Event) error

// Bus is an in-memory asynchronous event bus. Handlers run in their own
// goroutines, bounded by a shared in-flight limit.
type Bus struct {
	sem     chan struct{}
	timeout time.Duration
	wg      sync.WaitGroup

	mu       sync.RWMutex
	handlers map[string][]Handler
}

type BusOption func(*Bus)

// WithMaxInflight bounds the number of concurrently running handlers.
func WithMaxInflight(n int) BusOption {
	return func(b *Bus) {
		b.sem = make(chan struct{}, n)
	}
}

// WithHandlerTimeout bounds how long a single handler may run.
func WithHandlerTimeout(d time.Duration) BusOption {
	return func(b *Bus) {
		b.timeout = d
	}
}

// NewBus creates an event bus. Caller should call Stop for graceful shutdown.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		sem:      make(chan struct{}, defaultMaxInflight),
		timeout:  defaultHandlerTimeout,
		handlers: make(map[string][]Handler),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Subscribe registers a handler for events with the given name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[name] = append(b.handlers[name], h)
}

// Publish dispatches an event to every subscribed handler. A failing or
// panicking handler is logged and never affects the others.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	hs := b.handlers[e.Name()]
	b.mu.RUnlock()

	for _, h := range hs {
		b.wg.Add(1)
		b.sem <- struct{}{}

		go b.run(ctx, h, e)
	}
}

func (b *Bus) run(ctx context.Context, h Handler, e Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "event: handler panic",
				"event", e.Name(),
				"error", fmt.Errorf("%v, stack: %s", r, debug.Stack()),
			)
		}

		cancel()
		<-b.sem
		b.wg.Done()
	}()

	if err := h(ctx, e); err != nil {
		slog.ErrorContext(ctx, "event: handle event failed",
			"event", e.Name(),
			"error", err,
		)
	}
}

// Stop waits for all in-flight handlers to finish.
func (b *Bus) Stop() {
	b.wg.Wait()
}
