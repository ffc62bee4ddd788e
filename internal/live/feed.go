package live

import (
	"context"
	"sync"
)

// QueryFunc loads a full snapshot.
type QueryFunc[T any] func(ctx context.Context) (T, error)

// Feed delivers snapshots on C: the current one first, then one after every
// relevant committed mutation. A subscriber that falls behind only sees the
// newest snapshot. C is closed when the feed stops, either because it was
// closed, its context ended, or a re-query failed; Err reports the latter.
type Feed[T any] struct {
	C <-chan T

	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Watch runs query once and returns a feed seeded with its result. A failing
// first query is returned as an error and no feed is created.
func Watch[T any](ctx context.Context, hub *Hub, topics Topic, query QueryFunc[T]) (*Feed[T], error) {
	// Subscribe before the first query so a mutation racing it still
	// triggers a re-query.
	notify, unsubscribe := hub.Subscribe(topics)

	first, err := query(ctx)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan T)
	f := &Feed[T]{
		C:      out,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go f.run(ctx, out, notify, unsubscribe, query, first)
	return f, nil
}

func (f *Feed[T]) run(ctx context.Context, out chan<- T, notify <-chan struct{}, unsubscribe func(), query QueryFunc[T], pending T) {
	defer close(f.done)
	defer close(out)
	defer unsubscribe()

	hasPending := true
	for {
		var send chan<- T
		if hasPending {
			send = out
		}

		select {
		case <-ctx.Done():
			return
		case send <- pending:
			var zero T
			pending, hasPending = zero, false
		case <-notify:
			snapshot, err := query(ctx)
			if err != nil {
				if ctx.Err() == nil {
					f.mu.Lock()
					f.err = err
					f.mu.Unlock()
				}
				return
			}
			pending, hasPending = snapshot, true
		}
	}
}

// Close stops the feed and waits for it to shut down. Snapshots not yet
// received are dropped.
func (f *Feed[T]) Close() {
	f.cancel()
	<-f.done
}

// Done is closed once the feed has stopped.
func (f *Feed[T]) Done() <-chan struct{} {
	return f.done
}

// Err returns the re-query failure that stopped the feed, if any.
func (f *Feed[T]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}
