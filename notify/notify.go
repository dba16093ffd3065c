// Package notify carries "data changed" hints between writers and readers.
//
// Delivery is best-effort and at most once: events are never retried, slow
// subscribers lose events instead of blocking publishers, and a subscriber
// that misses an event simply keeps stale data until its next reload.
// Treat events as cache invalidation hints only.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	KindEntryChanged    = "entry.changed"
	KindEntryDeleted    = "entry.deleted"
	KindSettingsChanged = "settings.changed"
)

type Event struct {
	Kind string    `json:"kind"`
	Key  string    `json:"key,omitempty"`
	At   time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subscriber streams events until ctx is done, then closes the channel.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

type Notifier interface {
	Publisher
	Subscriber
}

const defaultBuffer = 16

// Broadcaster fans events out to subscribers of the same process.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	buffer int
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Broadcaster{subs: make(map[chan Event]struct{}), buffer: buffer}
}

func (b *Broadcaster) Publish(ctx context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}

// Fanout publishes to every notifier and merges their subscriptions. A failing
// notifier does not stop the others.
type Fanout []Notifier

func (f Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range f {
		if err := n.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Subscribe(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event, defaultBuffer)
	var wg sync.WaitGroup
	for _, n := range f {
		ch, err := n.Subscribe(ctx)
		if err != nil {
			return nil, err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range ch {
				select {
				case out <- event:
				default:
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
