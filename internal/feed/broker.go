// Package feed fans out document change events to per-user
// subscriptions. It is the in-process realization of the backing
// store's subscribe contract: snapshot replay on subscribe, ordered
// live delivery, explicit cancellation, and a terminal error surfaced
// once when a stream dies.
package feed

import (
	"context"
	"sync"

	"github.com/msomdec/notemap/internal/domain"
)

// Broker routes change events for one entity kind to the subscriptions
// interested in a given user's documents.
type Broker[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]string
	closed bool
}

// NewBroker creates an empty broker.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[*Subscription[T]]string)}
}

// Subscribe registers a new subscription for userID. snapshot is
// invoked under the broker lock, so the returned documents plus the
// subsequent live events form a gapless sequence: every document is
// replayed as an ADDED event before any later change is delivered.
// If snapshot fails the subscription is returned already terminated
// with that error. A canceled ctx terminates the subscription cleanly.
func (b *Broker[T]) Subscribe(ctx context.Context, userID string, snapshot func() ([]T, error)) *Subscription[T] {
	sub := newSubscription[T]()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.terminate(domain.ErrUnavailable)
		close(sub.out)
		return sub
	}

	docs, err := snapshot()
	if err != nil {
		b.mu.Unlock()
		sub.terminate(err)
		close(sub.out)
		return sub
	}
	for _, doc := range docs {
		sub.enqueue(domain.Change[T]{Kind: domain.ChangeAdded, Entity: doc})
	}
	b.subs[sub] = userID
	b.mu.Unlock()

	go sub.pump()
	go func() {
		select {
		case <-ctx.Done():
			b.drop(sub)
			sub.terminate(nil)
		case <-sub.done:
			b.drop(sub)
		}
	}()

	return sub
}

// Publish delivers ev to every subscription registered for userID, in
// call order. Publish never blocks on slow consumers; each
// subscription buffers independently.
func (b *Broker[T]) Publish(userID string, ev domain.Change[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for sub, uid := range b.subs {
		if uid == userID {
			sub.enqueue(ev)
		}
	}
}

// Close terminates every active subscription with ErrUnavailable and
// rejects further subscribes. Used on backend shutdown.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscription[T], 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.subs = make(map[*Subscription[T]]string)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.terminate(domain.ErrUnavailable)
	}
}

func (b *Broker[T]) drop(sub *Subscription[T]) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

// Closed reports a subscription that was never live: its event channel
// is already closed and Err returns nil. Used for unauthenticated
// subscribes, which are a defined empty stream rather than an error.
func Closed[T any]() *Subscription[T] {
	sub := newSubscription[T]()
	sub.terminate(nil)
	close(sub.out)
	return sub
}

// Failed reports a subscription terminated with err before delivering
// any events.
func Failed[T any](err error) *Subscription[T] {
	sub := newSubscription[T]()
	sub.terminate(err)
	close(sub.out)
	return sub
}

// Subscription is one consumer's view of a change stream. Events are
// buffered in an unbounded mailbox so a slow consumer never blocks the
// publisher.
type Subscription[T any] struct {
	out    chan domain.Change[T]
	notify chan struct{}
	done   chan struct{}

	mu     sync.Mutex
	queue  []domain.Change[T]
	err    error
	closed bool
}

func newSubscription[T any]() *Subscription[T] {
	return &Subscription[T]{
		out:    make(chan domain.Change[T]),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Events returns the ordered event channel. It is closed when the
// subscription terminates; check Err afterwards.
func (s *Subscription[T]) Events() <-chan domain.Change[T] { return s.out }

// Err reports why the stream terminated. It is nil before termination
// and for clean cancellation.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel terminates the subscription cleanly. Safe to call more than
// once and concurrently with event delivery.
func (s *Subscription[T]) Cancel() { s.terminate(nil) }

func (s *Subscription[T]) enqueue(ev domain.Change[T]) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) terminate(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	s.mu.Unlock()
	close(s.done)
}

// pump drains the mailbox into the out channel, preserving enqueue
// order, and closes out once the subscription terminates.
func (s *Subscription[T]) pump() {
	defer close(s.out)
	for {
		select {
		case <-s.notify:
		case <-s.done:
			return
		}

		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			ev := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		}
	}
}
