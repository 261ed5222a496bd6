package domain

import "context"

// ChangeKind classifies a remote change event.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeModified
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is one entry in a collection's change stream. Entity carries
// the full document payload, including for removals.
type Change[T any] struct {
	Kind   ChangeKind
	Entity T
}

// Stream is a live, cancelable sequence of change events. Events()
// yields events in delivery order until the stream terminates, at which
// point the channel is closed and Err() reports the terminal failure,
// or nil for a clean close.
type Stream[T any] interface {
	Events() <-chan Change[T]
	Err() error
	Cancel()
}

// NoteFeed delivers change streams for a user's notes. Subscribing
// replays the current collection contents as ADDED events before live
// changes. An empty userID yields an immediately closed, empty stream.
type NoteFeed interface {
	SubscribeNotes(ctx context.Context, userID string) Stream[Note]
}

// CategoryFeed delivers change streams for a user's categories with the
// same replay and termination semantics as NoteFeed.
type CategoryFeed interface {
	SubscribeCategories(ctx context.Context, userID string) Stream[Category]
}
