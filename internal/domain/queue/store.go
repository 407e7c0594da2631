package queue

import (
	"context"
	"errors"
	"time"
)

// ErrItemNotFound is returned by GetByID for unknown item ids.
var ErrItemNotFound = errors.New("queue item not found")

// Store is the durable queue. DequeueNext must atomically pick the oldest
// QUEUED item and mark it PROCESSING, so that concurrent pollers never claim
// the same item.
type Store interface {
	Enqueue(ctx context.Context, item *Item) error
	// DequeueNext returns (nil, nil) when no item is queued.
	DequeueNext(ctx context.Context) (*Item, error)
	// Complete marks a PROCESSING item SUCCESSFUL or FAILED.
	Complete(ctx context.Context, item *Item, success bool) error
	// RequeueStale returns items stuck in PROCESSING longer than olderThan
	// back to QUEUED and reports how many were requeued.
	RequeueStale(ctx context.Context, olderThan time.Duration) (int, error)
	GetByID(ctx context.Context, id int64) (*Item, error)
}
