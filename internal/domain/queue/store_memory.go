package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory queue used by tests and as a stand-in when no
// database is wired.
type MemoryStore struct {
	mu     sync.Mutex
	items  []*Item
	nextID int64
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Enqueue(_ context.Context, item *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	item.ID = s.nextID
	item.Status = StatusQueued
	item.DateAdded = s.now()
	item.DateUpdated = item.DateAdded
	s.items = append(s.items, item)
	return nil
}

func (s *MemoryStore) DequeueNext(_ context.Context) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var oldest *Item
	for _, item := range s.items {
		if item.Status != StatusQueued {
			continue
		}
		if oldest == nil || item.DateAdded.Before(oldest.DateAdded) {
			oldest = item
		}
	}
	if oldest == nil {
		return nil, nil
	}
	oldest.Status = StatusProcessing
	oldest.DateUpdated = s.now()
	copied := *oldest
	return &copied, nil
}

func (s *MemoryStore) Complete(_ context.Context, item *Item, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := StatusFailed
	if success {
		status = StatusSuccessful
	}
	for _, stored := range s.items {
		if stored.ID == item.ID {
			stored.Status = status
			stored.DateUpdated = s.now()
			item.Status = status
			item.DateUpdated = stored.DateUpdated
			return nil
		}
	}
	return ErrItemNotFound
}

func (s *MemoryStore) RequeueStale(_ context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-olderThan)
	n := 0
	for _, item := range s.items {
		if item.Status == StatusProcessing && item.DateUpdated.Before(cutoff) {
			item.Status = StatusQueued
			item.DateUpdated = s.now()
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == id {
			copied := *item
			return &copied, nil
		}
	}
	return nil, ErrItemNotFound
}
