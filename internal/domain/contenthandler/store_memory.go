package contenthandler

import (
	"context"
	"sync"
	"time"
)

// MemoryContentStore is a thread-safe, in-memory ContentStore for tests and
// development.
type MemoryContentStore struct {
	mu     sync.RWMutex
	nextID int64
	byDoc  map[string]*StoredContent
}

func NewMemoryContentStore() *MemoryContentStore {
	return &MemoryContentStore{byDoc: make(map[string]*StoredContent)}
}

func (s *MemoryContentStore) Put(_ context.Context, sc *StoredContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	sc.ID = s.nextID
	sc.CreatedAt = time.Now().UTC()
	cp := *sc
	s.byDoc[sc.DocUniqueID] = &cp
	return nil
}

func (s *MemoryContentStore) Get(_ context.Context, docUniqueID string) (*StoredContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.byDoc[docUniqueID]
	if !ok {
		return nil, ErrContentNotFound
	}
	cp := *sc
	return &cp, nil
}
