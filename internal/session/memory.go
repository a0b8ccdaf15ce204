package session

import (
	"context"
	"github.com/google/uuid"
	"order-intake-service/internal/entity"
	"sync"
)

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]entity.LineItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]entity.LineItem)}
}

func (s *MemoryStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = nil
	return id, nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) ([]entity.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := make([]entity.LineItem, len(items))
	copy(out, items)
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, id string, items []entity.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	stored := make([]entity.LineItem, len(items))
	copy(stored, items)
	s.sessions[id] = stored
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
