package media

import (
	"context"
	"sort"
	"sync"
)

type Store interface {
	CreateAsset(ctx context.Context, a Asset) error
	GetAsset(ctx context.Context, id string) (Asset, error)
	AppendView(ctx context.Context, v View) error
	ListViews(ctx context.Context, mediaID string) ([]View, error)
}

type InMemoryStore struct {
	mu     sync.RWMutex
	assets map[string]Asset
	views  map[string][]View
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		assets: make(map[string]Asset),
		views:  make(map[string][]View),
	}
}

func (s *InMemoryStore) CreateAsset(_ context.Context, a Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[a.ID] = a
	return nil
}

func (s *InMemoryStore) GetAsset(_ context.Context, id string) (Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assets[id]
	if !ok {
		return Asset{}, ErrNotFound
	}
	return a, nil
}

func (s *InMemoryStore) AppendView(_ context.Context, v View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[v.MediaID] = append(s.views[v.MediaID], v)
	return nil
}

func (s *InMemoryStore) ListViews(_ context.Context, mediaID string) ([]View, error) {
	s.mu.RLock()
	out := append([]View(nil), s.views[mediaID]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}
