package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
	"github.com/sebaB003/tpsx/pkg/tpsx/store"
)

// Store is an in-memory implementation of store.ModelStore.
type Store struct {
	mu     sync.RWMutex
	ids    *store.IDGenerator
	models map[string]store.Model
	now    func() time.Time
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		ids:    store.NewIDGenerator(),
		models: make(map[string]store.Model),
		now:    time.Now,
	}
}

// Close implements store.ModelStore.
func (s *Store) Close() error { return nil }

// SaveModel stores a copy of m.
func (s *Store) SaveModel(ctx context.Context, m store.Model) (string, error) {
	now := s.now()
	m, err := store.Prepare(m, now)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.ids.New(now)
	s.models[m.ID] = copyModel(m)
	return m.ID, nil
}

// GetModel returns the model with the given ID.
func (s *Store) GetModel(ctx context.Context, id string) (store.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.models[id]
	if !ok {
		return store.Model{}, fmt.Errorf("model %s: %w", id, internalerr.ErrNotFound)
	}
	return copyModel(m), nil
}

// LatestModel returns the most recently saved model called name.
func (s *Store) LatestModel(ctx context.Context, name string) (store.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest store.Model
	for id, m := range s.models {
		if m.Name == name && id > latest.ID {
			latest = m
		}
	}
	if latest.ID == "" {
		return store.Model{}, fmt.Errorf("model %q: %w", name, internalerr.ErrNotFound)
	}
	return copyModel(latest), nil
}

// ListModels returns matching models newest first.
func (s *Store) ListModels(ctx context.Context, name string) ([]store.ModelInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.ModelInfo, 0, len(s.models))
	for _, m := range s.models {
		if name != "" && m.Name != name {
			continue
		}
		out = append(out, m.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// DeleteModel removes a model.
func (s *Store) DeleteModel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.models[id]; !ok {
		return fmt.Errorf("model %s: %w", id, internalerr.ErrNotFound)
	}
	delete(s.models, id)
	return nil
}

func copyModel(m store.Model) store.Model {
	m.Data = append([]byte(nil), m.Data...)
	return m
}

var _ store.ModelStore = (*Store)(nil)
