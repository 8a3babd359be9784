package catalog

import (
	"context"
	"slices"
	"sync"
)

// MemStorage holds the last saved snapshot in memory.
type MemStorage struct {
	mu      sync.RWMutex
	saved   []Product
	saves   int
	saveErr error
	loadErr error
}

func NewMemStorage(seed ...Product) *MemStorage {
	s := &MemStorage{}
	if len(seed) > 0 {
		s.saved = slices.Clone(seed)
	}
	return s
}

func (s *MemStorage) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemStorage) Load(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return slices.Clone(s.saved), ctx.Err()
}

func (s *MemStorage) Save(ctx context.Context, products []Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = slices.Clone(products)
	s.saves++
	return nil
}

// FailSaves makes every following Save return err; nil restores saving.
func (s *MemStorage) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// FailLoads makes every following Load return err; nil restores loading.
func (s *MemStorage) FailLoads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// Snapshot returns a copy of what was last saved.
func (s *MemStorage) Snapshot() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.saved)
}

// Saves counts successful saves.
func (s *MemStorage) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
