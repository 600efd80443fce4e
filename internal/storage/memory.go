package storage

import (
	"context"
	"sync"

	"rebias/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	checkpoints map[string][]model.BiasCheckpoint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.checkpoints = make(map[string][]model.BiasCheckpoint)
	return nil
}

func (s *MemoryStore) SaveCheckpoint(_ context.Context, checkpoint model.BiasCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.checkpoints[checkpoint.RunID]
	for i, c := range existing {
		if c.WindowIndex == checkpoint.WindowIndex {
			existing[i] = checkpoint
			return nil
		}
	}
	s.checkpoints[checkpoint.RunID] = append(existing, checkpoint)
	return nil
}

func (s *MemoryStore) GetCheckpoint(_ context.Context, runID string, windowIndex int) (model.BiasCheckpoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.checkpoints[runID] {
		if c.WindowIndex == windowIndex {
			return c, true, nil
		}
	}
	return model.BiasCheckpoint{}, false, nil
}

func (s *MemoryStore) LatestCheckpoint(_ context.Context, runID string) (model.BiasCheckpoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.checkpoints[runID]
	if len(list) == 0 {
		return model.BiasCheckpoint{}, false, nil
	}
	latest := list[0]
	for _, c := range list[1:] {
		if c.WindowIndex > latest.WindowIndex {
			latest = c
		}
	}
	return latest, true, nil
}
