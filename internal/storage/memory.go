package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"genesearch/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

// MemoryStore keeps encoded records so that reads return independent
// values, as the database backends do.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string][]byte
	snapshots   map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string][]byte)
	s.snapshots = make(map[string][]byte)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}
	s.runs[run.ID] = payload
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	payload, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		return model.RunRecord{}, false, nil
	}
	run, err := DecodeRun(payload)
	if err != nil {
		return model.RunRecord{}, false, err
	}
	return run, true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, payload := range s.runs {
		run, err := DecodeRun(payload)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.Before(runs[j].StartedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snapshot model.ImpactSnapshot) error {
	payload, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}
	s.snapshots[snapshot.ID] = payload
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, id string) (model.ImpactSnapshot, bool, error) {
	s.mu.RLock()
	payload, ok := s.snapshots[id]
	s.mu.RUnlock()
	if !ok {
		return model.ImpactSnapshot{}, false, nil
	}
	snapshot, err := DecodeSnapshot(payload)
	if err != nil {
		return model.ImpactSnapshot{}, false, err
	}
	return snapshot, true, nil
}

func (s *MemoryStore) ListSnapshots(_ context.Context, runID string) ([]model.ImpactSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.ImpactSnapshot
	for _, payload := range s.snapshots {
		snapshot, err := DecodeSnapshot(payload)
		if err != nil {
			return nil, err
		}
		if snapshot.RunID == runID {
			out = append(out, snapshot)
		}
	}
	sortSnapshots(out)
	return out, nil
}

func sortSnapshots(snapshots []model.ImpactSnapshot) {
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].Round != snapshots[j].Round {
			return snapshots[i].Round < snapshots[j].Round
		}
		return snapshots[i].ID < snapshots[j].ID
	})
}
