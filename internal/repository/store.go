package repository

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// SnapshotLoader produces a dataset snapshot. *Loader implements it.
type SnapshotLoader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// DatasetStore caches the dataset after its first successful load.
// Concurrent first requests share a single load; failures are not cached,
// so the next request retries.
type DatasetStore struct {
	loader  SnapshotLoader
	timeout time.Duration

	mu    sync.RWMutex
	snap  *Snapshot
	group singleflight.Group
}

// NewDatasetStore wraps loader. timeout bounds each load; zero means no
// bound beyond the caller's context.
func NewDatasetStore(loader SnapshotLoader, timeout time.Duration) *DatasetStore {
	return &DatasetStore{loader: loader, timeout: timeout}
}

// Get returns the cached snapshot, loading it if needed. A caller whose
// context ends stops waiting; the shared load keeps going for the others.
func (s *DatasetStore) Get(ctx context.Context) (*Snapshot, error) {
	if snap := s.cached(); snap != nil {
		return snap, nil
	}

	ch := s.group.DoChan("dataset", func() (any, error) {
		if snap := s.cached(); snap != nil {
			return snap, nil
		}

		loadCtx := context.Background()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, s.timeout)
			defer cancel()
		}

		snap, err := s.loader.Load(loadCtx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.snap = snap
		s.mu.Unlock()
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Warm loads the dataset ahead of the first request.
func (s *DatasetStore) Warm(ctx context.Context) (*Snapshot, error) {
	return s.Get(ctx)
}

// Loaded reports whether a snapshot is cached.
func (s *DatasetStore) Loaded() bool {
	return s.cached() != nil
}

func (s *DatasetStore) cached() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
