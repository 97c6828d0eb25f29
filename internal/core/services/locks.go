package services

import (
	"context"
	"sync"
)

// DatasetLocks guards each dataset's index lifecycle.
//
// The exclusive side is taken by operations that move or drop every point
// of a dataset (re-index, rebuild, delete-all, dataset delete). The shared
// side is taken by writes that touch single points (create, upload, update,
// point deletes) for as long as they read indexed_on and write points.
// Different datasets never contend.
type DatasetLocks struct {
	mu       sync.Mutex
	held     map[string]chan struct{} // closed when the exclusive holder unlocks
	sharedBy map[string]int
}

// NewDatasetLocks creates an empty lock set.
func NewDatasetLocks() *DatasetLocks {
	return &DatasetLocks{
		held:     make(map[string]chan struct{}),
		sharedBy: make(map[string]int),
	}
}

// TryLock takes the exclusive side. It returns false without blocking if
// another exclusive holder or any shared holder is active.
func (l *DatasetLocks) TryLock(datasetID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[datasetID]; busy || l.sharedBy[datasetID] > 0 {
		return false
	}
	l.held[datasetID] = make(chan struct{})
	return true
}

// Unlock releases the exclusive side and wakes waiting shared holders.
func (l *DatasetLocks) Unlock(datasetID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ch, ok := l.held[datasetID]; ok {
		close(ch)
		delete(l.held, datasetID)
	}
}

// RLock takes the shared side, waiting while an exclusive holder is active.
// It returns ctx.Err() if ctx ends first.
func (l *DatasetLocks) RLock(ctx context.Context, datasetID string) error {
	for {
		l.mu.Lock()
		released, busy := l.held[datasetID]
		if !busy {
			l.sharedBy[datasetID]++
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-released:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RUnlock releases one shared holder.
func (l *DatasetLocks) RUnlock(datasetID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch n := l.sharedBy[datasetID]; {
	case n > 1:
		l.sharedBy[datasetID] = n - 1
	case n == 1:
		delete(l.sharedBy, datasetID)
	}
}

// Held reports whether the dataset's exclusive side is taken.
func (l *DatasetLocks) Held(datasetID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.held[datasetID]
	return busy
}
