// Package snapshot provides sparse, timeline-indexed captures of surface
// state. Snapshots bound the cost of replay-based recovery: when an undo
// fails, the engine restores the nearest snapshot and replays forward
// instead of reconstructing from the beginning of history.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/rewind/internal/surface"
)

// ErrNotFound is returned when no snapshot exists for a requested index.
var ErrNotFound = errors.New("snapshot not found")

// encodedCostFactor inflates the memory estimate of the encoded-string
// fallback representation relative to its raw length.
const encodedCostFactor = 2

// Snapshot is a full-state capture keyed by the timeline index at which it
// was taken. The payload is an opaque blob owned by the surface collaborator:
// either a structured byte buffer or an encoded-string fallback.
type Snapshot struct {
	ID        string
	Index     int
	Timestamp time.Time

	// MemoryUsage is the byte estimate charged to the memory accountant.
	MemoryUsage int64

	data    []byte
	encoded string
}

// Encoded reports whether the snapshot holds the fallback representation.
func (s *Snapshot) Encoded() bool {
	return s.data == nil
}

// Store holds at most one snapshot per timeline index. All operations are
// safe for concurrent use, though the engine serializes access anyway.
type Store struct {
	mu      sync.RWMutex
	byIndex map[int]*Snapshot
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{byIndex: make(map[int]*Snapshot)}
}

// Capture records the surface's current state at the given timeline index,
// replacing any snapshot already stored there. The structured representation
// is tried first; on failure the encoded-string fallback is used at a higher
// memory-estimate cost. It returns the new snapshot and the bytes freed by
// replacing a previous snapshot at the same index.
func (st *Store) Capture(surf surface.Surface, index int) (*Snapshot, int64, error) {
	snap := &Snapshot{
		ID:        uuid.NewString(),
		Index:     index,
		Timestamp: time.Now(),
	}

	data, err := surf.State()
	if err == nil {
		snap.data = data
		snap.MemoryUsage = int64(len(data))
	} else {
		encoded, encErr := surf.EncodeState()
		if encErr != nil {
			return nil, 0, fmt.Errorf("capture snapshot at index %d: %w", index, encErr)
		}
		snap.encoded = encoded
		snap.MemoryUsage = int64(len(encoded)) * encodedCostFactor
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	var freed int64
	if old, ok := st.byIndex[index]; ok {
		freed = old.MemoryUsage
	}
	st.byIndex[index] = snap
	return snap, freed, nil
}

// Restore applies a snapshot back to the surface, dispatching on the stored
// representation. The encoded path decodes asynchronously relative to the
// caller's clock; decode failure surfaces as an error.
func (st *Store) Restore(ctx context.Context, surf surface.Surface, snap *Snapshot) error {
	if snap.data != nil {
		return surf.SetState(snap.data)
	}
	return surf.ApplyEncoded(ctx, snap.encoded)
}

// Get returns the snapshot at the exact index.
func (st *Store) Get(index int) (*Snapshot, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	snap, ok := st.byIndex[index]
	return snap, ok
}

// NearestAtOrBefore returns the snapshot with the largest index not
// exceeding the given index, scanning backward.
func (st *Store) NearestAtOrBefore(index int) (*Snapshot, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for i := index; i >= 0; i-- {
		if snap, ok := st.byIndex[i]; ok {
			return snap, true
		}
	}
	return nil, false
}

// Remove drops the snapshot at index, returning the bytes freed.
func (st *Store) Remove(index int) int64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	snap, ok := st.byIndex[index]
	if !ok {
		return 0
	}
	delete(st.byIndex, index)
	return snap.MemoryUsage
}

// ShiftDown rebases every snapshot one index lower, keeping each aligned
// with its logical timeline position after the oldest entry is evicted.
// Snapshots that fall below index zero are dropped. Returns the bytes freed.
func (st *Store) ShiftDown() int64 {
	st.mu.Lock()
	defer st.mu.Unlock()

	var freed int64
	shifted := make(map[int]*Snapshot, len(st.byIndex))
	for index, snap := range st.byIndex {
		if index == 0 {
			freed += snap.MemoryUsage
			continue
		}
		snap.Index = index - 1
		shifted[index-1] = snap
	}
	st.byIndex = shifted
	return freed
}

// PruneOutside drops every snapshot whose index is not in the valid set,
// returning the total bytes freed.
func (st *Store) PruneOutside(valid map[int]bool) int64 {
	st.mu.Lock()
	defer st.mu.Unlock()

	var freed int64
	for index, snap := range st.byIndex {
		if !valid[index] {
			freed += snap.MemoryUsage
			delete(st.byIndex, index)
		}
	}
	return freed
}

// Clear drops all snapshots.
func (st *Store) Clear() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.byIndex = make(map[int]*Snapshot)
}

// Count returns the number of stored snapshots.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byIndex)
}

// Indexes returns the stored snapshot indexes in no particular order.
func (st *Store) Indexes() []int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]int, 0, len(st.byIndex))
	for index := range st.byIndex {
		out = append(out, index)
	}
	return out
}
