package snapshot

import (
	"context"
	"errors"
	"testing"
)

// stubSurface is a controllable surface for store tests.
type stubSurface struct {
	state      []byte
	encoded    string
	failState  bool
	failEncode bool
	failApply  bool

	setCalls   int
	applyCalls int
}

func (s *stubSurface) State() ([]byte, error) {
	if s.failState {
		return nil, errors.New("state unavailable")
	}
	out := make([]byte, len(s.state))
	copy(out, s.state)
	return out, nil
}

func (s *stubSurface) SetState(data []byte) error {
	s.setCalls++
	s.state = append([]byte(nil), data...)
	return nil
}

func (s *stubSurface) EncodeState() (string, error) {
	if s.failEncode {
		return "", errors.New("encode unavailable")
	}
	return s.encoded, nil
}

func (s *stubSurface) ApplyEncoded(_ context.Context, encoded string) error {
	if s.failApply {
		return errors.New("decode failed")
	}
	s.applyCalls++
	s.encoded = encoded
	return nil
}

func (s *stubSurface) Valid() bool { return true }

func TestCaptureStructured(t *testing.T) {
	st := NewStore()
	surf := &stubSurface{state: []byte{1, 2, 3, 4}}

	snap, freed, err := st.Capture(surf, 0)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if freed != 0 {
		t.Errorf("freed = %d, want 0", freed)
	}
	if snap.Encoded() {
		t.Error("structured capture should not be encoded")
	}
	if snap.MemoryUsage != 4 {
		t.Errorf("MemoryUsage = %d, want 4", snap.MemoryUsage)
	}
	if snap.ID == "" {
		t.Error("snapshot ID not assigned")
	}
	if snap.Index != 0 {
		t.Errorf("Index = %d, want 0", snap.Index)
	}
}

func TestCaptureFallbackEncoded(t *testing.T) {
	st := NewStore()
	surf := &stubSurface{failState: true, encoded: "abcdef"}

	snap, _, err := st.Capture(surf, 3)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !snap.Encoded() {
		t.Error("fallback capture should be encoded")
	}
	// Encoded form is charged at double its length.
	if snap.MemoryUsage != 12 {
		t.Errorf("MemoryUsage = %d, want 12", snap.MemoryUsage)
	}
}

func TestCaptureBothPathsFail(t *testing.T) {
	st := NewStore()
	surf := &stubSurface{failState: true, failEncode: true}

	if _, _, err := st.Capture(surf, 0); err == nil {
		t.Fatal("expected error when both capture paths fail")
	}
	if st.Count() != 0 {
		t.Error("failed capture must not be stored")
	}
}

func TestCaptureReplacesSameIndex(t *testing.T) {
	st := NewStore()
	surf := &stubSurface{state: []byte{1, 2, 3, 4}}

	first, _, err := st.Capture(surf, 5)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	surf.state = []byte{9, 9}
	second, freed, err := st.Capture(surf, 5)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	if freed != first.MemoryUsage {
		t.Errorf("freed = %d, want %d", freed, first.MemoryUsage)
	}
	if st.Count() != 1 {
		t.Errorf("Count = %d, want 1", st.Count())
	}
	got, ok := st.Get(5)
	if !ok || got.ID != second.ID {
		t.Error("replacement snapshot not stored")
	}
}

func TestRestoreDispatch(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	structured := &stubSurface{state: []byte{1, 2}}
	snap, _, err := st.Capture(structured, 0)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if err := st.Restore(ctx, structured, snap); err != nil {
		t.Fatalf("Restore structured: %v", err)
	}
	if structured.setCalls != 1 || structured.applyCalls != 0 {
		t.Error("structured restore must use SetState")
	}

	encodedSurf := &stubSurface{failState: true, encoded: "xyz"}
	encSnap, _, err := st.Capture(encodedSurf, 1)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if err := st.Restore(ctx, encodedSurf, encSnap); err != nil {
		t.Fatalf("Restore encoded: %v", err)
	}
	if encodedSurf.applyCalls != 1 {
		t.Error("encoded restore must use ApplyEncoded")
	}

	encodedSurf.failApply = true
	if err := st.Restore(ctx, encodedSurf, encSnap); err == nil {
		t.Error("decode failure must surface as a restore error")
	}
}

func TestNearestAtOrBefore(t *testing.T) {
	st := NewStore()
	surf := &stubSurface{state: []byte{1}}

	for _, index := range []int{0, 5} {
		if _, _, err := st.Capture(surf, index); err != nil {
			t.Fatalf("Capture(%d): %v", index, err)
		}
	}

	tests := []struct {
		query     int
		wantIndex int
		wantOK    bool
	}{
		{7, 5, true},
		{5, 5, true},
		{4, 0, true},
		{0, 0, true},
		{-1, 0, false},
	}
	for _, tt := range tests {
		snap, ok := st.NearestAtOrBefore(tt.query)
		if ok != tt.wantOK {
			t.Errorf("NearestAtOrBefore(%d) ok = %v, want %v", tt.query, ok, tt.wantOK)
			continue
		}
		if ok && snap.Index != tt.wantIndex {
			t.Errorf("NearestAtOrBefore(%d) index = %d, want %d", tt.query, snap.Index, tt.wantIndex)
		}
	}
}

func TestPruneOutside(t *testing.T) {
	st := NewStore()
	surf := &stubSurface{state: []byte{1, 2, 3}}

	for _, index := range []int{0, 10, 20} {
		if _, _, err := st.Capture(surf, index); err != nil {
			t.Fatalf("Capture(%d): %v", index, err)
		}
	}

	freed := st.PruneOutside(map[int]bool{0: true, 10: true})
	if freed != 3 {
		t.Errorf("freed = %d, want 3", freed)
	}
	if st.Count() != 2 {
		t.Errorf("Count = %d, want 2", st.Count())
	}
	if _, ok := st.Get(20); ok {
		t.Error("snapshot at 20 should have been pruned")
	}
}

func TestShiftDown(t *testing.T) {
	st := NewStore()
	surf := &stubSurface{state: []byte{1, 2, 3}}

	for _, index := range []int{0, 2, 5} {
		if _, _, err := st.Capture(surf, index); err != nil {
			t.Fatalf("Capture(%d): %v", index, err)
		}
	}

	// The snapshot at index 0 describes the evicted position and is freed;
	// the rest move one index down with the timeline.
	if freed := st.ShiftDown(); freed != 3 {
		t.Errorf("freed = %d, want 3", freed)
	}
	if st.Count() != 2 {
		t.Fatalf("Count = %d, want 2", st.Count())
	}
	for _, index := range []int{1, 4} {
		snap, ok := st.Get(index)
		if !ok {
			t.Fatalf("no snapshot at shifted index %d", index)
		}
		if snap.Index != index {
			t.Errorf("snap.Index = %d, want %d", snap.Index, index)
		}
	}
	if _, ok := st.Get(2); ok {
		t.Error("old index 2 should be vacated after the shift")
	}
}

func TestRemoveAndClear(t *testing.T) {
	st := NewStore()
	surf := &stubSurface{state: []byte{1, 2}}

	if _, _, err := st.Capture(surf, 0); err != nil {
		t.Fatalf("Capture: %v", err)
	}

	if freed := st.Remove(0); freed != 2 {
		t.Errorf("Remove freed = %d, want 2", freed)
	}
	if freed := st.Remove(0); freed != 0 {
		t.Errorf("Remove of absent index freed = %d, want 0", freed)
	}

	if _, _, err := st.Capture(surf, 1); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	st.Clear()
	if st.Count() != 0 {
		t.Errorf("Count after Clear = %d, want 0", st.Count())
	}
}
