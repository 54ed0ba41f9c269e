package surface

import (
	"context"
	"errors"
	"testing"
)

func TestNewRasterBounds(t *testing.T) {
	r := NewRaster(8, 4)
	w, h := r.Bounds()
	if w != 8 || h != 4 {
		t.Errorf("Bounds() = %dx%d, want 8x4", w, h)
	}

	// Degenerate dimensions clamp to 1.
	r = NewRaster(0, -3)
	w, h = r.Bounds()
	if w != 1 || h != 1 {
		t.Errorf("Bounds() = %dx%d, want 1x1", w, h)
	}
}

func TestFillAndAt(t *testing.T) {
	r := NewRaster(4, 4)
	red := [4]byte{255, 0, 0, 255}

	if err := r.Fill(1, 1, 2, 2, red); err != nil {
		t.Fatalf("Fill: %v", err)
	}

	got, err := r.At(1, 1)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if got != red {
		t.Errorf("At(1,1) = %v, want %v", got, red)
	}

	outside, err := r.At(0, 0)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if outside != ([4]byte{}) {
		t.Errorf("At(0,0) = %v, want zero pixel", outside)
	}

	if _, err := r.At(10, 10); err == nil {
		t.Error("At out of bounds should error")
	}
}

func TestFillClampsToBounds(t *testing.T) {
	r := NewRaster(4, 4)
	// A rect hanging off every edge must not panic and must fill the
	// intersection.
	if err := r.Fill(-2, -2, 10, 10, [4]byte{1, 1, 1, 255}); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	got, _ := r.At(3, 3)
	if got[0] != 1 {
		t.Error("clamped fill did not cover the surface")
	}
}

func TestRegionRoundTrip(t *testing.T) {
	r := NewRaster(4, 4)
	_ = r.Fill(0, 0, 4, 4, [4]byte{9, 9, 9, 255})

	before, err := r.Region(1, 1, 2, 2)
	if err != nil {
		t.Fatalf("Region: %v", err)
	}

	_ = r.Fill(1, 1, 2, 2, [4]byte{200, 0, 0, 255})
	if err := r.SetRegion(1, 1, 2, 2, before); err != nil {
		t.Fatalf("SetRegion: %v", err)
	}

	got, _ := r.At(2, 2)
	if got != ([4]byte{9, 9, 9, 255}) {
		t.Errorf("restored pixel = %v, want {9 9 9 255}", got)
	}
}

func TestSetRegionSizeMismatch(t *testing.T) {
	r := NewRaster(4, 4)
	if err := r.SetRegion(0, 0, 2, 2, []byte{1, 2, 3}); !errors.Is(err, ErrBadStateSize) {
		t.Errorf("SetRegion = %v, want ErrBadStateSize", err)
	}
}

func TestAdjustBrightnessClamps(t *testing.T) {
	r := NewRaster(1, 1)
	_ = r.Fill(0, 0, 1, 1, [4]byte{250, 10, 128, 200})

	if err := r.AdjustBrightness(20); err != nil {
		t.Fatalf("AdjustBrightness: %v", err)
	}
	got, _ := r.At(0, 0)
	want := [4]byte{255, 30, 148, 200} // alpha untouched, red clamped
	if got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}

	if err := r.AdjustBrightness(-300); err != nil {
		t.Fatalf("AdjustBrightness: %v", err)
	}
	got, _ = r.At(0, 0)
	if got != ([4]byte{0, 0, 0, 200}) {
		t.Errorf("pixel = %v, want black with alpha 200", got)
	}
}

func TestStateRoundTrip(t *testing.T) {
	r := NewRaster(3, 3)
	_ = r.Fill(0, 0, 3, 3, [4]byte{5, 6, 7, 255})

	state, err := r.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}

	_ = r.Fill(0, 0, 3, 3, [4]byte{0, 0, 0, 255})
	if err := r.SetState(state); err != nil {
		t.Fatalf("SetState: %v", err)
	}

	got, _ := r.At(1, 1)
	if got != ([4]byte{5, 6, 7, 255}) {
		t.Errorf("pixel = %v, want {5 6 7 255}", got)
	}

	if err := r.SetState([]byte{1}); !errors.Is(err, ErrBadStateSize) {
		t.Errorf("SetState short blob = %v, want ErrBadStateSize", err)
	}
}

func TestEncodeApplyRoundTrip(t *testing.T) {
	r := NewRaster(3, 2)
	_ = r.Fill(0, 0, 3, 2, [4]byte{10, 20, 30, 255})
	_ = r.Fill(1, 0, 1, 1, [4]byte{200, 100, 50, 255})

	encoded, err := r.EncodeState()
	if err != nil {
		t.Fatalf("EncodeState: %v", err)
	}
	want, _ := r.State()

	_ = r.Fill(0, 0, 3, 2, [4]byte{0, 0, 0, 255})
	if err := r.ApplyEncoded(context.Background(), encoded); err != nil {
		t.Fatalf("ApplyEncoded: %v", err)
	}

	got, _ := r.State()
	if len(got) != len(want) {
		t.Fatalf("state length mismatch")
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("state[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestApplyEncodedBadData(t *testing.T) {
	r := NewRaster(2, 2)
	if err := r.ApplyEncoded(context.Background(), "not base64!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if err := r.ApplyEncoded(context.Background(), "aGVsbG8="); err == nil {
		t.Error("expected error for non-PNG payload")
	}
}

func TestClosedSurface(t *testing.T) {
	r := NewRaster(2, 2)
	r.Close()

	if r.Valid() {
		t.Error("closed surface must not be valid")
	}
	if _, err := r.State(); !errors.Is(err, ErrClosed) {
		t.Errorf("State = %v, want ErrClosed", err)
	}
	if err := r.Fill(0, 0, 1, 1, [4]byte{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Fill = %v, want ErrClosed", err)
	}
	if _, err := r.EncodeState(); !errors.Is(err, ErrClosed) {
		t.Errorf("EncodeState = %v, want ErrClosed", err)
	}
}
