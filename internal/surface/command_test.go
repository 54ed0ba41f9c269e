package surface

import (
	"context"
	"testing"

	"github.com/dshills/rewind/internal/engine/command"
)

func TestFillCommandExecuteUndo(t *testing.T) {
	surf := NewRaster(4, 4)
	_ = surf.Fill(0, 0, 4, 4, [4]byte{1, 2, 3, 255})
	factory := NewFactory()

	cmd := factory.Fill(surf, 1, 1, 2, 2, [4]byte{200, 0, 0, 255})
	ctx := context.Background()

	if err := cmd.Execute(ctx); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	got, _ := surf.At(2, 2)
	if got != ([4]byte{200, 0, 0, 255}) {
		t.Errorf("pixel after execute = %v", got)
	}

	if err := cmd.Undo(ctx); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	got, _ = surf.At(2, 2)
	if got != ([4]byte{1, 2, 3, 255}) {
		t.Errorf("pixel after undo = %v, want original", got)
	}

	// Redo must reproduce the same end state.
	if err := cmd.Execute(ctx); err != nil {
		t.Fatalf("re-Execute: %v", err)
	}
	got, _ = surf.At(2, 2)
	if got != ([4]byte{200, 0, 0, 255}) {
		t.Errorf("pixel after redo = %v", got)
	}
}

func TestFillCommandFootprintGrows(t *testing.T) {
	surf := NewRaster(8, 8)
	factory := NewFactory()
	cmd := factory.Fill(surf, 0, 0, 8, 8, [4]byte{1, 1, 1, 255})

	before := cmd.MemoryFootprint()
	if err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	after := cmd.MemoryFootprint()

	if after <= before {
		t.Errorf("footprint did not grow after capture: before %d, after %d", before, after)
	}
}

func TestFillCommandStaleAfterClose(t *testing.T) {
	surf := NewRaster(2, 2)
	factory := NewFactory()
	cmd := factory.Fill(surf, 0, 0, 1, 1, [4]byte{1, 1, 1, 255})

	if !cmd.IsValid() {
		t.Error("command should be valid while surface is open")
	}
	surf.Close()
	if cmd.IsValid() {
		t.Error("command must go stale when surface closes")
	}
	if err := cmd.Execute(context.Background()); err == nil {
		t.Error("execute on a closed surface should fail")
	}
}

func TestBrightnessCommandUndoUnderClamp(t *testing.T) {
	surf := NewRaster(1, 1)
	_ = surf.Fill(0, 0, 1, 1, [4]byte{250, 10, 100, 255})
	factory := NewFactory()

	cmd := factory.Brightness(surf, 50)
	ctx := context.Background()

	if err := cmd.Execute(ctx); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	got, _ := surf.At(0, 0)
	if got != ([4]byte{255, 60, 150, 255}) {
		t.Errorf("pixel after execute = %v", got)
	}

	// Negating the delta would give 205 for the clamped red channel; the
	// captured state restores 250 exactly.
	if err := cmd.Undo(ctx); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	got, _ = surf.At(0, 0)
	if got != ([4]byte{250, 10, 100, 255}) {
		t.Errorf("pixel after undo = %v, want exact original", got)
	}
}

func TestBrightnessCanMergeWith(t *testing.T) {
	surf := NewRaster(2, 2)
	other := NewRaster(2, 2)
	factory := NewFactory()

	a := factory.Brightness(surf, 10)
	b := factory.Brightness(surf, 5)
	if !a.CanMergeWith(b) {
		t.Error("back-to-back brightness on same surface should merge")
	}

	c := factory.Brightness(other, 5)
	if a.CanMergeWith(c) {
		t.Error("commands on different surfaces must not merge")
	}

	fill := factory.Fill(surf, 0, 0, 1, 1, [4]byte{})
	if a.CanMergeWith(fill) {
		t.Error("different command kinds must not merge")
	}
}

func TestBrightnessMergeWith(t *testing.T) {
	surf := NewRaster(2, 2)
	_ = surf.Fill(0, 0, 2, 2, [4]byte{100, 100, 100, 255})
	factory := NewFactory()
	ctx := context.Background()

	a := factory.Brightness(surf, 10)
	if err := a.Execute(ctx); err != nil {
		t.Fatalf("Execute a: %v", err)
	}
	b := factory.Brightness(surf, 5)
	if err := b.Execute(ctx); err != nil {
		t.Fatalf("Execute b: %v", err)
	}

	mergedCmd, err := a.MergeWith(b)
	if err != nil {
		t.Fatalf("MergeWith: %v", err)
	}
	merged, ok := mergedCmd.(*BrightnessCommand)
	if !ok {
		t.Fatalf("merged command is %T", mergedCmd)
	}

	if merged.Delta() != 15 {
		t.Errorf("merged delta = %d, want 15", merged.Delta())
	}
	if merged.ID() == a.ID() || merged.ID() == b.ID() {
		t.Error("merge must produce a new command, not reuse an input")
	}
	// Inputs must be untouched.
	if a.Delta() != 10 || b.Delta() != 5 {
		t.Error("merge mutated its inputs")
	}

	// Undoing the merged command restores the state before the first shift.
	if err := merged.Undo(ctx); err != nil {
		t.Fatalf("Undo merged: %v", err)
	}
	got, _ := surf.At(0, 0)
	if got != ([4]byte{100, 100, 100, 255}) {
		t.Errorf("pixel after merged undo = %v, want original", got)
	}
}

func TestBrightnessMergedRedoUnderClamp(t *testing.T) {
	surf := NewRaster(1, 1)
	_ = surf.Fill(0, 0, 1, 1, [4]byte{200, 200, 200, 255})
	factory := NewFactory()
	ctx := context.Background()

	// +100 clamps at 255, -100 then lands on 155. The summed delta of 0
	// would leave 200, so the merged command must restore the captured
	// after-state instead of re-applying the sum.
	up := factory.Brightness(surf, 100)
	if err := up.Execute(ctx); err != nil {
		t.Fatalf("Execute up: %v", err)
	}
	down := factory.Brightness(surf, -100)
	if err := down.Execute(ctx); err != nil {
		t.Fatalf("Execute down: %v", err)
	}
	got, _ := surf.At(0, 0)
	if got != ([4]byte{155, 155, 155, 255}) {
		t.Fatalf("pixel after both shifts = %v, want 155s", got)
	}

	merged, err := up.MergeWith(down)
	if err != nil {
		t.Fatalf("MergeWith: %v", err)
	}

	if err := merged.Undo(ctx); err != nil {
		t.Fatalf("Undo merged: %v", err)
	}
	got, _ = surf.At(0, 0)
	if got != ([4]byte{200, 200, 200, 255}) {
		t.Errorf("pixel after merged undo = %v, want original 200s", got)
	}

	if err := merged.Execute(ctx); err != nil {
		t.Fatalf("redo merged: %v", err)
	}
	got, _ = surf.At(0, 0)
	if got != ([4]byte{155, 155, 155, 255}) {
		t.Errorf("pixel after merged redo = %v, want pre-undo 155s", got)
	}
}

func TestCommandSerializeKinds(t *testing.T) {
	surf := NewRaster(2, 2)
	factory := NewFactory()

	var fillCmd command.Command = factory.Fill(surf, 0, 0, 1, 1, [4]byte{1, 2, 3, 4})
	rec := command.Describe(fillCmd)
	if rec.Kind != "fill" {
		t.Errorf("fill kind = %q", rec.Kind)
	}
	if rec.Payload["w"] != 1 {
		t.Errorf("fill payload w = %v, want 1", rec.Payload["w"])
	}

	var bright command.Command = factory.Brightness(surf, -20)
	rec = command.Describe(bright)
	if rec.Kind != "brightness" {
		t.Errorf("brightness kind = %q", rec.Kind)
	}
	if rec.Payload["delta"] != -20 {
		t.Errorf("brightness payload delta = %v, want -20", rec.Payload["delta"])
	}
}
