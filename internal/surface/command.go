package surface

import (
	"context"
	"fmt"

	"github.com/dshills/rewind/internal/engine/command"
)

// Factory builds concrete surface commands. It owns the ID generator used by
// everything it constructs.
type Factory struct {
	gen *command.Generator
}

// NewFactory creates a command factory with its own ID generator.
func NewFactory() *Factory {
	return &Factory{gen: command.NewGenerator()}
}

// Generator returns the factory's ID generator, for callers that construct
// their own command types.
func (f *Factory) Generator() *command.Generator {
	return f.gen
}

// Fill creates a command that fills a rect with a color.
func (f *Factory) Fill(surf *Raster, x, y, w, h int, color [4]byte) *FillCommand {
	return &FillCommand{
		Base:  command.NewBase(f.gen, fmt.Sprintf("Fill %dx%d", w, h)),
		surf:  surf,
		x:     x,
		y:     y,
		w:     w,
		h:     h,
		color: color,
	}
}

// Brightness creates a command that shifts all pixel channels by delta.
func (f *Factory) Brightness(surf *Raster, delta int) *BrightnessCommand {
	return &BrightnessCommand{
		Base:  command.NewBase(f.gen, fmt.Sprintf("Brightness %+d", delta)),
		gen:   f.gen,
		surf:  surf,
		delta: delta,
	}
}

// FillCommand fills a rect with a solid color, capturing the overwritten
// pixels for undo.
type FillCommand struct {
	command.Base

	surf   *Raster
	x, y   int
	w, h   int
	color  [4]byte
	before []byte
}

// Execute captures the current pixels of the rect, then fills it.
func (c *FillCommand) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	before, err := c.surf.Region(c.x, c.y, c.w, c.h)
	if err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	if err := c.surf.Fill(c.x, c.y, c.w, c.h, c.color); err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	c.before = before
	return nil
}

// Undo restores the captured pixels.
func (c *FillCommand) Undo(ctx context.Context) error {
	if c.before == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.surf.SetRegion(c.x, c.y, c.w, c.h, c.before); err != nil {
		return fmt.Errorf("undo fill: %w", err)
	}
	return nil
}

// MemoryFootprint counts the captured region plus a fixed overhead.
func (c *FillCommand) MemoryFootprint() int64 {
	return int64(len(c.before)) + 64
}

// IsValid reports whether the backing surface is still usable.
func (c *FillCommand) IsValid() bool {
	return c.surf.Valid()
}

// Serialize describes the fill for history inspection.
func (c *FillCommand) Serialize() command.Record {
	return command.Record{
		ID:        c.ID(),
		Name:      c.Name(),
		Kind:      "fill",
		Timestamp: c.Timestamp(),
		Payload: map[string]any{
			"x": c.x, "y": c.y, "w": c.w, "h": c.h,
			"color": []int{int(c.color[0]), int(c.color[1]), int(c.color[2]), int(c.color[3])},
		},
	}
}

// BrightnessCommand shifts every pixel's RGB channels by a delta. Because
// channel values clamp at 0 and 255, undo restores a full captured copy of
// the surface rather than applying the negated delta.
//
// Consecutive brightness commands on the same surface merge within the merge
// window, so a slider drag collapses into one undo step.
type BrightnessCommand struct {
	command.Base

	gen    *command.Generator
	surf   *Raster
	delta  int
	before []byte
	after  []byte
}

// Delta returns the brightness shift.
func (c *BrightnessCommand) Delta() int { return c.delta }

// Execute captures the surface state, then applies the shift. A merged
// command restores its captured after-state instead of re-applying the
// summed delta: clamping makes sequential shifts and their sum diverge.
func (c *BrightnessCommand) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.after != nil {
		if err := c.surf.SetState(c.after); err != nil {
			return fmt.Errorf("brightness: %w", err)
		}
		return nil
	}
	before, err := c.surf.State()
	if err != nil {
		return fmt.Errorf("brightness: %w", err)
	}
	if err := c.surf.AdjustBrightness(c.delta); err != nil {
		return fmt.Errorf("brightness: %w", err)
	}
	c.before = before
	return nil
}

// Undo restores the captured state.
func (c *BrightnessCommand) Undo(ctx context.Context) error {
	if c.before == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.surf.SetState(c.before); err != nil {
		return fmt.Errorf("undo brightness: %w", err)
	}
	return nil
}

// MemoryFootprint counts the captured states plus a fixed overhead.
func (c *BrightnessCommand) MemoryFootprint() int64 {
	return int64(len(c.before)+len(c.after)) + 64
}

// IsValid reports whether the backing surface is still usable.
func (c *BrightnessCommand) IsValid() bool {
	return c.surf.Valid()
}

// CanMergeWith reports whether other is a brightness shift on the same
// surface created within the merge window.
func (c *BrightnessCommand) CanMergeWith(other command.Command) bool {
	o, ok := other.(*BrightnessCommand)
	if !ok || o.surf != c.surf {
		return false
	}
	return command.WithinMergeWindow(c, o, 0)
}

// MergeWith returns a new command whose undo state is the earlier command's
// capture and whose redo state is the surface as it stands now, after both
// shifts applied. Both states are captured by copy; neither input is
// mutated. Restoring the after-state on redo keeps the merged entry exact
// even when clamping made the two shifts non-additive.
func (c *BrightnessCommand) MergeWith(other command.Command) (command.Command, error) {
	o, ok := other.(*BrightnessCommand)
	if !ok {
		return nil, fmt.Errorf("cannot merge brightness with %T", other)
	}
	after, err := c.surf.State()
	if err != nil {
		return nil, fmt.Errorf("merge brightness: %w", err)
	}
	merged := &BrightnessCommand{
		Base:  command.NewBase(c.gen, fmt.Sprintf("Brightness %+d", c.delta+o.delta)),
		gen:   c.gen,
		surf:  c.surf,
		delta: c.delta + o.delta,
		after: after,
	}
	if c.before != nil {
		merged.before = make([]byte, len(c.before))
		copy(merged.before, c.before)
	}
	return merged, nil
}

// Serialize describes the shift for history inspection.
func (c *BrightnessCommand) Serialize() command.Record {
	return command.Record{
		ID:        c.ID(),
		Name:      c.Name(),
		Kind:      "brightness",
		Timestamp: c.Timestamp(),
		Payload:   map[string]any{"delta": c.delta},
	}
}
