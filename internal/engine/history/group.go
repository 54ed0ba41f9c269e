package history

import (
	"context"

	"github.com/dshills/rewind/internal/engine/command"
)

// GroupScope provides a convenient way to group commands using defer.
// Usage:
//
//	func applyPreset(ctx context.Context, e *history.Engine) {
//	    defer e.GroupScope("Apply Preset").End()
//	    // ... multiple edits ...
//	}
type GroupScope struct {
	engine *Engine
	active bool
}

// GroupScope starts a new group scope.
// Call End() or use with defer to properly close the group.
func (e *Engine) GroupScope(name string) *GroupScope {
	e.BeginGroup(name)
	return &GroupScope{
		engine: e,
		active: true,
	}
}

// End ends the group scope.
// Safe to call multiple times; only the first call has effect.
func (g *GroupScope) End() {
	if g.active {
		g.engine.EndGroup()
		g.active = false
	}
}

// Cancel cancels the group scope without creating a composite entry.
// Note: Commands already executed still affect the surface.
func (g *GroupScope) Cancel() {
	if g.active {
		g.engine.CancelGroup()
		g.active = false
	}
}

// Transaction executes a function within a grouped undo context.
// If the function returns an error, the group is cancelled.
// Otherwise, the group is ended normally.
func (e *Engine) Transaction(name string, fn func() error) error {
	e.BeginGroup(name)

	err := fn()
	if err != nil {
		e.CancelGroup()
		return err
	}

	e.EndGroup()
	return nil
}

// ExecuteGrouped executes multiple commands as a single undo unit.
func (e *Engine) ExecuteGrouped(ctx context.Context, name string, cmds ...command.Command) error {
	if len(cmds) == 0 {
		return nil
	}

	if len(cmds) == 1 {
		// Single command doesn't need grouping
		return e.Execute(ctx, cmds[0])
	}

	e.BeginGroup(name)
	for _, cmd := range cmds {
		if err := e.Execute(ctx, cmd); err != nil {
			e.CancelGroup()
			return err
		}
	}
	e.EndGroup()
	return nil
}

// Checkpoint represents a point in history that can be returned to.
type Checkpoint struct {
	index int
}

// CreateCheckpoint creates a checkpoint at the current cursor position.
func (e *Engine) CreateCheckpoint() Checkpoint {
	return Checkpoint{index: e.CurrentIndex()}
}

// UndoToCheckpoint undoes all operations recorded since the checkpoint.
// It stops early and returns false when an undo could not be completed.
func (e *Engine) UndoToCheckpoint(ctx context.Context, cp Checkpoint) bool {
	for e.CurrentIndex() > cp.index {
		if !e.Undo(ctx) {
			return false
		}
	}
	return true
}

// RedoToCheckpoint redoes operations up to the checkpoint position.
// Note: This only works if the redoable entries are still retained.
func (e *Engine) RedoToCheckpoint(ctx context.Context, cp Checkpoint) bool {
	for e.CurrentIndex() < cp.index {
		if !e.Redo(ctx) {
			return false
		}
	}
	return true
}
