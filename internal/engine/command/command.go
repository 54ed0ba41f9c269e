package command

import (
	"context"
	"time"
)

// Command represents a reversible edit action recorded by the history engine.
// A command is executed once when it is recorded and again on every redo;
// re-executing after an undo must reproduce the same observable end state.
type Command interface {
	// ID returns the command's unique identifier, stable for its lifetime.
	ID() string

	// Name returns a human-readable label for UI display.
	Name() string

	// Timestamp returns the command's creation time, used for merge decisions.
	Timestamp() time.Time

	// Execute performs (or re-performs) the edit.
	Execute(ctx context.Context) error

	// Undo reverses exactly the effect of the most recent Execute.
	Undo(ctx context.Context) error

	// MemoryFootprint returns a byte estimate for the command and any
	// before/after state it captured. The estimate may grow after Execute.
	MemoryFootprint() int64

	// IsValid reports whether the command's backing context still exists.
	// Stale commands are refused by undo/redo.
	IsValid() bool
}

// Merger is an optional capability for commands that can coalesce with a
// later command of the same kind, collapsing rapid-fire edits into a single
// undo step.
type Merger interface {
	// CanMergeWith reports whether other can be folded into this command.
	// It is a pure predicate with no side effects.
	CanMergeWith(other Command) bool

	// MergeWith returns a new command representing the combined effect.
	// Neither input is mutated; both remain independently usable until the
	// merge result replaces them.
	MergeWith(other Command) (Command, error)
}

// Serializer is an optional capability for commands that can describe
// themselves for history inspection.
type Serializer interface {
	Serialize() Record
}

// UnknownKind is the fallback kind for commands without a Serializer.
const UnknownKind = "Unknown"

// Record is a plain descriptive record of a command for inspection and UI.
type Record struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Kind      string         `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Describe returns cmd's serialized record, falling back to a minimal
// record with kind "Unknown" when cmd does not implement Serializer.
func Describe(cmd Command) Record {
	if s, ok := cmd.(Serializer); ok {
		return s.Serialize()
	}
	return Record{
		ID:        cmd.ID(),
		Name:      cmd.Name(),
		Kind:      UnknownKind,
		Timestamp: cmd.Timestamp(),
	}
}

// DefaultMergeWindow is the time span within which consecutive same-kind
// commands coalesce into one history entry.
const DefaultMergeWindow = 500 * time.Millisecond

// WithinMergeWindow reports whether later was created within window of
// earlier. A non-positive window uses DefaultMergeWindow.
func WithinMergeWindow(earlier, later Command, window time.Duration) bool {
	if window <= 0 {
		window = DefaultMergeWindow
	}
	delta := later.Timestamp().Sub(earlier.Timestamp())
	return delta >= 0 && delta <= window
}
