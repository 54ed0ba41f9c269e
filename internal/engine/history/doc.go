// Package history provides the reversible-operation engine: it records
// edits as commands, drives undo/redo, groups related edits into atomic
// units, merges rapid-fire edits of the same kind, and bounds its own memory
// footprint with periodic snapshots and eviction.
//
// # Timeline
//
// Recorded commands live on a single linear timeline with a cursor
// separating done entries from undone-but-retained ones. Executing a new
// command after an undo discards everything beyond the cursor; history is
// never a DAG.
//
// # Basic usage
//
//	engine := history.New(surf)
//
//	// Record commands
//	engine.Execute(ctx, cmd)
//
//	// Undo/redo report success as a boolean; failed preconditions are
//	// no-ops, not errors.
//	engine.Undo(ctx)
//	engine.Redo(ctx)
//
// # Grouping
//
// Multiple commands can be grouped as a single undo unit:
//
//	engine.BeginGroup("Crop and Rotate")
//	// ... multiple edits ...
//	engine.EndGroup()
//
// # Recovery
//
// When a command's Undo fails, the engine restores the nearest snapshot at
// or before the cursor and replays the intervening commands forward, so the
// surface is never left half-undone. The failure is still reported as false
// with the cause available from LastError.
//
// # Memory
//
// Retained commands and snapshots are charged against a single running byte
// total. After every recorded command the engine evicts oldest entries until
// both the entry-count and byte ceilings hold, then prunes snapshots whose
// index fell outside the retained range.
package history
