// Package event delivers history lifecycle events to external listeners.
// Emission is fire-and-forget: a failing or panicking listener never aborts
// the engine operation that produced the event.
package event

import (
	"time"

	"github.com/dshills/rewind/internal/engine/command"
	"github.com/dshills/rewind/internal/engine/snapshot"
)

// Type identifies a lifecycle event.
type Type string

// Lifecycle event types emitted by the history engine.
const (
	TypeCommand  Type = "command"
	TypeUndo     Type = "undo"
	TypeRedo     Type = "redo"
	TypeClear    Type = "clear"
	TypeSnapshot Type = "snapshot"
)

// Event is the payload delivered to listeners. Command is set for command,
// undo, and redo events; Snapshot is set for snapshot events; clear events
// carry neither.
type Event struct {
	Type      Type
	Command   command.Command
	Snapshot  *snapshot.Snapshot
	Timestamp time.Time
}

// New creates an event stamped with the current time.
func New(t Type) Event {
	return Event{Type: t, Timestamp: time.Now()}
}

// NewCommand creates a command-carrying event.
func NewCommand(t Type, cmd command.Command) Event {
	e := New(t)
	e.Command = cmd
	return e
}

// NewSnapshot creates a snapshot event.
func NewSnapshot(snap *snapshot.Snapshot) Event {
	e := New(TypeSnapshot)
	e.Snapshot = snap
	return e
}
