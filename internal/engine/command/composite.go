package command

import (
	"context"
	"errors"
	"fmt"
)

// ErrSealed is returned when adding to a composite that has already been
// committed to the timeline.
var ErrSealed = errors.New("composite command is sealed")

// Composite groups multiple commands as one undo unit. Children execute in
// insertion order and undo in strict reverse order. The composite owns its
// children exclusively; they are never retained by the timeline on their own.
type Composite struct {
	Base

	children []Command
	sealed   bool
}

// NewComposite creates an empty composite command.
func NewComposite(gen *Generator, name string) *Composite {
	return &Composite{Base: NewBase(gen, name)}
}

// Add appends a child command. Adding is only legal before the composite is
// sealed into the timeline.
func (c *Composite) Add(cmd Command) error {
	if c.sealed {
		return ErrSealed
	}
	c.children = append(c.children, cmd)
	return nil
}

// Seal marks the composite as committed. Further Add calls fail.
func (c *Composite) Seal() {
	c.sealed = true
}

// Commands returns a read-only copy of the children.
func (c *Composite) Commands() []Command {
	out := make([]Command, len(c.children))
	copy(out, c.children)
	return out
}

// Len returns the number of children.
func (c *Composite) Len() int {
	return len(c.children)
}

// Execute runs all children in order. On a mid-sequence failure the
// already-executed children are undone in reverse before the error is
// returned, so a failed composite leaves no partial effect.
func (c *Composite) Execute(ctx context.Context) error {
	for i, cmd := range c.children {
		if err := cmd.Execute(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = c.children[j].Undo(ctx)
			}
			return fmt.Errorf("composite %q step %d: %w", c.Name(), i, err)
		}
	}
	return nil
}

// Undo reverses all children in reverse order.
func (c *Composite) Undo(ctx context.Context) error {
	for i := len(c.children) - 1; i >= 0; i-- {
		if err := c.children[i].Undo(ctx); err != nil {
			return fmt.Errorf("undo composite %q step %d: %w", c.Name(), i, err)
		}
	}
	return nil
}

// MemoryFootprint returns the sum of the children's footprints.
func (c *Composite) MemoryFootprint() int64 {
	var total int64
	for _, cmd := range c.children {
		total += cmd.MemoryFootprint()
	}
	return total
}

// IsValid reports whether every child is still valid.
func (c *Composite) IsValid() bool {
	for _, cmd := range c.children {
		if !cmd.IsValid() {
			return false
		}
	}
	return true
}

// Serialize describes the composite and its children.
func (c *Composite) Serialize() Record {
	kinds := make([]any, len(c.children))
	for i, cmd := range c.children {
		kinds[i] = Describe(cmd).Kind
	}
	return Record{
		ID:        c.ID(),
		Name:      c.Name(),
		Kind:      "composite",
		Timestamp: c.Timestamp(),
		Payload: map[string]any{
			"count": len(c.children),
			"kinds": kinds,
		},
	}
}
