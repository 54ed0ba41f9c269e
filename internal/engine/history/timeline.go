package history

import (
	"time"

	"github.com/dshills/rewind/internal/engine/command"
)

// entry wraps a recorded command with metadata.
type entry struct {
	command    command.Command
	recordedAt time.Time
}

// timeline is the ordered, cursor-addressed record of executed commands.
// current is -1 when nothing is done; entries above current are retained
// for redo until overwritten.
type timeline struct {
	entries []*entry
	current int
}

func newTimeline() *timeline {
	return &timeline{current: -1}
}

func (t *timeline) Len() int {
	return len(t.entries)
}

func (t *timeline) Index() int {
	return t.current
}

func (t *timeline) SetIndex(i int) {
	t.current = i
}

// At returns the command at index i, or nil when out of range.
func (t *timeline) At(i int) command.Command {
	if i < 0 || i >= len(t.entries) {
		return nil
	}
	return t.entries[i].command
}

// Current returns the most recently executed, still-active command.
func (t *timeline) Current() command.Command {
	return t.At(t.current)
}

// Next returns the first redoable command.
func (t *timeline) Next() command.Command {
	return t.At(t.current + 1)
}

// TruncateFuture discards every entry beyond the cursor and returns the
// discarded commands oldest-first. This is the branch-overwrite rule.
func (t *timeline) TruncateFuture() []command.Command {
	if t.current >= len(t.entries)-1 {
		return nil
	}
	discarded := make([]command.Command, 0, len(t.entries)-t.current-1)
	for _, e := range t.entries[t.current+1:] {
		discarded = append(discarded, e.command)
	}
	t.entries = t.entries[:t.current+1]
	return discarded
}

// Append records cmd as the new current entry.
func (t *timeline) Append(cmd command.Command) {
	t.entries = append(t.entries, &entry{command: cmd, recordedAt: time.Now()})
	t.current = len(t.entries) - 1
}

// ReplaceCurrent swaps the current entry's command in place, preserving its
// position. Used by the merge path.
func (t *timeline) ReplaceCurrent(cmd command.Command) {
	t.entries[t.current].command = cmd
}

// EvictOldest removes entry 0 and decrements the cursor so it keeps pointing
// at the same logical command. Returns the evicted command, or nil when the
// timeline is empty.
func (t *timeline) EvictOldest() command.Command {
	if len(t.entries) == 0 {
		return nil
	}
	evicted := t.entries[0].command
	t.entries = t.entries[1:]
	if t.current >= 0 {
		t.current--
	}
	return evicted
}

// Reset empties the timeline.
func (t *timeline) Reset() {
	t.entries = nil
	t.current = -1
}

// Commands returns a copy of all recorded commands in order.
func (t *timeline) Commands() []command.Command {
	out := make([]command.Command, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.command
	}
	return out
}
