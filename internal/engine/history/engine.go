package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/engine/command"
	"github.com/dshills/rewind/internal/engine/snapshot"
	"github.com/dshills/rewind/internal/event"
	"github.com/dshills/rewind/internal/logging"
	"github.com/dshills/rewind/internal/surface"
)

// Engine orchestrates the timeline, snapshot store, and memory accounting.
// Its public mutating operations are serialized by one mutex: Execute, Undo,
// and Redo each run to completion before the next is accepted, so concurrent
// callers queue FIFO and never observe overlapping cursor mutation.
type Engine struct {
	mu sync.Mutex

	opts config.Options
	surf surface.Surface

	timeline  *timeline
	snapshots *snapshot.Store
	acct      accountant

	group *command.Composite
	gen   *command.Generator

	emitter *event.Emitter
	logger  *logging.Logger

	lastErr error
}

// Option configures an Engine.
type Option func(*Engine)

// WithOptions sets the engine's configuration.
func WithOptions(opts config.Options) Option {
	return func(e *Engine) { e.opts = opts }
}

// WithEmitter sets the lifecycle event emitter.
func WithEmitter(em *event.Emitter) Option {
	return func(e *Engine) { e.emitter = em }
}

// WithLogger sets the engine's logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithGenerator sets the ID generator used for composite commands.
func WithGenerator(g *command.Generator) Option {
	return func(e *Engine) { e.gen = g }
}

// New creates a history engine for the given surface. The surface is used
// by the snapshot subsystem; it may be nil, in which case snapshots and
// undo-failure recovery are disabled.
func New(surf surface.Surface, opts ...Option) *Engine {
	e := &Engine{
		opts:      config.Default(),
		surf:      surf,
		timeline:  newTimeline(),
		snapshots: snapshot.NewStore(),
		gen:       command.NewGenerator(),
		emitter:   event.NewEmitter(),
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.opts = e.opts.Normalized()
	e.logger = e.logger.WithComponent("history")
	return e
}

// Emitter returns the engine's lifecycle event emitter.
func (e *Engine) Emitter() *event.Emitter {
	return e.emitter
}

// Execute records a command. The command is executed first; on success it is
// appended to the timeline, folded into the open group, or merged into the
// most recent entry. An execute failure propagates to the caller and nothing
// is recorded.
//
// Merge convention: the incoming command always executes before the merge
// check, and MergeWith reconciles bookkeeping only. The merged entry's Undo
// must reverse the combined effect.
func (e *Engine) Execute(ctx context.Context, cmd command.Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.truncateFutureLocked()

	if e.group != nil {
		if err := cmd.Execute(ctx); err != nil {
			return err
		}
		if err := e.group.Add(cmd); err != nil {
			return err
		}
		e.emitter.Emit(event.NewCommand(event.TypeCommand, cmd))
		return nil
	}

	if err := cmd.Execute(ctx); err != nil {
		return err
	}

	if !e.mergeLocked(cmd) {
		e.timeline.Append(cmd)
		e.acct.Add(cmd.MemoryFootprint())
	}

	e.postRecordLocked()
	e.emitter.Emit(event.NewCommand(event.TypeCommand, cmd))
	return nil
}

// Undo reverses the current entry. It returns false when there is nothing
// to undo, the entry is stale, or the entry's Undo failed; failures never
// propagate as errors. After a failed Undo the engine restores the nearest
// snapshot and replays forward so the surface is left in the pre-undo state.
func (e *Engine) Undo(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.timeline.Current()
	if cur == nil || !cur.IsValid() {
		return false
	}

	if err := cur.Undo(ctx); err != nil {
		e.lastErr = fmt.Errorf("undo %s: %w", cur.ID(), err)
		e.logger.Warn("undo %s (%s) failed: %v", cur.ID(), cur.Name(), err)
		if e.recoverLocked(ctx) {
			e.logger.Info("surface recovered via snapshot replay")
		} else {
			e.logger.Error("snapshot recovery unavailable after failed undo")
		}
		return false
	}

	e.timeline.SetIndex(e.timeline.Index() - 1)
	e.emitter.Emit(event.NewCommand(event.TypeUndo, cur))
	return true
}

// Redo re-executes the first redoable entry. It returns false when there is
// nothing to redo, the entry is stale, or the entry's Execute failed; on
// failure the cursor increment is rolled back and the error is retained for
// LastError.
func (e *Engine) Redo(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.timeline.Next()
	if next == nil || !next.IsValid() {
		return false
	}

	e.timeline.SetIndex(e.timeline.Index() + 1)
	if err := next.Execute(ctx); err != nil {
		e.timeline.SetIndex(e.timeline.Index() - 1)
		e.lastErr = fmt.Errorf("redo %s: %w", next.ID(), err)
		e.logger.Warn("redo %s (%s) failed: %v", next.ID(), next.Name(), err)
		return false
	}

	e.emitter.Emit(event.NewCommand(event.TypeRedo, next))
	return true
}

// BeginGroup opens a composite command that accumulates subsequent Execute
// calls into a single undo unit. Beginning a group while one is already open
// first commits the open group. A no-op when grouping is disabled.
func (e *Engine) BeginGroup(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.opts.EnableGrouping {
		return
	}
	if e.group != nil {
		e.commitGroupLocked()
	}
	e.group = command.NewComposite(e.gen, name)
}

// EndGroup commits the open group as one timeline entry. A group with no
// accumulated commands is silently discarded.
func (e *Engine) EndGroup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commitGroupLocked()
}

// CancelGroup drops the open group without recording it. Commands already
// executed inside the group still affect the surface.
func (e *Engine) CancelGroup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.group = nil
}

// IsGrouping reports whether a group is open.
func (e *Engine) IsGrouping() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.group != nil
}

// TakeSnapshot captures the surface state at the current timeline index,
// outside the usual interval policy.
func (e *Engine) TakeSnapshot() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.surf == nil {
		return fmt.Errorf("no surface attached")
	}
	return e.captureSnapshotLocked()
}

// Clear resets the engine: timeline emptied, cursor to -1, all snapshots
// dropped, memory accounting zeroed, any open group discarded. Idempotent.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.timeline.Reset()
	e.snapshots.Clear()
	e.acct.Reset()
	e.group = nil
	e.lastErr = nil
	e.emitter.Emit(event.New(event.TypeClear))
}

// CanUndo reports whether an undo would operate on a valid entry.
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.timeline.Current()
	return cur != nil && cur.IsValid()
}

// CanRedo reports whether a redo would operate on a valid entry.
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.timeline.Next()
	return next != nil && next.IsValid()
}

// CurrentIndex returns the timeline cursor, -1 when nothing is done.
func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.Index()
}

// MemoryUsage returns the running byte total over retained commands and
// snapshots.
func (e *Engine) MemoryUsage() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acct.Total()
}

// Commands returns a defensive copy of the recorded commands in order.
func (e *Engine) Commands() []command.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.Commands()
}

// SnapshotCount returns the number of retained snapshots.
func (e *Engine) SnapshotCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshots.Count()
}

// LastError returns the most recent undo/redo/recovery failure. Undo and
// Redo report failure as a boolean; this is the side channel for the cause.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// State is the inspection view of the engine.
type State struct {
	Commands       []command.Record `json:"commands"`
	CurrentIndex   int              `json:"currentIndex"`
	MemoryUsage    int64            `json:"memoryUsage"`
	MaxMemoryUsage int64            `json:"maxMemoryUsage"`
	MaxHistorySize int              `json:"maxHistorySize"`
}

// State returns a serialized view of the timeline and limits.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	records := make([]command.Record, e.timeline.Len())
	for i := 0; i < e.timeline.Len(); i++ {
		records[i] = command.Describe(e.timeline.At(i))
	}
	return State{
		Commands:       records,
		CurrentIndex:   e.timeline.Index(),
		MemoryUsage:    e.acct.Total(),
		MaxMemoryUsage: e.opts.MaxMemoryUsage,
		MaxHistorySize: e.opts.MaxHistorySize,
	}
}

// SetLimits changes the retention ceilings at runtime. Non-positive values
// leave the corresponding ceiling unchanged. Cleanup is applied immediately
// when auto-cleanup is enabled.
func (e *Engine) SetLimits(maxHistory int, maxMemory int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if maxHistory > 0 {
		e.opts.MaxHistorySize = maxHistory
	}
	if maxMemory > 0 {
		e.opts.MaxMemoryUsage = maxMemory
	}
	if e.opts.AutoCleanup {
		e.cleanupLocked()
	}
}

// Options returns the engine's current configuration.
func (e *Engine) Options() config.Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// truncateFutureLocked applies the branch-overwrite rule, refunding the
// footprint of every discarded entry.
func (e *Engine) truncateFutureLocked() {
	for _, cmd := range e.timeline.TruncateFuture() {
		e.acct.Release(cmd.MemoryFootprint())
	}
}

// mergeLocked folds cmd into the current entry when that entry supports
// merging. cmd has already executed; MergeWith reconciles bookkeeping only.
// Returns false when no merge applies, in which case the caller appends.
func (e *Engine) mergeLocked(cmd command.Command) bool {
	cur := e.timeline.Current()
	if cur == nil {
		return false
	}
	m, ok := cur.(command.Merger)
	if !ok || !m.CanMergeWith(cmd) {
		return false
	}

	merged, err := m.MergeWith(cmd)
	if err != nil {
		e.logger.Warn("merge %s into %s: %v", cmd.ID(), cur.ID(), err)
		return false
	}

	e.acct.Release(cur.MemoryFootprint())
	e.timeline.ReplaceCurrent(merged)
	e.acct.Add(merged.MemoryFootprint())
	return true
}

// commitGroupLocked seals the open group and records it as one entry.
func (e *Engine) commitGroupLocked() {
	g := e.group
	e.group = nil
	if g == nil || g.Len() == 0 {
		return
	}
	g.Seal()

	e.timeline.Append(g)
	e.acct.Add(g.MemoryFootprint())
	e.postRecordLocked()
	e.emitter.Emit(event.NewCommand(event.TypeCommand, g))
}

// postRecordLocked runs the snapshot-due check and auto-cleanup after a
// command or group has been recorded.
func (e *Engine) postRecordLocked() {
	if e.surf != nil && e.timeline.Index()%e.opts.SnapshotInterval == 0 {
		if err := e.captureSnapshotLocked(); err != nil {
			// Both capture paths failing is a surface contract violation.
			e.logger.Error("snapshot at index %d: %v", e.timeline.Index(), err)
		}
	}
	if e.opts.AutoCleanup {
		e.cleanupLocked()
	}
}

// captureSnapshotLocked records the surface state at the current index,
// replacing any snapshot already stored there.
func (e *Engine) captureSnapshotLocked() error {
	index := e.timeline.Index()
	snap, freed, err := e.snapshots.Capture(e.surf, index)
	if err != nil {
		return err
	}
	e.acct.Release(freed)
	e.acct.Add(snap.MemoryUsage)
	e.emitter.Emit(event.NewSnapshot(snap))
	return nil
}

// cleanupLocked enforces the entry-count ceiling, then the byte ceiling,
// then prunes snapshots whose index fell outside the retained interval set.
// Eviction removes only from the executed end: when the cursor is rewound
// to -1 every entry is redoable and the loops stop. The single remaining
// entry is never evicted even when it alone exceeds the byte ceiling.
func (e *Engine) cleanupLocked() {
	for e.timeline.Len() > e.opts.MaxHistorySize && e.timeline.Index() >= 0 {
		e.evictOldestLocked()
	}
	for e.acct.Over(e.opts.MaxMemoryUsage) && e.timeline.Len() > 1 && e.timeline.Index() >= 0 {
		e.evictOldestLocked()
	}

	valid := make(map[int]bool)
	for i := 0; i < e.timeline.Len(); i += e.opts.SnapshotInterval {
		valid[i] = true
	}
	e.acct.Release(e.snapshots.PruneOutside(valid))
}

// evictOldestLocked removes the oldest executed entry and refunds its cost.
// Snapshots are shifted down with the timeline so each stays aligned with
// the entry it was captured after; the snapshot at index zero now describes
// an evicted position and is dropped.
func (e *Engine) evictOldestLocked() {
	evicted := e.timeline.EvictOldest()
	if evicted == nil {
		return
	}
	e.acct.Release(evicted.MemoryFootprint())
	e.acct.Release(e.snapshots.ShiftDown())
	e.logger.Debug("evicted %s (%s)", evicted.ID(), evicted.Name())
}

// recoverLocked restores the nearest snapshot at or before the cursor and
// replays Execute for every valid command between the snapshot's index
// (exclusive) and the cursor (inclusive), in forward order. Returns false
// when no snapshot exists or any step fails; the engine never guesses a
// safe index to roll back to.
func (e *Engine) recoverLocked(ctx context.Context) bool {
	if e.surf == nil {
		return false
	}

	snap, ok := e.snapshots.NearestAtOrBefore(e.timeline.Index())
	if !ok {
		return false
	}
	if err := e.snapshots.Restore(ctx, e.surf, snap); err != nil {
		e.lastErr = fmt.Errorf("restore snapshot %s: %w", snap.ID, err)
		return false
	}

	for i := snap.Index + 1; i <= e.timeline.Index(); i++ {
		cmd := e.timeline.At(i)
		if cmd == nil || !cmd.IsValid() {
			continue
		}
		if err := cmd.Execute(ctx); err != nil {
			e.lastErr = fmt.Errorf("replay %s: %w", cmd.ID(), err)
			return false
		}
	}
	return true
}
