// Package config defines the history engine's tunable options.
package config

import "fmt"

// Defaults for engine options.
const (
	DefaultMaxHistorySize   = 50
	DefaultMaxMemoryUsage   = 100 * 1024 * 1024 // 100 MiB
	DefaultSnapshotInterval = 10
)

// Options configures a history engine. The zero value is not usable; start
// from Default and override.
type Options struct {
	// MaxHistorySize is the maximum number of retained timeline entries.
	MaxHistorySize int

	// MaxMemoryUsage is the byte ceiling over retained commands plus
	// snapshots.
	MaxMemoryUsage int64

	// EnableGrouping allows composite command grouping. When false,
	// BeginGroup is a no-op and commands record individually.
	EnableGrouping bool

	// AutoCleanup runs eviction after every recorded command.
	AutoCleanup bool

	// SnapshotInterval takes a snapshot every N recorded commands.
	SnapshotInterval int
}

// Default returns the default options.
func Default() Options {
	return Options{
		MaxHistorySize:   DefaultMaxHistorySize,
		MaxMemoryUsage:   DefaultMaxMemoryUsage,
		EnableGrouping:   true,
		AutoCleanup:      true,
		SnapshotInterval: DefaultSnapshotInterval,
	}
}

// Validate reports whether the options are usable.
func (o Options) Validate() error {
	if o.MaxHistorySize < 1 {
		return fmt.Errorf("max history size must be positive, got %d", o.MaxHistorySize)
	}
	if o.MaxMemoryUsage < 1 {
		return fmt.Errorf("max memory usage must be positive, got %d", o.MaxMemoryUsage)
	}
	if o.SnapshotInterval < 1 {
		return fmt.Errorf("snapshot interval must be positive, got %d", o.SnapshotInterval)
	}
	return nil
}

// Normalized returns a copy with non-positive numeric fields replaced by
// their defaults.
func (o Options) Normalized() Options {
	if o.MaxHistorySize < 1 {
		o.MaxHistorySize = DefaultMaxHistorySize
	}
	if o.MaxMemoryUsage < 1 {
		o.MaxMemoryUsage = DefaultMaxMemoryUsage
	}
	if o.SnapshotInterval < 1 {
		o.SnapshotInterval = DefaultSnapshotInterval
	}
	return o
}
