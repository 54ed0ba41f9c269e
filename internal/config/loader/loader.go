// Package loader reads engine options from TOML or YAML files.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dshills/rewind/internal/config"
)

// Loader reads options from some source. A missing source yields the
// defaults without error.
type Loader interface {
	Load() (config.Options, error)
}

// File is the on-disk schema shared by the TOML and YAML loaders. Boolean
// fields are pointers so an absent key is distinguishable from false.
type File struct {
	MaxHistorySize   int   `toml:"max_history_size" yaml:"max_history_size"`
	MaxMemoryUsage   int64 `toml:"max_memory_usage" yaml:"max_memory_usage"`
	EnableGrouping   *bool `toml:"enable_grouping" yaml:"enable_grouping"`
	AutoCleanup      *bool `toml:"auto_cleanup" yaml:"auto_cleanup"`
	SnapshotInterval int   `toml:"snapshot_interval" yaml:"snapshot_interval"`
}

// apply merges the file's set fields onto base.
func (f File) apply(base config.Options) config.Options {
	if f.MaxHistorySize > 0 {
		base.MaxHistorySize = f.MaxHistorySize
	}
	if f.MaxMemoryUsage > 0 {
		base.MaxMemoryUsage = f.MaxMemoryUsage
	}
	if f.EnableGrouping != nil {
		base.EnableGrouping = *f.EnableGrouping
	}
	if f.AutoCleanup != nil {
		base.AutoCleanup = *f.AutoCleanup
	}
	if f.SnapshotInterval > 0 {
		base.SnapshotInterval = f.SnapshotInterval
	}
	return base
}

// ForPath returns a loader chosen by the path's extension.
func ForPath(path string) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return NewTOMLLoader(path), nil
	case ".yaml", ".yml":
		return NewYAMLLoader(path), nil
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

// Load reads options from path using the extension-appropriate loader.
func Load(path string) (config.Options, error) {
	l, err := ForPath(path)
	if err != nil {
		return config.Options{}, err
	}
	return l.Load()
}
