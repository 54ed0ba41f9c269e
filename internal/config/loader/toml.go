package loader

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/rewind/internal/config"
)

// TOMLLoader loads engine options from a TOML file.
type TOMLLoader struct {
	path string
}

// NewTOMLLoader creates a TOML loader for the given path.
func NewTOMLLoader(path string) *TOMLLoader {
	return &TOMLLoader{path: path}
}

// Load reads options from the configured path. A missing file yields the
// defaults without error.
func (l *TOMLLoader) Load() (config.Options, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return config.Default(), nil
		}
		return config.Options{}, fmt.Errorf("reading config file %s: %w", l.path, err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return config.Options{}, fmt.Errorf("parsing config file %s: %w", l.path, err)
	}
	return f.apply(config.Default()), nil
}
