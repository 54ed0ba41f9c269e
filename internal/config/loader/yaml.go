package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/rewind/internal/config"
)

// YAMLLoader loads engine options from a YAML file.
type YAMLLoader struct {
	path string
}

// NewYAMLLoader creates a YAML loader for the given path.
func NewYAMLLoader(path string) *YAMLLoader {
	return &YAMLLoader{path: path}
}

// Load reads options from the configured path. A missing file yields the
// defaults without error.
func (l *YAMLLoader) Load() (config.Options, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return config.Default(), nil
		}
		return config.Options{}, fmt.Errorf("reading config file %s: %w", l.path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return config.Options{}, fmt.Errorf("parsing config file %s: %w", l.path, err)
	}
	return f.apply(config.Default()), nil
}
