package pipeline

import (
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/tabledraw/pkg/config"
	"github.com/matzehuels/tabledraw/pkg/table"
)

// DefaultConfigPath is picked up when no config file is given.
const DefaultConfigPath = "config.toml"

// ResolveConfig loads the config at path. An empty path loads
// DefaultConfigPath when it exists and the built-in defaults otherwise. The
// returned source is the file that was read, or "" for the defaults.
func ResolveConfig(path string) (cfg config.Config, source string, err error) {
	if path == "" {
		if _, statErr := os.Stat(DefaultConfigPath); statErr != nil {
			return config.Default(), "", nil
		}
		path = DefaultConfigPath
	}
	cfg, err = config.Load(path)
	if err != nil {
		return config.Config{}, "", err
	}
	return cfg, path, nil
}

// ParseTable reads CSV rows from r. name prefixes error messages.
func ParseTable(r io.Reader, name string) (*table.Grouped, error) {
	t, err := table.ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}
