package commons

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.yaml.in/yaml/v3"

	"laundrypro/internal/config"
)

// LoadConfig reads the YAML file at path, if present, and layers environment
// variables over it. A missing file is not an error.
func LoadConfig(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Load(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg config.Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config.Load(&fileCfg)
}
