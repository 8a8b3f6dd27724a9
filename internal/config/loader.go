package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"scenarist/pkg/logging"
)

// Default returns the tolerant default configuration: non-strict, every
// error behavior at its default, scenarios expected under ./scenarios.
func Default() Config {
	return Config{
		ScenarioPath: "scenarios",
		LogLevel:     "info",
	}
}

// Load reads configuration from a YAML file, starting from the defaults.
// A missing file is not an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "no config file at %s, using defaults", path)
			return cfg, nil
		}
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config in %s: %w", path, err)
	}
	logging.Info("ConfigLoader", "loaded configuration from %s", path)
	return cfg, nil
}
