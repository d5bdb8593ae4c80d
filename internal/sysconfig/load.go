package sysconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a compiled configuration snapshot from a YAML file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config snapshot: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config snapshot: %w", err)
	}
	return cfg, nil
}

// WriteFile serializes a configuration snapshot to a YAML file.
func WriteFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config snapshot: %w", err)
	}
	return nil
}
