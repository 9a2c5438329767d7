package retriever

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes which store to query and how to traverse it.
type Config struct {
	Store      string `yaml:"store"`
	Collection string `yaml:"collection"`
	Edges      []Edge `yaml:"edges"`
	Strategy   Eager  `yaml:"strategy"`
}

// DefaultConfig queries the "test" collection on Astra DB with entity edges.
func DefaultConfig() *Config {
	return &Config{
		Store:      "astra",
		Collection: "test",
		Edges:      DefaultEdges(),
		Strategy:   DefaultStrategy(),
	}
}

// LoadConfig reads a YAML config. An empty path returns the defaults.
// Strategy fields left at zero are resolved by New.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read retriever config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse retriever config %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

func applyConfigDefaults(cfg *Config) {
	d := DefaultConfig()
	if cfg.Store == "" {
		cfg.Store = d.Store
	}
	if cfg.Collection == "" {
		cfg.Collection = d.Collection
	}
	if len(cfg.Edges) == 0 {
		cfg.Edges = d.Edges
	}
}
