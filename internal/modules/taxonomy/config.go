package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the batch-fit parameters. Refits are operator-triggered, so
// the knobs live in a YAML file checked alongside the deployment rather
// than in environment variables.
type Config struct {
	NumClusters  int     `yaml:"num_clusters"`
	MinPosterior float64 `yaml:"min_posterior"`
	MaxIter      int     `yaml:"max_iter"`
	Seed         int64   `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		NumClusters:  8,
		MinPosterior: 0.1,
		MaxIter:      50,
		Seed:         1,
	}
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read taxonomy config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse taxonomy config: %w", err)
	}
	if cfg.NumClusters <= 0 {
		return cfg, fmt.Errorf("taxonomy config: num_clusters must be positive")
	}
	if cfg.MinPosterior <= 0 || cfg.MinPosterior >= 1 {
		return cfg, fmt.Errorf("taxonomy config: min_posterior must be in (0,1)")
	}
	return cfg, nil
}
