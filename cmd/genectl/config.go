package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"genesearch/pkg/genesearch"
)

// evolveConfig is the file form of an evolve invocation. JSON files decode
// too since the decoder accepts any YAML document.
type evolveConfig struct {
	Schema         string                     `yaml:"schema"`
	Store          string                     `yaml:"store"`
	DBPath         string                     `yaml:"db_path"`
	Seed           int64                      `yaml:"seed"`
	Rounds         int                        `yaml:"rounds"`
	Actions        int                        `yaml:"actions"`
	Setup          []string                   `yaml:"setup"`
	SnapshotEvery  int                        `yaml:"snapshot_every"`
	OnlyValidDates bool                       `yaml:"only_valid_dates"`
	Mutation       genesearch.MutationOptions `yaml:"mutation"`
}

func defaultEvolveConfig() evolveConfig {
	return evolveConfig{
		Seed:          1,
		Rounds:        100,
		Actions:       1,
		SnapshotEvery: 10,
		Mutation:      genesearch.DefaultMutationOptions(),
	}
}

// loadEvolveConfig overlays the file at path on the defaults. Keys absent
// from the file keep their default values.
func loadEvolveConfig(path string) (evolveConfig, error) {
	cfg := defaultEvolveConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return evolveConfig{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return evolveConfig{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return evolveConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c evolveConfig) validate() error {
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be > 0, got %d", c.Rounds)
	}
	if c.Actions <= 0 {
		return fmt.Errorf("actions must be > 0, got %d", c.Actions)
	}
	if c.SnapshotEvery < 0 {
		return fmt.Errorf("snapshot_every must be >= 0, got %d", c.SnapshotEvery)
	}
	return c.Mutation.Validate()
}

func (c evolveConfig) runRequest(fitness genesearch.FitnessFunc) genesearch.RunRequest {
	mutation := c.Mutation
	return genesearch.RunRequest{
		SchemaPath:     c.Schema,
		OnlyValidDates: c.OnlyValidDates,
		Rounds:         c.Rounds,
		Seed:           c.Seed,
		Actions:        c.Actions,
		Setup:          c.Setup,
		SnapshotEvery:  c.SnapshotEvery,
		Mutation:       &mutation,
		Fitness:        fitness,
	}
}
