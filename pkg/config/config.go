// Package config loads partitioner settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	osmparser "github.com/azybler/map_partitioner/pkg/osm"
	"github.com/azybler/map_partitioner/pkg/partition"
)

// EnvPrefix prefixes every environment override, e.g. PARTITION_MAX_DEPTH.
const EnvPrefix = "PARTITION_"

// Config is the full tool configuration.
type Config struct {
	Partition PartitionConfig `yaml:"partition"`
	Input     InputConfig     `yaml:"input"`
}

// PartitionConfig controls recursive bisection.
type PartitionConfig struct {
	MaxDepth       int     `yaml:"max_depth"`
	MinCellSize    int     `yaml:"min_cell_size"`
	Epsilon        float64 `yaml:"epsilon"`
	NumDirections  int     `yaml:"num_directions"`
	SourceSinkRate float64 `yaml:"source_sink_rate"`
	Parallelism    int     `yaml:"parallelism"`
}

// InputConfig controls how the road network is read.
type InputConfig struct {
	BBox             *BBox `yaml:"bbox,omitempty"`
	LargestComponent bool  `yaml:"largest_component"`
}

// BBox is a geographic filter in degrees.
type BBox struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLng float64 `yaml:"min_lng"`
	MaxLng float64 `yaml:"max_lng"`
}

// Parser returns the bbox in the form the OSM parser takes. A nil bbox
// disables filtering.
func (b *BBox) Parser() osmparser.BBox {
	if b == nil {
		return osmparser.BBox{}
	}
	return osmparser.BBox{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLng: b.MinLng, MaxLng: b.MaxLng}
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	pc := partition.DefaultConfig()
	flow := partition.NewInertialFlow()
	return Config{
		Partition: PartitionConfig{
			MaxDepth:       pc.MaxDepth,
			MinCellSize:    pc.MinCellSize,
			Epsilon:        pc.Epsilon,
			NumDirections:  flow.NumDirections,
			SourceSinkRate: flow.SourceSinkRate,
		},
		Input: InputConfig{LargestComponent: true},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"MAX_DEPTH":      &c.Partition.MaxDepth,
		"MIN_CELL_SIZE":  &c.Partition.MinCellSize,
		"NUM_DIRECTIONS": &c.Partition.NumDirections,
		"PARALLELISM":    &c.Partition.Parallelism,
	}
	floats := map[string]*float64{
		"EPSILON":          &c.Partition.Epsilon,
		"SOURCE_SINK_RATE": &c.Partition.SourceSinkRate,
	}

	for name, dst := range ints {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}
	for name, dst := range floats {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = f
		}
	}
	if v, ok := lookup(EnvPrefix + "LARGEST_COMPONENT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sLARGEST_COMPONENT: %w", EnvPrefix, err)
		}
		c.Input.LargestComponent = b
	}
	return nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if err := c.PartitionSettings().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Partition.NumDirections < 1 {
		errs = append(errs, fmt.Errorf("num_directions %d must be positive", c.Partition.NumDirections))
	}
	if c.Partition.SourceSinkRate <= 0 || c.Partition.SourceSinkRate > 0.5 {
		errs = append(errs, fmt.Errorf("source_sink_rate %g outside (0, 0.5]", c.Partition.SourceSinkRate))
	}
	if c.Partition.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("parallelism %d must not be negative", c.Partition.Parallelism))
	}
	if b := c.Input.BBox; b != nil && (b.MinLat >= b.MaxLat || b.MinLng >= b.MaxLng) {
		errs = append(errs, fmt.Errorf("bbox min must be below max: %+v", *b))
	}
	return errors.Join(errs...)
}

// PartitionSettings converts the partition section for the bisection state.
// Logger and metrics are left for the caller to attach.
func (c *Config) PartitionSettings() partition.Config {
	return partition.Config{
		MaxDepth:    c.Partition.MaxDepth,
		MinCellSize: c.Partition.MinCellSize,
		Epsilon:     c.Partition.Epsilon,
		Parallelism: c.Partition.Parallelism,
	}
}

// Bisector builds the configured bisector.
func (c *Config) Bisector() *partition.InertialFlow {
	return &partition.InertialFlow{
		NumDirections:  c.Partition.NumDirections,
		SourceSinkRate: c.Partition.SourceSinkRate,
	}
}
