package ckd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~flobar/ckd/pkg/ckd/ml"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config defines the configuration of a training run.
type Config struct {
	Data     string    `json:"data" toml:"data" yaml:"data"`
	Artifact string    `json:"artifact" toml:"artifact" yaml:"artifact"`
	Schema   Schema    `json:"schema" toml:"schema" yaml:"schema"`
	Classes  []string  `json:"classes,omitempty" toml:"classes,omitempty" yaml:"classes,omitempty"`
	Missing  []string  `json:"missing" toml:"missing" yaml:"missing"`
	TestSize float64   `json:"testSize" toml:"testSize" yaml:"testSize"`
	Seed     int64     `json:"seed" toml:"seed" yaml:"seed"`
	Model    ml.Config `json:"model" toml:"model" yaml:"model"`
}

// DefaultConfig returns the default configuration: a random forest
// on seven numeric clinical features predicting ckd_label.
func DefaultConfig() Config {
	var features []Feature
	for _, name := range []string{
		"age",
		"blood_pressure",
		"specific_gravity",
		"blood_glucose_random",
		"sodium",
		"hemoglobin",
		"red_blood_cell_count",
	} {
		features = append(features, Feature{Name: name, Kind: Numeric})
	}
	return Config{
		Data:     "data/ckd_dataset.csv",
		Artifact: "ckd_model",
		Schema:   Schema{Features: features, Target: "ckd_label"},
		Missing:  append([]string(nil), DefaultMissing...),
		TestSize: .2,
		Seed:     42,
		Model:    ml.Config{Algorithm: ml.Forest, Trees: 200},
	}
}

// ReadConfig reads the config from a json, toml or yaml file.  If the
// name is empty, the default configuration is returned.  If name has
// the prefix '{' and the suffix '}' it is parsed as a json string.
// Values read from the configuration replace the defaults; a schema in
// the configuration replaces the whole default schema.
func ReadConfig(name string) (*Config, error) {
	config := DefaultConfig()
	if name == "" {
		return &config, nil
	}
	var file Config
	if err := decodeConfig(name, &file); err != nil {
		return nil, fmt.Errorf("readConfig %s: %w", name, err)
	}
	config.merge(file)
	return &config, nil
}

func decodeConfig(name string, c *Config) error {
	if strings.HasPrefix(name, "{") && strings.HasSuffix(name, "}") {
		if err := json.NewDecoder(strings.NewReader(name)).Decode(c); err != nil {
			return fmt.Errorf("%v: %w", err, ErrInvalidConfig)
		}
		return nil
	}
	is, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrSourceUnavailable)
	}
	defer is.Close()
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		_, err = toml.DecodeReader(is, c)
	case ".yaml", ".yml":
		err = yaml.NewDecoder(is).Decode(c)
	default:
		err = json.NewDecoder(is).Decode(c)
	}
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidConfig)
	}
	return nil
}

// merge overwrites the values of c with the non zero values of o.
func (c *Config) merge(o Config) {
	if o.Data != "" {
		c.Data = o.Data
	}
	if o.Artifact != "" {
		c.Artifact = o.Artifact
	}
	if len(o.Schema.Features) != 0 || o.Schema.Target != "" {
		c.Schema = o.Schema
	}
	if len(o.Classes) != 0 {
		c.Classes = o.Classes
	}
	if len(o.Missing) != 0 {
		c.Missing = o.Missing
	}
	if o.TestSize != 0 {
		c.TestSize = o.TestSize
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Model != (ml.Config{}) {
		c.Model = o.Model
	}
}

// ModelConfig returns the model configuration with defaults applied.
// The run seed is used if the model does not set its own seed.
func (c *Config) ModelConfig() ml.Config {
	m := c.Model
	if m.Seed == 0 {
		m.Seed = c.Seed
	}
	return m.WithDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Data == "" {
		return fmt.Errorf("validate: missing data: %w", ErrInvalidConfig)
	}
	if err := c.Schema.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if !(c.TestSize > 0 && c.TestSize < 1) {
		return fmt.Errorf("validate: test size %g: %w", c.TestSize, ErrInvalidTestSize)
	}
	if len(c.Classes) != 0 && (len(c.Classes) != 2 || c.Classes[0] == c.Classes[1]) {
		return fmt.Errorf("validate: bad classes %v: %w", c.Classes, ErrInvalidConfig)
	}
	if _, err := ml.New(c.Model); err != nil {
		return fmt.Errorf("validate: %v: %w", err, ErrInvalidConfig)
	}
	return nil
}

// Write writes the configuration as toml.
func (c *Config) Write(out io.Writer) error {
	if err := toml.NewEncoder(out).Encode(c); err != nil {
		return fmt.Errorf("write config: %v", err)
	}
	return nil
}
