package ckd

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Kind is the declared type of a feature.
type Kind int

// Feature kinds.
const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText implements the encoding.TextMarshaler interface.
func (k Kind) MarshalText() ([]byte, error) {
	if k != Numeric && k != Categorical {
		return nil, fmt.Errorf("marshal kind: bad kind: %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (k *Kind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "numeric", "num", "number":
		*k = Numeric
	case "categorical", "cat", "category":
		*k = Categorical
	default:
		return fmt.Errorf("unmarshal kind: bad kind: %q", text)
	}
	return nil
}

// Feature is a named and typed input column.
type Feature struct {
	Name string `json:"name" toml:"name" yaml:"name"`
	Kind Kind   `json:"kind" toml:"kind" yaml:"kind"`
}

// Schema declares the feature columns and the binary target column.
// If Positive is set, the target value Positive is the positive
// class.
type Schema struct {
	Features []Feature `json:"features" toml:"features" yaml:"features"`
	Target   string    `json:"target" toml:"target" yaml:"target"`
	Positive string    `json:"positive,omitempty" toml:"positive,omitempty" yaml:"positive,omitempty"`
}

// Validate checks that the schema declares at least one feature, that
// all column names are unique and that the target is not a feature.
func (s Schema) Validate() error {
	if s.Target == "" {
		return fmt.Errorf("validate schema: missing target: %w", ErrInvalidConfig)
	}
	if len(s.Features) == 0 {
		return fmt.Errorf("validate schema: no features: %w", ErrInvalidConfig)
	}
	seen := map[string]bool{s.Target: true}
	for _, f := range s.Features {
		if f.Name == "" {
			return fmt.Errorf("validate schema: empty feature name: %w", ErrInvalidConfig)
		}
		if seen[f.Name] {
			return fmt.Errorf("validate schema: duplicate column %s: %w", f.Name, ErrInvalidConfig)
		}
		if f.Kind != Numeric && f.Kind != Categorical {
			return fmt.Errorf("validate schema: %s: bad kind %d: %w", f.Name, int(f.Kind), ErrInvalidConfig)
		}
		seen[f.Name] = true
	}
	return nil
}

// Equal returns true if both schemas declare the same features in the
// same order and the same target.
func (s Schema) Equal(o Schema) bool {
	if s.Target != o.Target || s.Positive != o.Positive || len(s.Features) != len(o.Features) {
		return false
	}
	for i := range s.Features {
		if s.Features[i] != o.Features[i] {
			return false
		}
	}
	return true
}

// Names returns the names of the features.
func (s Schema) Names() []string {
	ret := make([]string, len(s.Features))
	for i, f := range s.Features {
		ret[i] = f.Name
	}
	return ret
}

// InferSchema reads the header and all records of a csv source and
// proposes a schema.  Every column except the target and an id column
// is numeric if all of its non-missing cells parse as numbers and
// categorical otherwise.
func InferSchema(r io.Reader, target string, missing []string) (Schema, error) {
	if len(missing) == 0 {
		missing = DefaultMissing
	}
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return Schema{}, fmt.Errorf("inferSchema: no header: %w", ErrSchemaMismatch)
	}
	if err != nil {
		return Schema{}, fmt.Errorf("inferSchema: %w", readErr(err))
	}
	header = cleanHeader(header)
	numeric := make([]bool, len(header))
	for i := range numeric {
		numeric[i] = true
	}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Schema{}, fmt.Errorf("inferSchema: %w", readErr(err))
		}
		for i, cell := range record {
			cell = strings.TrimSpace(cell)
			if isMissing(cell, missing) || !numeric[i] {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric[i] = false
			}
		}
	}
	s := Schema{Target: target}
	found := false
	for i, name := range header {
		switch {
		case name == target:
			found = true
		case strings.EqualFold(name, "id"):
		case numeric[i]:
			s.Features = append(s.Features, Feature{Name: name, Kind: Numeric})
		default:
			s.Features = append(s.Features, Feature{Name: name, Kind: Categorical})
		}
	}
	if !found {
		return Schema{}, fmt.Errorf("inferSchema: missing target column %s: %w", target, ErrSchemaMismatch)
	}
	return s, nil
}
