package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"git.sr.ht/~flobar/ckd/pkg/ckd"
	"github.com/spf13/cobra"
)

// ckd version
const Version = "v0.1.0"

// Flags is used to define the standard command-line parameters for
// ckd sub commands.
type Flags struct {
	Params   string // Path to the configuration file
	Data     string // Path to the csv data file
	Artifact string // Artifact location
}

// Init initializes the standard commandline arguments for the given
// subcommand.
func (flags *Flags) Init(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flags.Params, "parameters", "P", "",
		"set path to the configuration file (toml, yaml or json)")
	cmd.Flags().StringVarP(&flags.Data, "data", "d", "",
		"set path to the csv data (overwrites the setting in the configuration file)")
	cmd.Flags().StringVarP(&flags.Artifact, "artifact", "M", "",
		"set the artifact location (overwrites the setting in the configuration file)")
}

// Config reads the configuration and applies the data and artifact
// flags.
func (flags *Flags) Config() (*ckd.Config, error) {
	c, err := ckd.ReadConfig(flags.Params)
	if err != nil {
		return nil, err
	}
	UpdateInConfig(&c.Data, flags.Data)
	UpdateInConfig(&c.Artifact, flags.Artifact)
	return c, nil
}

// LoadArtifact loads the artifact from the given location.
func LoadArtifact(location string) (ckd.Artifact, error) {
	if location == "" {
		return ckd.Artifact{}, fmt.Errorf("missing artifact location")
	}
	store, err := ckd.OpenStore(location)
	if err != nil {
		return ckd.Artifact{}, err
	}
	return store.Load()
}

// ReadRows reads the unlabeled records of the given csv file using the
// artifact's schema and missing value sentinels.  Non empty missing
// sentinels replace the sentinels of the artifact.
func ReadRows(a ckd.Artifact, path string, missing []string) ([][]ckd.Value, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("readRows %s: %v: %w", path, err, ckd.ErrSourceUnavailable)
	}
	defer in.Close()
	rows, err := a.Loader(missing).ReadRows(in)
	if err != nil {
		return nil, fmt.Errorf("readRows %s: %w", path, err)
	}
	return rows, nil
}

// WriteJSON writes v as indented json.
func WriteJSON(out io.Writer, v interface{}) error {
	e := json.NewEncoder(out)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

// UpdateInConfig updates the value in dest with val if the according
// value is not the zero-type for the underlying type.  Dest must be a
// pointer type to either string, int, int64, float64 or bool.
// Otherwise the function panics.
func UpdateInConfig(dest, val interface{}) {
	switch dest.(type) {
	case *string:
		v := val.(string)
		if v != "" {
			(*dest.(*string)) = v
		}
	case *int:
		v := val.(int)
		if v != 0 {
			(*dest.(*int)) = v
		}
	case *int64:
		v := val.(int64)
		if v != 0 {
			(*dest.(*int64)) = v
		}
	case *float64:
		v := val.(float64)
		if v != 0 {
			(*dest.(*float64)) = v
		}
	case *bool:
		v := val.(bool)
		if v {
			(*dest.(*bool)) = v
		}
	default:
		panic("bad type")
	}
}
