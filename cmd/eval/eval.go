package eval

import (
	"fmt"
	"os"

	"git.sr.ht/~flobar/ckd/cmd/internal"
	"git.sr.ht/~flobar/ckd/pkg/ckd"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// CMD defines the ckd eval command.
var CMD = &cobra.Command{
	Use:   "eval DATA...",
	Short: "Evaluate a saved artifact on labeled data",
	Args:  cobra.MinimumNArgs(1),
	Run:   run,
}

var flags = struct {
	artifact string
	missing  []string
	json     bool
}{}

func init() {
	CMD.Flags().StringVarP(&flags.artifact, "artifact", "M", "ckd_model", "set the artifact location")
	CMD.Flags().StringSliceVarP(&flags.missing, "missing", "m", nil, "set the missing value sentinels (overwrites the sentinels of the artifact)")
	CMD.Flags().BoolVarP(&flags.json, "json", "J", false, "set json output")
}

func run(_ *cobra.Command, args []string) {
	a, err := internal.LoadArtifact(flags.artifact)
	chk(err)
	reports := make(map[string]ckd.Report, len(args))
	for _, name := range args {
		r, err := eval(a, name)
		chk(err)
		reports[name] = r
		if flags.json {
			continue
		}
		_, err = fmt.Printf("%s:\n", name)
		chk(err)
		chk(r.Write(os.Stdout))
	}
	if flags.json {
		chk(internal.WriteJSON(os.Stdout, reports))
	}
}

func eval(a ckd.Artifact, name string) (ckd.Report, error) {
	ds, err := a.Loader(flags.missing).Load(name)
	if err != nil {
		return ckd.Report{}, err
	}
	m, err := a.Preprocessing.Transform(ds)
	if err != nil {
		return ckd.Report{}, err
	}
	return ckd.Evaluate(a.Model, m)
}

func chk(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("eval")
	}
}
