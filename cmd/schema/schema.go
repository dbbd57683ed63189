package schema

import (
	"os"

	"git.sr.ht/~flobar/ckd/pkg/ckd"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// CMD defines the ckd schema command.
var CMD = &cobra.Command{
	Use:   "schema DATA",
	Short: "Infer a configuration from a csv file",
	Long: `
Infer the feature schema of the given csv file and write a toml
configuration to stdout.  Columns whose values all parse as numbers
are numeric, all other columns are categorical.  The target column and
an id column are not used as features.`,
	Args: cobra.ExactArgs(1),
	Run:  run,
}

var flags = struct {
	target, positive string
	missing          []string
}{}

func init() {
	CMD.Flags().StringVarP(&flags.target, "target", "t", "ckd_label", "set the target column")
	CMD.Flags().StringVarP(&flags.positive, "positive", "p", "", "set the positive target value")
	CMD.Flags().StringSliceVarP(&flags.missing, "missing", "m", nil, "set the missing value sentinels")
}

func run(_ *cobra.Command, args []string) {
	in, err := os.Open(args[0])
	chk(err)
	defer in.Close()
	s, err := ckd.InferSchema(in, flags.target, flags.missing)
	chk(err)
	s.Positive = flags.positive
	c := ckd.DefaultConfig()
	c.Data = args[0]
	c.Schema = s
	if len(flags.missing) != 0 {
		c.Missing = flags.missing
	}
	chk(c.Write(os.Stdout))
}

func chk(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("schema")
	}
}
