package train

import (
	"fmt"
	"os"
	"strings"

	"git.sr.ht/~flobar/ckd/cmd/internal"
	"git.sr.ht/~flobar/ckd/pkg/ckd"
	"git.sr.ht/~flobar/ckd/pkg/ckd/ml"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// CMD defines the ckd train command.
var CMD = &cobra.Command{
	Use:   "train",
	Short: "Train and evaluate a model and save the artifact",
	Args:  cobra.NoArgs,
	Run:   run,
}

var flags = struct {
	internal.Flags
	algorithm string
	seed      int64
	testSize  float64
	trees     int
	jobs      int
	json      bool
}{}

func init() {
	flags.Init(CMD)
	CMD.Flags().StringVarP(&flags.algorithm, "algorithm", "a", "",
		"set the algorithm ["+strings.Join(ml.Algorithms(), "|")+"] (overwrites the setting in the configuration file)")
	CMD.Flags().Int64VarP(&flags.seed, "seed", "s", 0,
		"set the random seed (overwrites the setting in the configuration file)")
	CMD.Flags().Float64VarP(&flags.testSize, "test-size", "t", 0,
		"set the test fraction (overwrites the setting in the configuration file)")
	CMD.Flags().IntVarP(&flags.trees, "trees", "n", 0,
		"set the number of trees (overwrites the setting in the configuration file)")
	CMD.Flags().IntVarP(&flags.jobs, "jobs", "j", 0,
		"set the number of parallel jobs (overwrites the setting in the configuration file)")
	CMD.Flags().BoolVarP(&flags.json, "json", "J", false, "set json output")
}

func run(_ *cobra.Command, _ []string) {
	c, err := flags.Config()
	chk(err)
	if flags.algorithm != "" && flags.algorithm != c.Model.Algorithm {
		// Hyperparameters of another algorithm do not carry over.
		c.Model = ml.Config{Algorithm: flags.algorithm, Seed: c.Model.Seed}
	}
	internal.UpdateInConfig(&c.Seed, flags.seed)
	internal.UpdateInConfig(&c.TestSize, flags.testSize)
	internal.UpdateInConfig(&c.Model.Trees, flags.trees)
	internal.UpdateInConfig(&c.Model.Jobs, flags.jobs)
	res, err := ckd.Run(*c)
	chk(err)
	if flags.json {
		chk(internal.WriteJSON(os.Stdout, res.Report))
	} else {
		chk(res.Report.Write(os.Stdout))
	}
	if res.Location != "" {
		_, err := fmt.Fprintf(os.Stderr, "saved %s model (%d train, %d test records) to %s\n",
			res.Artifact.Model.Name(), res.NTrain, res.NTest, res.Location)
		chk(err)
	}
}

func chk(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("train")
	}
}
