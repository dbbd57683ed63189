package predict

import (
	"bufio"
	"fmt"
	"os"

	"git.sr.ht/~flobar/ckd/cmd/internal"
	"git.sr.ht/~flobar/ckd/pkg/ckd"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// CMD defines the ckd predict command.
var CMD = &cobra.Command{
	Use:   "predict DATA...",
	Short: "Score unlabeled records with a saved artifact",
	Long: `
Score the records of the given csv files with a saved artifact.  For
each record a line with the file name, the record number, the
predicted class and the score of the positive class is written to
stdout.`,
	Args: cobra.MinimumNArgs(1),
	Run:  run,
}

var flags = struct {
	artifact string
	missing  []string
}{}

func init() {
	CMD.Flags().StringVarP(&flags.artifact, "artifact", "M", "ckd_model", "set the artifact location")
	CMD.Flags().StringSliceVarP(&flags.missing, "missing", "m", nil, "set the missing value sentinels (overwrites the sentinels of the artifact)")
}

func run(_ *cobra.Command, args []string) {
	a, err := internal.LoadArtifact(flags.artifact)
	chk(err)
	out := bufio.NewWriter(os.Stdout)
	for _, name := range args {
		chk(predict(out, a, name))
	}
	chk(out.Flush())
}

func predict(out *bufio.Writer, a ckd.Artifact, name string) error {
	rows, err := internal.ReadRows(a, name, flags.missing)
	if err != nil {
		return err
	}
	labels, scores, err := a.Predict(rows)
	if err != nil {
		return err
	}
	for i := range labels {
		if _, err := fmt.Fprintf(out, "%s,%d,%s,%f\n",
			name, i+1, a.Classes[int(labels[i])], scores[i]); err != nil {
			return err
		}
	}
	return nil
}

func chk(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("predict")
	}
}
