package print

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"git.sr.ht/~flobar/ckd/cmd/internal"
	"git.sr.ht/~flobar/ckd/pkg/ckd"
	"git.sr.ht/~flobar/ckd/pkg/ckd/ml"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// CMD runs the ckd print command.
var CMD = &cobra.Command{
	Use:   "print [ARTIFACT...]",
	Short: "Print information about saved artifacts",
	Args:  cobra.MinimumNArgs(1),
	Run:   run,
}

var flags = struct {
	json bool
}{}

func init() {
	CMD.Flags().BoolVarP(&flags.json, "json", "J", false, "set json output")
}

func run(_ *cobra.Command, args []string) {
	for _, name := range args {
		a, err := internal.LoadArtifact(name)
		chk(err)
		if flags.json {
			printjson(name, a)
		} else {
			printartifact(name, a)
		}
	}
}

func printartifact(name string, a ckd.Artifact) {
	w := tabwriter.NewWriter(os.Stdout, 1, 1, 1, ' ', 0)
	defer func() {
		chk(w.Flush())
	}()
	c := a.Model.Config()
	fmt.Fprintf(w, "%s\tmodel\t%s\tseed=%d\n", name, a.Model.Name(), c.Seed)
	fmt.Fprintf(w, "%s\ttarget\t%s\t0=%s 1=%s\n", name, a.Schema.Target, a.Classes[0], a.Classes[1])
	fmt.Fprintf(w, "%s\tmissing\t%q\n", name, a.Missing)
	for _, st := range a.Preprocessing.Stats {
		switch st.Kind {
		case ckd.Numeric:
			fmt.Fprintf(w, "%s\t%s\t%s\tfill=%g mean=%g std=%g\n",
				name, st.Name, st.Kind, st.Fill, st.Mean, st.Std)
		default:
			fmt.Fprintf(w, "%s\t%s\t%s\tfill=%s mean=%g std=%g categories=%s\n",
				name, st.Name, st.Kind, st.FillCat, st.Mean, st.Std, strings.Join(st.Categories, ","))
		}
	}
	if f, ok := a.Model.(*ml.RandomForest); ok {
		fmt.Fprintf(w, "%s\ttrees\t%d\tmax depth=%d\n", name, c.Trees, maxDepth(f.Depths()))
	}
	r := a.Report
	fmt.Fprintf(w, "%s\treport\tn=%d\taccuracy=%.4f auc=%.4f f1=%.4f\n",
		name, r.N, r.Accuracy, r.AUC, r.F1)
}

func maxDepth(depths []int) int {
	var max int
	for _, d := range depths {
		if d > max {
			max = d
		}
	}
	return max
}

func printjson(name string, a ckd.Artifact) {
	data := struct {
		Name          string             `json:"name"`
		Algorithm     string             `json:"algorithm"`
		Config        ml.Config          `json:"config"`
		Schema        ckd.Schema         `json:"schema"`
		Classes       [2]string          `json:"classes"`
		Missing       []string           `json:"missing"`
		Preprocessing *ckd.Preprocessing `json:"preprocessing"`
		Report        ckd.Report         `json:"report"`
	}{name, a.Model.Name(), a.Model.Config(), a.Schema, a.Classes, a.Missing, a.Preprocessing, a.Report}
	chk(internal.WriteJSON(os.Stdout, data))
}

func chk(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("print")
	}
}
