package version

import (
	"fmt"
	"os"
	"runtime"

	"git.sr.ht/~flobar/ckd/cmd/internal"
	"git.sr.ht/~flobar/ckd/pkg/ckd/ml"
	"github.com/spf13/cobra"
)

// CMD defines the ckd version command.
var CMD = &cobra.Command{
	Use:   "version",
	Short: "Print ckd's version",
	Run:   run,
}

func run(_ *cobra.Command, args []string) {
	fmt.Printf("%s version: %s [%s/%s] algorithms: %v\n",
		os.Args[0], internal.Version, runtime.GOOS, runtime.GOARCH, ml.Algorithms())
}
