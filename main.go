package main

import (
	"os"

	"git.sr.ht/~flobar/ckd/cmd/eval"
	"git.sr.ht/~flobar/ckd/cmd/predict"
	"git.sr.ht/~flobar/ckd/cmd/print"
	"git.sr.ht/~flobar/ckd/cmd/schema"
	"git.sr.ht/~flobar/ckd/cmd/train"
	"git.sr.ht/~flobar/ckd/cmd/version"
	"git.sr.ht/~flobar/ckd/pkg/ckd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var root = &cobra.Command{
	Use:   "ckd",
	Short: "Train and apply chronic kidney disease classifiers",
	PersistentPreRun: func(*cobra.Command, []string) {
		ckd.SetLog(verbose)
	},
}

var verbose bool

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	root.PersistentFlags().BoolVarP(&verbose, "log", "L", false, "enable logging")
	root.AddCommand(
		eval.CMD,
		predict.CMD,
		print.CMD,
		schema.CMD,
		train.CMD,
		version.CMD,
	)
}

func main() {
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
