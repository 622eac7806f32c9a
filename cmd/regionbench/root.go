package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// outputFormat is a custom pflag.Value so --format is validated at parse
// time instead of accepting any string and failing later mid-run.
type outputFormat string

const (
	formatText outputFormat = "text"
	formatCSV  outputFormat = "csv"
)

func (f *outputFormat) String() string { return string(*f) }

func (f *outputFormat) Set(v string) error {
	switch outputFormat(v) {
	case formatText, formatCSV:
		*f = outputFormat(v)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want %q or %q)", v, formatText, formatCSV)
	}
}

func (f *outputFormat) Type() string { return "format" }

var _ pflag.Value = (*outputFormat)(nil)

var format = formatText

var rootCmd = &cobra.Command{
	Use:   "regionbench",
	Short: "Run region engine benchmark scenarios",
	Long:  "regionbench drives the region engine's grid-walker and Game-of-Life scenarios for eyeballing or CSV emission.",
}

func init() {
	rootCmd.PersistentFlags().VarP(&format, "format", "f", "output format: text or csv")
	rootCmd.AddCommand(gridwalkCmd)
	rootCmd.AddCommand(lifeCmd)
}
