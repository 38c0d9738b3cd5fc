package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			info := map[string]string{
				"version":   Version,
				"commit":    Commit,
				"buildDate": BuildDate,
				"goVersion": runtime.Version(),
			}
			return g.printResult(w, info, func() error {
				_, err := fmt.Fprintf(w, "ewsoap %s (commit %s, built %s, %s)\n", Version, Commit, BuildDate, runtime.Version())
				return err
			})
		},
	}
}
