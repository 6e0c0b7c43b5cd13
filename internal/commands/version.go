package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gaborage/dbworkbench/database/types"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "dbworkbench version %s\n", version)
			_, _ = fmt.Fprintf(out, "Built with %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			_, _ = fmt.Fprintf(out, "Dialects: %v\n", types.SupportedDialects())
		},
	}
}
