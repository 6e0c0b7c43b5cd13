package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gaborage/dbworkbench/app"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the compile and run endpoints over HTTP",
		Long: `Starts the HTTP server. When a database is configured, /queries/run executes
compiled specs against it; otherwise only compilation is available.
The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load(os.Stdout)
			if err != nil {
				return err
			}

			a, err := app.New(cfg, log)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}
