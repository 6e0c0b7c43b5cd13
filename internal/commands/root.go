// Package commands implements the dbworkbench command line.
package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gaborage/dbworkbench/config"
	"github.com/gaborage/dbworkbench/logger"
)

// GlobalOptions holds flags shared by every command.
type GlobalOptions struct {
	ConfigFile string
	LogLevel   string
}

// NewRootCommand creates the dbworkbench command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &GlobalOptions{}

	cmd := &cobra.Command{
		Use:   "dbworkbench",
		Short: "Compile structured query specs into SQL and run them",
		Long: `dbworkbench translates dialect-agnostic SELECT specifications into SQL for
MySQL and PostgreSQL. Specs can be compiled offline, run against a configured
database, or served over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "Config file (default ./config.yaml when present)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Override log.level")

	cmd.AddCommand(
		NewServeCommand(opts),
		NewCompileCommand(opts),
		NewRunCommand(opts),
		NewVersionCommand(version),
	)

	return cmd
}

// load reads the configuration and builds a logger writing to logOut.
func (o *GlobalOptions) load(logOut io.Writer) (*config.Config, logger.Logger, error) {
	cfg, err := config.LoadFrom(o.ConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	return cfg, logger.NewWithWriter(logOut, cfg.Log.Level, cfg.Log.Pretty, nil), nil
}
