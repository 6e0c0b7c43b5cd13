package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gaborage/dbworkbench/app"
	"github.com/gaborage/dbworkbench/observability"
	"github.com/gaborage/dbworkbench/workbench"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Format string
}

// NewRunCommand creates the run command.
func NewRunCommand(global *GlobalOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <spec-file>",
		Short: "Compile a query spec and run it against the configured database",
		Long: `Compiles the spec for the dialect of the configured database, executes it
within query.timeout and prints the rows.`,
		Example: `  dbworkbench run orders.yaml --config workbench.yaml
  dbworkbench run orders.json --format csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := global.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			spec, err := workbench.LoadSpecFile(args[0])
			if err != nil {
				return err
			}

			provider, err := observability.NewProvider(cfg, log, observability.WithWriter(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer func() { _ = provider.Shutdown(context.WithoutCancel(cmd.Context())) }()

			db, err := app.OpenDatabase(cfg, log)
			if err != nil {
				return err
			}
			if db != nil {
				defer func() { _ = db.Close() }()
			}

			runner := workbench.NewRunner(workbench.NewCompiler(&cfg.Query), db, cfg.Query.Timeout, log)
			result, err := runner.Run(cmd.Context(), spec)
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), result, opts.Format)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", formatTable, "Output format (table|csv|markdown|json)")

	return cmd
}

func renderResult(w io.Writer, result *workbench.Result, format string) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(result.Columns))
	for i, col := range result.Columns {
		header[i] = col
	}
	t.AppendHeader(header)
	for _, row := range result.Rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = formatValue(v)
		}
		t.AppendRow(r)
	}

	switch format {
	case formatTable, "":
		t.Render()
		_, _ = fmt.Fprintf(w, "(%d rows in %s)\n", len(result.Rows), result.Duration.Round(time.Millisecond))
	case formatCSV:
		t.RenderCSV()
	case formatMD, "md":
		t.RenderMarkdown()
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, csv, markdown, json)", format)
	}
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
