package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gaborage/dbworkbench/workbench"
)

const (
	formatText  = "text"
	formatJSON  = "json"
	formatTable = "table"
	formatCSV   = "csv"
	formatMD    = "markdown"
)

// CompileOptions holds options for the compile command.
type CompileOptions struct {
	Dialect string
	Mode    string
	Format  string
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(global *GlobalOptions) *cobra.Command {
	opts := &CompileOptions{}

	cmd := &cobra.Command{
		Use:   "compile <spec-file>",
		Short: "Compile a query spec file into SQL",
		Long: `Reads a JSON or YAML query spec and prints the SQL for the chosen dialect.
In parameterized mode the bound arguments are printed after the statement.`,
		Example: `  # Compile with the configured default dialect and mode
  dbworkbench compile orders.yaml

  # Literal MySQL rendering
  dbworkbench compile orders.yaml --dialect mysql --mode literal`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := global.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			spec, err := workbench.LoadSpecFile(args[0])
			if err != nil {
				return err
			}
			if opts.Dialect != "" {
				spec.Dialect = opts.Dialect
			}

			compiler := workbench.NewCompiler(&cfg.Query)
			if opts.Mode != "" {
				if compiler, err = compiler.WithMode(opts.Mode); err != nil {
					return err
				}
			}

			compiled, err := compiler.Compile(spec)
			if err != nil {
				return err
			}
			return printCompiled(cmd.OutOrStdout(), compiled, opts.Format)
		},
	}

	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", "", "Target dialect (mysql|postgres), overrides the spec")
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "", "Rendering mode (literal|parameterized), overrides query.mode")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", formatText, "Output format (text|json)")

	return cmd
}

func printCompiled(w io.Writer, compiled workbench.CompiledQuery, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(compiled)
	case formatText, "":
		_, _ = fmt.Fprintln(w, compiled.SQL)
		if len(compiled.Args) > 0 {
			_, _ = fmt.Fprintf(w, "-- args: %v\n", compiled.Args)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", format)
	}
}
