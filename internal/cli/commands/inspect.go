package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InspectOptions holds options for the inspect command.
type InspectOptions struct {
	Format string
	Limit  int
	Name   string
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Show schema, stats, and a preview of a data file",
		Long: `Load a CSV, Parquet, or JSON file and print its schema, row and
column counts, and the first rows. Directories are loaded as a single
table spanning every supported file they contain.`,
		Example: `  fviewer inspect orders.csv
  fviewer inspect events.parquet --limit 20
  fviewer inspect ./daily-exports/ --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, md")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Preview row limit (default from config)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Table name to register the file under")

	return cmd
}

func runInspect(cmd *cobra.Command, path string, opts *InspectOptions) error {
	cfg := getConfig(cmd)
	format := opts.Format
	if format == "" {
		format = cfg.OutputFormat
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = cfg.PreviewLimit
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	lf, err := s.Files().Register(cmd.Context(), path, opts.Name)
	if err != nil {
		return err
	}

	result, err := s.Preview(cmd.Context(), lf.Table, limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if format == "table" {
		if err := showFileSchema(w, s, lf.Table); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w)
	}
	if err := renderResult(w, result, format); err != nil {
		return err
	}
	if format == "table" {
		_, _ = fmt.Fprintf(w, "%d row(s) | %d column(s) | %d displayed\n",
			result.TotalRows, len(result.Columns), result.RowCount)
	}
	return nil
}
