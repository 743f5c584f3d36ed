package main

import (
	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-evalreports/internal/evaluation"
)

// filterFlags binds the report filter to a command's flags.
type filterFlags struct {
	fs       evaluation.FilterState
	template string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.fs.Text, "query", "q", "", "Case-insensitive text search")
	cmd.Flags().StringVar(&f.fs.Program, "program", "", "Program to include (empty or \"all\" for every program)")
	cmd.Flags().StringVar(&f.fs.Term, "term", "", "Term to include (empty or \"all\" for every term)")
	cmd.Flags().StringVar(&f.fs.From, "from", "", "Earliest schedule date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.fs.To, "to", "", "Latest schedule date, YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&f.template, "template", "", "Rubric template id to weight by (default: active template)")
}

func buildExportCmd() *cobra.Command {
	var (
		filters filterFlags
		kind    string
		outDir  string
		prefix  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write report CSV files",
		Long: `Load the evaluation data once and write CSV files.

Kinds:
  evaluations        one row per evaluation
  program-summary    evaluation count and average per program and term
  panelist-summary   evaluation count and average per evaluator
  all                every kind (default)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, exportOptions{
				Filter:   filters.fs,
				Template: filters.template,
				Kind:     kind,
				OutDir:   outDir,
				Prefix:   prefix,
			})
		},
	}
	filters.bind(cmd)
	cmd.Flags().StringVar(&kind, "kind", "all", "Report kind: evaluations|program-summary|panelist-summary|all")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	cmd.Flags().StringVar(&prefix, "prefix", "", "File name prefix (default from config)")
	return cmd
}

func buildSummaryCmd() *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print program and panelist summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, filters.fs, filters.template)
		},
	}
	filters.bind(cmd)
	return cmd
}
