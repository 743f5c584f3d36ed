package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-evalreports/internal/bootstrap"
	"github.com/mind-engage/mindengage-evalreports/internal/config"
	"github.com/mind-engage/mindengage-evalreports/internal/evaluation"
	"github.com/mind-engage/mindengage-evalreports/internal/export"
	"github.com/mind-engage/mindengage-evalreports/internal/observability"
)

// openSource is swapped out in tests.
var openSource = bootstrap.OpenSource

type exportOptions struct {
	Filter   evaluation.FilterState
	Template string
	Kind     string
	OutDir   string
	Prefix   string
}

// loadReport reads config, loads one snapshot and builds the filtered report.
func loadReport(cmd *cobra.Command, fs evaluation.FilterState, template string) (evaluation.Report, config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return evaluation.Report{}, cfg, fmt.Errorf("failed to load config: %w", err)
	}
	if sourceFlag != "" {
		cfg.Source = config.Source(strings.ToLower(sourceFlag))
	}
	logger := observability.NewLogger(observability.LogConfig{Level: cfg.LogLevel, Format: "text", Output: cmd.ErrOrStderr()})

	src, closeFn, err := openSource(cmd.Context(), cfg, logger)
	if err != nil {
		return evaluation.Report{}, cfg, err
	}
	defer closeFn()

	svc := bootstrap.NewService(cfg, src, nil, logger)
	if _, err := svc.Refresh(cmd.Context()); err != nil {
		return evaluation.Report{}, cfg, err
	}
	rep, err := svc.Report(fs, template)
	return rep, cfg, err
}

func exportKinds(kind string) ([]export.Kind, error) {
	switch k := export.Kind(strings.ToLower(strings.TrimSpace(kind))); {
	case k == "" || k == "all":
		return []export.Kind{export.KindEvaluations, export.KindProgramSummary, export.KindPanelistSummary}, nil
	case k.Valid():
		return []export.Kind{k}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q (expected evaluations|program-summary|panelist-summary|all)", kind)
	}
}

func runExport(cmd *cobra.Command, opts exportOptions) error {
	kinds, err := exportKinds(opts.Kind)
	if err != nil {
		return err
	}
	rep, cfg, err := loadReport(cmd, opts.Filter, opts.Template)
	if err != nil {
		return err
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = cfg.ExportPrefix
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, k := range kinds {
		path := filepath.Join(opts.OutDir, export.Filename(prefix, k))
		if err := os.WriteFile(path, []byte(export.Render(k, rep)), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}

func runSummary(cmd *cobra.Command, fs evaluation.FilterState, template string) error {
	rep, _, err := loadReport(cmd, fs, template)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d of %d evaluations (template %s)\n\n", len(rep.Rows), rep.TotalEvaluations, orDash(rep.TemplateID))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROGRAM\tTERM\tEVALUATIONS\tAVERAGE")
	for _, s := range rep.ByProgram {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.Program, s.Term, s.EvalCount, avg(s.Avg))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out)

	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PANELIST\tROLE\tEVALUATIONS\tAVERAGE")
	for _, s := range rep.ByEvaluator {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.Name, orDash(s.Role), s.EvalCount, avg(s.Avg))
	}
	return w.Flush()
}

func avg(v *float64) string {
	if v == nil {
		return evaluation.Unset
	}
	return fmt.Sprintf("%.2f", *v)
}

func orDash(s string) string {
	if s == "" {
		return evaluation.Unset
	}
	return s
}
