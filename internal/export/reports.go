package export

import (
	"strings"

	"github.com/mind-engage/mindengage-evalreports/internal/evaluation"
)

// Kind names one of the downloadable reports.
type Kind string

const (
	KindEvaluations     Kind = "evaluations"
	KindProgramSummary  Kind = "program-summary"
	KindPanelistSummary Kind = "panelist-summary"
)

const DefaultPrefix = "thesis"

func (k Kind) Valid() bool {
	switch k {
	case KindEvaluations, KindProgramSummary, KindPanelistSummary:
		return true
	}
	return false
}

// Filename returns "<prefix>-<kind>.csv".
func Filename(prefix string, k Kind) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "-" + string(k) + ".csv"
}

var evaluationHeader = []string{
	"Evaluation ID", "Group", "Program", "Term", "Scheduled At", "Room", "Schedule Status",
	"Evaluator", "Evaluator Email", "Evaluator Role", "Panelists", "Status",
	"Submitted At", "Locked At", "Scores", "Raw Avg", "Weighted Avg",
}

func Evaluations(rows []evaluation.EvalRow) string {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, []any{
			r.EvaluationID, r.GroupTitle, r.Program, r.Term, r.ScheduledAt, r.Room, r.ScheduleStatus,
			r.EvaluatorName, r.EvaluatorEmail, r.EvaluatorRole, r.PanelistNames, r.Status,
			r.SubmittedAt, r.LockedAt, r.ScoreCount, r.RawAvg, r.WeightedAvg,
		})
	}
	return Encode(evaluationHeader, out)
}

func ProgramSummary(sums []evaluation.ProgramSummary) string {
	out := make([][]any, 0, len(sums))
	for _, s := range sums {
		out = append(out, []any{s.Program, s.Term, s.EvalCount, s.Avg})
	}
	return Encode([]string{"Program", "Term", "Evaluations", "Average"}, out)
}

func PanelistSummary(sums []evaluation.EvaluatorSummary) string {
	out := make([][]any, 0, len(sums))
	for _, s := range sums {
		out = append(out, []any{s.Name, s.Role, s.EvalCount, s.Avg})
	}
	return Encode([]string{"Panelist", "Role", "Evaluations", "Average"}, out)
}

// Render produces the CSV body for k from a finished report.
func Render(k Kind, rep evaluation.Report) string {
	switch k {
	case KindProgramSummary:
		return ProgramSummary(rep.ByProgram)
	case KindPanelistSummary:
		return PanelistSummary(rep.ByEvaluator)
	default:
		return Evaluations(rep.Rows)
	}
}
