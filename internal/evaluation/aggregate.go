package evaluation

import (
	"sort"
)

type ProgramSummary struct {
	Program   string   `json:"program"`
	Term      string   `json:"term"`
	EvalCount int      `json:"evalCount"`
	Avg       *float64 `json:"avg"`
}

type EvaluatorSummary struct {
	EvaluatorID string   `json:"evaluatorId"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	EvalCount   int      `json:"evalCount"`
	Avg         *float64 `json:"avg"`
}

// mean accumulates row values, ignoring rows without one.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.n++
}

func (m mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	return round2(m.sum / float64(m.n))
}

// SummarizeByProgram groups rows by (program, term). Every row lands in
// exactly one bucket, so EvalCounts add up to len(rows).
func SummarizeByProgram(rows []EvalRow) []ProgramSummary {
	type key struct{ program, term string }
	type acc struct {
		count int
		avg   mean
	}
	groups := map[key]*acc{}
	for _, r := range rows {
		k := key{r.Program, r.Term}
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
		}
		a.count++
		a.avg.add(r.Value())
	}

	out := make([]ProgramSummary, 0, len(groups))
	for k, a := range groups {
		out = append(out, ProgramSummary{Program: k.program, Term: k.term, EvalCount: a.count, Avg: a.avg.value()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Program != out[j].Program {
			return out[i].Program < out[j].Program
		}
		return out[i].Term < out[j].Term
	})
	return out
}

// SummarizeByEvaluator groups rows by evaluator, best average first.
// Evaluators without any scored evaluation sort last.
func SummarizeByEvaluator(rows []EvalRow) []EvaluatorSummary {
	type acc struct {
		sum EvaluatorSummary
		avg mean
	}
	groups := map[string]*acc{}
	for _, r := range rows {
		a, ok := groups[r.EvaluatorID]
		if !ok {
			a = &acc{sum: EvaluatorSummary{EvaluatorID: r.EvaluatorID, Name: r.EvaluatorName, Role: r.EvaluatorRole}}
			groups[r.EvaluatorID] = a
		}
		a.sum.EvalCount++
		a.avg.add(r.Value())
	}

	out := make([]EvaluatorSummary, 0, len(groups))
	for _, a := range groups {
		s := a.sum
		s.Avg = a.avg.value()
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := compareAvg(out[i].Avg, out[j].Avg); c != 0 {
			return c > 0
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].EvaluatorID < out[j].EvaluatorID
	})
	return out
}

// compareAvg orders a missing average below every numeric one.
func compareAvg(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a > *b:
		return 1
	case *a < *b:
		return -1
	}
	return 0
}
