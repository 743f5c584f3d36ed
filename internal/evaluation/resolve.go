package evaluation

import (
	"math"
	"strings"
)

// EvalRow is the denormalized scoring record for one evaluation.
type EvalRow struct {
	EvaluationID   string   `json:"evaluationId"`
	ScheduleID     string   `json:"scheduleId"`
	GroupID        string   `json:"groupId"`
	GroupTitle     string   `json:"groupTitle"`
	Program        string   `json:"program"`
	Term           string   `json:"term"`
	ScheduledAt    string   `json:"scheduledAt"`
	Room           string   `json:"room"`
	ScheduleStatus string   `json:"scheduleStatus"`
	EvaluatorID    string   `json:"evaluatorId"`
	EvaluatorName  string   `json:"evaluatorName"`
	EvaluatorEmail string   `json:"evaluatorEmail"`
	EvaluatorRole  string   `json:"evaluatorRole"`
	PanelistNames  string   `json:"panelistNames"`
	Status         string   `json:"status"`
	SubmittedAt    string   `json:"submittedAt,omitempty"`
	LockedAt       string   `json:"lockedAt,omitempty"`
	ScoreCount     int      `json:"scoreCount"`
	RawAvg         *float64 `json:"rawAvg"`
	WeightedAvg    *float64 `json:"weightedAvg"`
}

// Value is the number a row contributes to summaries: weighted if known, raw otherwise.
func (r EvalRow) Value() *float64 {
	if r.WeightedAvg != nil {
		return r.WeightedAvg
	}
	return r.RawAvg
}

type ResolveOptions struct {
	// TemplateID pins the template whose criteria count toward the weighted
	// average. Empty falls back to the active template.
	TemplateID string
}

// ActiveTemplateID returns the first template flagged active, or "" when none is.
func ActiveTemplateID(templates []RubricTemplate) string {
	for _, t := range templates {
		if t.Active {
			return t.ID
		}
	}
	return ""
}

// EffectiveTemplateID applies the pin-then-active policy.
func EffectiveTemplateID(templates []RubricTemplate, pinned string) string {
	if pinned = strings.TrimSpace(pinned); pinned != "" {
		return pinned
	}
	return ActiveTemplateID(templates)
}

// Resolve builds one EvalRow per evaluation whose schedule and group both
// resolve. Orphaned evaluations are skipped. Output follows ds.Evaluations order.
func Resolve(ds Dataset, opts ResolveOptions) []EvalRow {
	schedules := make(map[string]Schedule, len(ds.Schedules))
	for _, s := range ds.Schedules {
		schedules[s.ID] = s
	}
	groups := make(map[string]Group, len(ds.Groups))
	for _, g := range ds.Groups {
		groups[g.ID] = g
	}
	users := make(map[string]User, len(ds.Users))
	for _, u := range ds.Users {
		users[u.ID] = u
	}
	index := BuildCriterionIndex(ds.Criteria)
	templateID := EffectiveTemplateID(ds.Templates, opts.TemplateID)

	rows := make([]EvalRow, 0, len(ds.Evaluations))
	for _, e := range ds.Evaluations {
		sched, ok := schedules[e.ScheduleID]
		if !ok {
			continue
		}
		grp, ok := groups[sched.GroupID]
		if !ok {
			continue
		}

		row := EvalRow{
			EvaluationID:   e.ID,
			ScheduleID:     sched.ID,
			GroupID:        grp.ID,
			GroupTitle:     grp.Title,
			Program:        orUnset(grp.Program),
			Term:           orUnset(grp.Term),
			ScheduledAt:    sched.ScheduledAt,
			Room:           sched.Room,
			ScheduleStatus: sched.Status,
			EvaluatorID:    e.EvaluatorID,
			EvaluatorName:  Unset,
			PanelistNames:  panelistNames(ds.Panelists[sched.ID], users),
			Status:         e.Status,
			SubmittedAt:    e.SubmittedAt,
			LockedAt:       e.LockedAt,
		}
		if u, ok := users[e.EvaluatorID]; ok {
			if name := strings.TrimSpace(u.Name); name != "" {
				row.EvaluatorName = name
			}
			row.EvaluatorEmail = u.Email
			row.EvaluatorRole = u.Role
		}

		scores := ds.Scores[e.ID]
		row.ScoreCount = len(scores)
		row.RawAvg = rawAverage(scores)
		row.WeightedAvg = weightedAverage(scores, index, templateID)
		rows = append(rows, row)
	}
	return rows
}

func orUnset(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return Unset
}

func panelistNames(roster []Panelist, users map[string]User) string {
	names := make([]string, 0, len(roster))
	for _, p := range roster {
		u, ok := users[p.StaffID]
		if !ok {
			continue
		}
		if n := strings.TrimSpace(u.Name); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return Unset
	}
	return strings.Join(names, ", ")
}

func rawAverage(scores []Score) *float64 {
	if len(scores) == 0 {
		return nil
	}
	sum := 0.0
	for _, s := range scores {
		sum += s.Score
	}
	return round2(sum / float64(len(scores)))
}

func weightedAverage(scores []Score, index CriterionIndex, templateID string) *float64 {
	num, den := 0.0, 0.0
	for _, s := range scores {
		ref, ok := index.Lookup(s.CriterionID)
		if !ok {
			continue
		}
		if templateID != "" && ref.TemplateID != templateID {
			continue
		}
		num += s.Score * ref.Weight
		den += ref.Weight
	}
	if den == 0 {
		return nil
	}
	return round2(num / den)
}

func round2(f float64) *float64 {
	v := math.Round(f*100) / 100
	return &v
}
