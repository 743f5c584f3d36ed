package evaluation_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/mind-engage/mindengage-evalreports/internal/evaluation"
)

/* ---------------- In-memory fake that satisfies evaluation.Source ---------------- */

type fakeSource struct {
	mu sync.Mutex

	groups      []evaluation.Group
	schedules   []evaluation.Schedule
	users       []evaluation.User
	evaluations []evaluation.Evaluation
	templates   []evaluation.RubricTemplate

	panelists map[string][]evaluation.Panelist
	scores    map[string][]evaluation.Score
	criteria  map[string][]evaluation.RubricCriterion

	failTop   map[string]error // category -> error
	failPanel map[string]error // scheduleID -> error
	failScore map[string]error // evaluationID -> error
	failCrit  map[string]error // templateID -> error

	calls map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		panelists: map[string][]evaluation.Panelist{},
		scores:    map[string][]evaluation.Score{},
		criteria:  map[string][]evaluation.RubricCriterion{},
		failTop:   map[string]error{},
		failPanel: map[string]error{},
		failScore: map[string]error{},
		failCrit:  map[string]error{},
		calls:     map[string]int{},
	}
}

func (f *fakeSource) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeSource) Groups(context.Context) ([]evaluation.Group, error) {
	f.hit(evaluation.ResourceGroups)
	return f.groups, f.failTop[evaluation.ResourceGroups]
}
func (f *fakeSource) Schedules(context.Context) ([]evaluation.Schedule, error) {
	f.hit(evaluation.ResourceSchedules)
	return f.schedules, f.failTop[evaluation.ResourceSchedules]
}
func (f *fakeSource) Users(context.Context) ([]evaluation.User, error) {
	f.hit(evaluation.ResourceUsers)
	return f.users, f.failTop[evaluation.ResourceUsers]
}
func (f *fakeSource) Evaluations(context.Context) ([]evaluation.Evaluation, error) {
	f.hit(evaluation.ResourceEvaluations)
	return f.evaluations, f.failTop[evaluation.ResourceEvaluations]
}
func (f *fakeSource) RubricTemplates(context.Context) ([]evaluation.RubricTemplate, error) {
	f.hit(evaluation.ResourceTemplates)
	return f.templates, f.failTop[evaluation.ResourceTemplates]
}

func (f *fakeSource) Panelists(_ context.Context, id string) ([]evaluation.Panelist, error) {
	f.hit(evaluation.ResourcePanelists)
	if err := f.failPanel[id]; err != nil {
		return nil, err
	}
	return f.panelists[id], nil
}
func (f *fakeSource) Scores(_ context.Context, id string) ([]evaluation.Score, error) {
	f.hit(evaluation.ResourceScores)
	if err := f.failScore[id]; err != nil {
		return nil, err
	}
	return f.scores[id], nil
}
func (f *fakeSource) Criteria(_ context.Context, id string) ([]evaluation.RubricCriterion, error) {
	f.hit(evaluation.ResourceCriteria)
	if err := f.failCrit[id]; err != nil {
		return nil, err
	}
	return f.criteria[id], nil
}

// seedThesis is the two-program scenario: BSCS with a term and BSIT without.
func seedThesis() *fakeSource {
	f := newFakeSource()
	f.groups = []evaluation.Group{
		{ID: "g1", Title: "Smart Campus Navigator", Program: "BSCS", Term: "AY 2025-2026"},
		{ID: "g2", Title: "Inventory Forecasting", Program: "BSIT"},
	}
	f.schedules = []evaluation.Schedule{
		{ID: "s1", GroupID: "g1", ScheduledAt: "2025-03-10T09:00:00+08:00", Room: "CS-201", Status: "scheduled"},
		{ID: "s2", GroupID: "g2", ScheduledAt: "2025-03-12T13:30:00+08:00", Room: "IT-105", Status: "done"},
	}
	f.users = []evaluation.User{
		{ID: "u1", Name: "Dr. Reyes", Email: "reyes@example.edu", Role: "staff"},
		{ID: "u2", Name: "Prof. Santos", Email: "santos@example.edu", Role: "staff"},
		{ID: "u3", Name: "Engr. Cruz", Email: "cruz@example.edu", Role: "staff"},
	}
	f.evaluations = []evaluation.Evaluation{
		{ID: "e1", ScheduleID: "s1", EvaluatorID: "u1", Status: "submitted"},
		{ID: "e2", ScheduleID: "s2", EvaluatorID: "u2", Status: "locked"},
	}
	f.templates = []evaluation.RubricTemplate{
		{ID: "t1", Name: "Defense Rubric", Version: 2, Active: true},
	}
	f.criteria["t1"] = []evaluation.RubricCriterion{
		{ID: "c1", TemplateID: "t1", Criterion: "Presentation", Weight: 1},
		{ID: "c2", TemplateID: "t1", Criterion: "Methodology", Weight: 1},
	}
	f.scores["e1"] = []evaluation.Score{
		{EvaluationID: "e1", CriterionID: "c1", Score: 7},
		{EvaluationID: "e1", CriterionID: "c2", Score: 9},
	}
	f.scores["e2"] = []evaluation.Score{
		{EvaluationID: "e2", CriterionID: "c1", Score: 10},
		{EvaluationID: "e2", CriterionID: "c2", Score: 10},
	}
	f.panelists["s1"] = []evaluation.Panelist{{ScheduleID: "s1", StaffID: "u1"}, {ScheduleID: "s1", StaffID: "u3"}}
	f.panelists["s2"] = []evaluation.Panelist{{ScheduleID: "s2", StaffID: "u2"}}
	return f
}

func ptr(f float64) *float64 { return &f }

func fmtAvg(v *float64) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%.2f", *v)
}
