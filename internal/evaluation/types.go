package evaluation

import "context"

// Unset marks a program, term or roster with no value. It groups like any other value.
const Unset = "—"

type Group struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Program string `json:"program,omitempty"`
	Term    string `json:"term,omitempty"`
}

type Schedule struct {
	ID          string `json:"id"`
	GroupID     string `json:"groupId"`
	ScheduledAt string `json:"scheduledAt"`
	Room        string `json:"room,omitempty"`
	Status      string `json:"status"`
}

// Panelist assigns a staff user to a defense schedule.
type Panelist struct {
	ScheduleID string `json:"scheduleId"`
	StaffID    string `json:"staffId"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"` // student|staff|admin
}

type Evaluation struct {
	ID          string `json:"id"`
	ScheduleID  string `json:"scheduleId"`
	EvaluatorID string `json:"evaluatorId"`
	Status      string `json:"status"` // pending|submitted|locked|...
	SubmittedAt string `json:"submittedAt,omitempty"`
	LockedAt    string `json:"lockedAt,omitempty"`
}

type Score struct {
	EvaluationID string  `json:"evaluationId"`
	CriterionID  string  `json:"criterionId"`
	Score        float64 `json:"score"`
	Comment      string  `json:"comment,omitempty"`
}

type RubricTemplate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version int    `json:"version"`
	Active  bool   `json:"active"`
}

type RubricCriterion struct {
	ID         string  `json:"id"`
	TemplateID string  `json:"templateId"`
	Criterion  string  `json:"criterion"`
	Weight     Weight  `json:"weight"`
	MinScore   float64 `json:"minScore"`
	MaxScore   float64 `json:"maxScore"`
}

// Source is the read-only view of the portal's data this engine needs.
// Implement it over REST (internal/portal) or SQL (internal/sqlsource).
type Source interface {
	Groups(ctx context.Context) ([]Group, error)
	Schedules(ctx context.Context) ([]Schedule, error)
	Users(ctx context.Context) ([]User, error)
	Evaluations(ctx context.Context) ([]Evaluation, error)
	RubricTemplates(ctx context.Context) ([]RubricTemplate, error)

	Panelists(ctx context.Context, scheduleID string) ([]Panelist, error)
	Scores(ctx context.Context, evaluationID string) ([]Score, error)
	Criteria(ctx context.Context, templateID string) ([]RubricCriterion, error)
}

// Dataset is everything one load fetched. Keyed maps only hold ids whose
// sub-fetch succeeded.
type Dataset struct {
	Groups      []Group
	Schedules   []Schedule
	Users       []User
	Evaluations []Evaluation
	Templates   []RubricTemplate

	Panelists map[string][]Panelist        // scheduleID -> roster
	Scores    map[string][]Score           // evaluationID -> scores
	Criteria  map[string][]RubricCriterion // templateID -> criteria
}
