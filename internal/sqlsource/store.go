package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mind-engage/mindengage-evalreports/internal/evaluation"
)

// Store reads the portal's tables directly. It never writes.
// Rows that fail to scan are skipped; Logger, when set, reports how many.
type Store struct {
	DB     *sql.DB
	Logger *slog.Logger
}

var _ evaluation.Source = (*Store)(nil)

func (s *Store) Groups(ctx context.Context) ([]evaluation.Group, error) {
	return query(ctx, s, "groups",
		`SELECT id, title, program, term FROM thesis_groups ORDER BY id`, nil,
		func(rs *sql.Rows) (evaluation.Group, error) {
			var g evaluation.Group
			var program, term sql.NullString
			err := rs.Scan(&g.ID, &g.Title, &program, &term)
			g.Program, g.Term = program.String, term.String
			return g, err
		})
}

func (s *Store) Schedules(ctx context.Context) ([]evaluation.Schedule, error) {
	return query(ctx, s, "schedules",
		`SELECT id, group_id, scheduled_at, room, status FROM schedules ORDER BY scheduled_at, id`, nil,
		func(rs *sql.Rows) (evaluation.Schedule, error) {
			var sc evaluation.Schedule
			var at, room sql.NullString
			err := rs.Scan(&sc.ID, &sc.GroupID, &at, &room, &sc.Status)
			sc.ScheduledAt, sc.Room = at.String, room.String
			return sc, err
		})
}

func (s *Store) Users(ctx context.Context) ([]evaluation.User, error) {
	return query(ctx, s, "users",
		`SELECT id, name, email, role FROM users ORDER BY id`, nil,
		func(rs *sql.Rows) (evaluation.User, error) {
			var u evaluation.User
			err := rs.Scan(&u.ID, &u.Name, &u.Email, &u.Role)
			return u, err
		})
}

func (s *Store) Evaluations(ctx context.Context) ([]evaluation.Evaluation, error) {
	return query(ctx, s, "evaluations",
		`SELECT id, schedule_id, evaluator_id, status, submitted_at, locked_at FROM evaluations ORDER BY id`, nil,
		func(rs *sql.Rows) (evaluation.Evaluation, error) {
			var e evaluation.Evaluation
			var submitted, locked sql.NullString
			err := rs.Scan(&e.ID, &e.ScheduleID, &e.EvaluatorID, &e.Status, &submitted, &locked)
			e.SubmittedAt, e.LockedAt = submitted.String, locked.String
			return e, err
		})
}

func (s *Store) RubricTemplates(ctx context.Context) ([]evaluation.RubricTemplate, error) {
	return query(ctx, s, "rubric templates",
		`SELECT id, name, version, active FROM rubric_templates ORDER BY id`, nil,
		func(rs *sql.Rows) (evaluation.RubricTemplate, error) {
			var t evaluation.RubricTemplate
			err := rs.Scan(&t.ID, &t.Name, &t.Version, &t.Active)
			return t, err
		})
}

func (s *Store) Panelists(ctx context.Context, scheduleID string) ([]evaluation.Panelist, error) {
	return query(ctx, s, "panelists",
		`SELECT schedule_id, staff_id FROM schedule_panelists WHERE schedule_id=$1 ORDER BY staff_id`, []any{scheduleID},
		func(rs *sql.Rows) (evaluation.Panelist, error) {
			var p evaluation.Panelist
			err := rs.Scan(&p.ScheduleID, &p.StaffID)
			return p, err
		})
}

func (s *Store) Scores(ctx context.Context, evaluationID string) ([]evaluation.Score, error) {
	return query(ctx, s, "evaluation scores",
		`SELECT evaluation_id, criterion_id, score, comment FROM evaluation_scores WHERE evaluation_id=$1 ORDER BY criterion_id`, []any{evaluationID},
		func(rs *sql.Rows) (evaluation.Score, error) {
			var sc evaluation.Score
			var comment sql.NullString
			err := rs.Scan(&sc.EvaluationID, &sc.CriterionID, &sc.Score, &comment)
			sc.Comment = comment.String
			return sc, err
		})
}

func (s *Store) Criteria(ctx context.Context, templateID string) ([]evaluation.RubricCriterion, error) {
	return query(ctx, s, "rubric criteria",
		`SELECT id, template_id, criterion, weight, min_score, max_score FROM rubric_criteria WHERE template_id=$1 ORDER BY id`, []any{templateID},
		func(rs *sql.Rows) (evaluation.RubricCriterion, error) {
			var c evaluation.RubricCriterion
			err := rs.Scan(&c.ID, &c.TemplateID, &c.Criterion, &c.Weight, &c.MinScore, &c.MaxScore)
			return c, err
		})
}

func query[T any](ctx context.Context, s *Store, what, q string, args []any, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	defer rows.Close()

	var out []T
	skipped := 0
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", what, err)
	}
	if skipped > 0 && s.Logger != nil {
		s.Logger.Debug("skipped malformed rows", "resource", what, "count", skipped)
	}
	return out, nil
}
