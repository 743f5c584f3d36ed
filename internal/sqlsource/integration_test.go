package sqlsource_test

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-evalreports/internal/db"
	"github.com/mind-engage/mindengage-evalreports/internal/evaluation"
	"github.com/mind-engage/mindengage-evalreports/internal/export"
	"github.com/mind-engage/mindengage-evalreports/internal/sqlsource"
)

// Execer lets us pass *sql.DB or *sql.Tx
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func seedPortal(t *testing.T, db Execer) {
	t.Helper()
	stmts := []string{
		`INSERT INTO thesis_groups (id,title,program,term) VALUES
		  ('g1','Smart Campus Navigator','BSCS','AY 2025-2026'),
		  ('g2','Inventory Forecasting','BSIT',NULL)`,
		`INSERT INTO schedules (id,group_id,scheduled_at,room,status) VALUES
		  ('s1','g1','2025-03-10 09:00:00','CS-201','scheduled'),
		  ('s2','g2','2025-03-12 13:30:00',NULL,'done')`,
		`INSERT INTO users (id,name,email,role) VALUES
		  ('u1','Dr. Reyes','reyes@example.edu','staff'),
		  ('u2','Prof. Santos','santos@example.edu','staff'),
		  ('u3','Engr. Cruz','cruz@example.edu','staff')`,
		`INSERT INTO schedule_panelists (schedule_id,staff_id) VALUES ('s1','u1'),('s1','u3'),('s2','u2')`,
		`INSERT INTO evaluations (id,schedule_id,evaluator_id,status,submitted_at,locked_at) VALUES
		  ('e1','s1','u1','submitted','2025-03-10 11:00:00',NULL),
		  ('e2','s2','u2','locked','2025-03-12 15:00:00','2025-03-13 08:00:00')`,
		`INSERT INTO rubric_templates (id,name,version,active) VALUES ('t1','Defense Rubric',2,1),('t0','Legacy Rubric',1,0)`,
		`INSERT INTO rubric_criteria (id,template_id,criterion,weight,min_score,max_score) VALUES
		  ('c1','t1','Presentation','1',0,10),
		  ('c2','t1','Methodology',NULL,0,10),
		  ('old','t0','Legacy','heavy',0,10)`,
		`INSERT INTO evaluation_scores (evaluation_id,criterion_id,score,comment) VALUES
		  ('e1','c1',7,'clear slides'),('e1','c2',9,NULL),
		  ('e2','c1',10,NULL),('e2','c2',10,NULL)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed: %v\n%s", err, s)
		}
	}
}

func openSeeded(t *testing.T, name string) *sql.DB {
	t.Helper()
	conn, err := db.OpenAndMigrate(context.Background(), db.DriverSQLite, "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	seedPortal(t, conn)
	return conn
}

func TestStore_ReadsAndCoerces(t *testing.T) {
	st := &sqlsource.Store{DB: openSeeded(t, "store_reads")}
	ctx := context.Background()

	groups, err := st.Groups(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 || groups[1].Term != "" {
		t.Fatalf("unexpected groups: %+v", groups)
	}

	tpls, err := st.RubricTemplates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tpls) != 2 || tpls[0].ID != "t0" || tpls[0].Active || !tpls[1].Active || tpls[1].Version != 2 {
		t.Fatalf("unexpected templates: %+v", tpls)
	}

	legacy, err := st.Criteria(ctx, "t0")
	if err != nil {
		t.Fatal(err)
	}
	if len(legacy) != 1 || legacy[0].Weight != evaluation.DefaultWeight {
		t.Fatalf("unparsable weight should coerce to 1: %+v", legacy)
	}
	current, _ := st.Criteria(ctx, "t1")
	if len(current) != 2 || current[1].Weight != evaluation.DefaultWeight {
		t.Fatalf("null weight should coerce to 1: %+v", current)
	}

	roster, err := st.Panelists(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(roster) != 2 || roster[0].StaffID != "u1" || roster[1].StaffID != "u3" {
		t.Fatalf("unexpected roster: %+v", roster)
	}

	none, err := st.Scores(ctx, "missing")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no scores, got %v %v", none, err)
	}
}

func Test_EndToEnd_SQLite_Report(t *testing.T) {
	st := &sqlsource.Store{DB: openSeeded(t, "end_to_end")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loc := time.FixedZone("PHT", 8*60*60)

	svc := evaluation.NewService(evaluation.NewLoader(st, nil, logger), loc, time.Now, logger)
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	rep, err := svc.Report(evaluation.FilterState{}, "")
	if err != nil {
		t.Fatal(err)
	}
	if rep.TemplateID != "t1" || len(rep.Rows) != 2 {
		t.Fatalf("unexpected report: template=%s rows=%d", rep.TemplateID, len(rep.Rows))
	}
	if rep.Rows[0].PanelistNames != "Dr. Reyes, Engr. Cruz" {
		t.Fatalf("unexpected panel: %q", rep.Rows[0].PanelistNames)
	}

	got := export.ProgramSummary(rep.ByProgram)
	want := "Program,Term,Evaluations,Average\nBSCS,AY 2025-2026,1,8.00\nBSIT,—,1,10.00"
	if got != want {
		t.Fatalf("program summary:\n got %q\nwant %q", got, want)
	}

	march12, err := svc.Report(evaluation.FilterState{From: "2025-03-12", To: "2025-03-12"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(march12.Rows) != 1 || march12.Rows[0].EvaluationID != "e2" {
		t.Fatalf("date filter: %+v", march12.Rows)
	}
}

func TestStore_SkipsMalformedRows(t *testing.T) {
	conn := openSeeded(t, "malformed_rows")
	for _, s := range []string{
		`INSERT INTO rubric_templates (id,name,version,active) VALUES ('t9','Draft Rubric','v3',0)`,
		`INSERT INTO evaluation_scores (evaluation_id,criterion_id,score,comment) VALUES ('e1','c9','n/a',NULL)`,
	} {
		if _, err := conn.Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	var logs bytes.Buffer
	st := &sqlsource.Store{DB: conn, Logger: slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	ctx := context.Background()

	tpls, err := st.RubricTemplates(ctx)
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	if len(tpls) != 2 || tpls[0].ID != "t0" || tpls[1].ID != "t1" {
		t.Fatalf("expected the unreadable template to be skipped: %+v", tpls)
	}

	scores, err := st.Scores(ctx, "e1")
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if len(scores) != 2 || scores[0].CriterionID != "c1" || scores[1].CriterionID != "c2" {
		t.Fatalf("expected both readable scores to survive: %+v", scores)
	}
	if !strings.Contains(logs.String(), "skipped malformed rows") {
		t.Fatalf("expected a debug line for skipped rows, got %q", logs.String())
	}

	svc := evaluation.NewService(evaluation.NewLoader(st, nil, st.Logger), time.UTC, time.Now, st.Logger)
	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh should tolerate malformed rows: %v", err)
	}
	rep, _ := svc.Report(evaluation.FilterState{Program: "BSCS"}, "")
	if len(rep.Rows) != 1 || rep.Rows[0].WeightedAvg == nil || *rep.Rows[0].WeightedAvg != 8 {
		t.Fatalf("unexpected BSCS row: %+v", rep.Rows)
	}
}
