package evaluation

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// FilterAll disables the program or term filter.
const FilterAll = "all"

const dateLayout = "2006-01-02"

var scheduleLayouts = []struct {
	layout string
	local  bool
}{
	{time.RFC3339Nano, false},
	{time.RFC3339, false},
	{"2006-01-02 15:04:05Z07:00", false},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02T15:04", true},
	{dateLayout, true},
}

// FilterState is the report's current filter. From and To are calendar
// dates (YYYY-MM-DD) interpreted in the caller's location.
type FilterState struct {
	Text    string `json:"q,omitempty"`
	Program string `json:"program,omitempty"`
	Term    string `json:"term,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
}

// Filter returns the rows accepted by fs, preserving order.
func Filter(rows []EvalRow, fs FilterState, loc *time.Location) []EvalRow {
	m := fs.matcher(loc)
	out := make([]EvalRow, 0, len(rows))
	for _, r := range rows {
		if m.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Match reports whether a single row passes fs.
func (fs FilterState) Match(r EvalRow, loc *time.Location) bool {
	return fs.matcher(loc).match(r)
}

type matcher struct {
	fold     cases.Caser
	needle   string
	program  string
	term     string
	from, to time.Time
	hasFrom  bool
	hasTo    bool
	loc      *time.Location
}

func (fs FilterState) matcher(loc *time.Location) *matcher {
	if loc == nil {
		loc = time.Local
	}
	m := &matcher{
		fold:    cases.Fold(),
		program: selected(fs.Program),
		term:    selected(fs.Term),
		loc:     loc,
	}
	if t := strings.TrimSpace(fs.Text); t != "" {
		m.needle = m.fold.String(t)
	}
	if d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(fs.From), loc); err == nil {
		m.from, m.hasFrom = d, true
	}
	if d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(fs.To), loc); err == nil {
		m.to, m.hasTo = time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 999999999, loc), true
	}
	return m
}

func selected(v string) string {
	v = strings.TrimSpace(v)
	if v == FilterAll {
		return ""
	}
	return v
}

func (m *matcher) match(r EvalRow) bool {
	if m.program != "" && r.Program != m.program {
		return false
	}
	if m.term != "" && r.Term != m.term {
		return false
	}
	if m.hasFrom || m.hasTo {
		// An unreadable schedule date is kept rather than dropped.
		if at, ok := ParseScheduledAt(r.ScheduledAt, m.loc); ok {
			if m.hasFrom && at.Before(m.from) {
				return false
			}
			if m.hasTo && at.After(m.to) {
				return false
			}
		}
	}
	if m.needle == "" {
		return true
	}
	for _, f := range [...]string{
		r.GroupTitle, r.Program, r.Term, r.Room, r.ScheduleStatus,
		r.EvaluatorName, r.EvaluatorRole, r.PanelistNames, r.Status,
	} {
		if f != "" && strings.Contains(m.fold.String(f), m.needle) {
			return true
		}
	}
	return false
}

// ParseScheduledAt reads the schedule timestamps the portal is known to emit.
func ParseScheduledAt(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, l := range scheduleLayouts {
		var (
			t   time.Time
			err error
		)
		if l.local {
			t, err = time.ParseInLocation(l.layout, s, loc)
		} else {
			t, err = time.Parse(l.layout, s)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
