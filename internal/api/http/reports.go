// internal/api/http/reports.go
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-evalreports/internal/evaluation"
	"github.com/mind-engage/mindengage-evalreports/internal/export"
)

// Reports is the part of evaluation.Service the handlers need.
type Reports interface {
	Refresh(ctx context.Context) (*evaluation.Snapshot, error)
	Snapshot() *evaluation.Snapshot
	Report(fs evaluation.FilterState, templateID string) (evaluation.Report, error)
	FilterOptions() (evaluation.FilterOptions, error)
}

func filterFromQuery(r *http.Request) (evaluation.FilterState, string) {
	q := r.URL.Query()
	fs := evaluation.FilterState{
		Text:    strings.TrimSpace(q.Get("q")),
		Program: strings.TrimSpace(q.Get("program")),
		Term:    strings.TrimSpace(q.Get("term")),
		From:    strings.TrimSpace(q.Get("from")),
		To:      strings.TrimSpace(q.Get("to")),
	}
	return fs, strings.TrimSpace(q.Get("template"))
}

func ReportHandler(svc Reports) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fs, tpl := filterFromQuery(r)
		rep, err := svc.Report(fs, tpl)
		if err != nil {
			writeReportErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// CSVHandler serves one report flavor as a file download.
func CSVHandler(svc Reports, kind export.Kind, prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fs, tpl := filterFromQuery(r)
		rep, err := svc.Report(fs, tpl)
		if err != nil {
			writeReportErr(w, err)
			return
		}
		name := export.Filename(prefix, kind)
		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		_, _ = w.Write([]byte(export.Render(kind, rep)))
	}
}

type refreshResponse struct {
	OK         bool      `json:"ok"`
	SnapshotID string    `json:"snapshotId,omitempty"`
	LoadedAt   time.Time `json:"loadedAt"`
	Rows       int       `json:"rows"`
	Category   string    `json:"category,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// RefreshHandler reloads everything. A failed category yields 502 and the
// previous snapshot keeps serving.
func RefreshHandler(svc Reports) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.Refresh(r.Context())
		if err != nil {
			var le *evaluation.LoadError
			if errors.As(err, &le) {
				writeJSON(w, http.StatusBadGateway, refreshResponse{Category: le.Category, Message: le.Error()})
				return
			}
			writeJSON(w, http.StatusInternalServerError, refreshResponse{Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, refreshResponse{
			OK: true, SnapshotID: snap.ID, LoadedAt: snap.LoadedAt, Rows: len(snap.Rows),
		})
	}
}

func FilterOptionsHandler(svc Reports) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := svc.FilterOptions()
		if err != nil {
			writeReportErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, opts)
	}
}

// ReadyHandler reports ready once a snapshot has been loaded.
func ReadyHandler(svc Reports) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc.Snapshot() == nil {
			http.Error(w, "no snapshot loaded", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func writeReportErr(w http.ResponseWriter, err error) {
	if errors.Is(err, evaluation.ErrNotLoaded) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
