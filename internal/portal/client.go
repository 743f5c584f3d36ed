package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/mind-engage/mindengage-evalreports/internal/evaluation"
)

const DefaultPageSize = 500

type Config struct {
	BaseURL string

	// Token is a static bearer token. It is ignored when TokenURL is set.
	Token string

	// Client-credentials grant against the portal's token endpoint.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	Timeout  time.Duration
	PageSize int
}

// Client reads the portal's REST resources. It implements evaluation.Source.
type Client struct {
	base     *url.URL
	http     *http.Client
	pageSize int
	Logger   *slog.Logger
}

var _ evaluation.Source = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("portal: base url is required")
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("portal: parse base url: %w", err)
	}

	var h *http.Client
	switch {
	case cfg.TokenURL != "":
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		h = cc.Client(context.Background())
	case cfg.Token != "":
		h = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.Token,
			TokenType:   "Bearer",
		}))
	default:
		h = &http.Client{}
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}

	size := cfg.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Client{base: base, http: h, pageSize: size, Logger: slog.Default()}, nil
}

// APIError is a non-2xx status or an {"ok":false} envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("portal: status %d", e.Status)
	}
	return fmt.Sprintf("portal: %s (status %d)", e.Message, e.Status)
}

// ---- Top-level collections ----

func (c *Client) Groups(ctx context.Context) ([]evaluation.Group, error) {
	raw, err := c.list(ctx, "/groups", url.Values{"resource": {"all"}}, "groups")
	if err != nil {
		return nil, err
	}
	return decodeItems(c, "groups", raw, func(g groupWire) (evaluation.Group, bool) {
		title := g.Title
		if title == "" {
			title = g.Name
		}
		return evaluation.Group{ID: g.ID, Title: title, Program: g.Program, Term: g.Term}, g.ID != ""
	}), nil
}

func (c *Client) Schedules(ctx context.Context) ([]evaluation.Schedule, error) {
	raw, err := c.pages(ctx, "/schedule", url.Values{"resource": {"schedules"}}, "schedules")
	if err != nil {
		return nil, err
	}
	return decodeItems(c, "schedules", raw, func(s evaluation.Schedule) (evaluation.Schedule, bool) {
		return s, s.ID != ""
	}), nil
}

func (c *Client) Users(ctx context.Context) ([]evaluation.User, error) {
	raw, err := c.pages(ctx, "/profiles", url.Values{"resource": {"users"}}, "users")
	if err != nil {
		return nil, err
	}
	return decodeItems(c, "users", raw, func(u evaluation.User) (evaluation.User, bool) {
		return u, u.ID != ""
	}), nil
}

func (c *Client) Evaluations(ctx context.Context) ([]evaluation.Evaluation, error) {
	raw, err := c.pages(ctx, "/evaluation", url.Values{"resource": {"evaluations"}}, "evaluations")
	if err != nil {
		return nil, err
	}
	return decodeItems(c, "evaluations", raw, func(e evaluation.Evaluation) (evaluation.Evaluation, bool) {
		return e, e.ID != ""
	}), nil
}

func (c *Client) RubricTemplates(ctx context.Context) ([]evaluation.RubricTemplate, error) {
	raw, err := c.pages(ctx, "/evaluation", url.Values{"resource": {"rubricTemplates"}}, "templates")
	if err != nil {
		return nil, err
	}
	return decodeItems(c, "templates", raw, func(t evaluation.RubricTemplate) (evaluation.RubricTemplate, bool) {
		return t, t.ID != ""
	}), nil
}

// ---- Keyed collections ----

func (c *Client) Panelists(ctx context.Context, scheduleID string) ([]evaluation.Panelist, error) {
	raw, err := c.list(ctx, "/schedule", url.Values{"resource": {"panelists"}, "scheduleId": {scheduleID}}, "panelists")
	if err != nil {
		return nil, err
	}
	return decodeItems(c, "panelists", raw, func(p evaluation.Panelist) (evaluation.Panelist, bool) {
		if p.ScheduleID == "" {
			p.ScheduleID = scheduleID
		}
		return p, p.StaffID != ""
	}), nil
}

func (c *Client) Scores(ctx context.Context, evaluationID string) ([]evaluation.Score, error) {
	raw, err := c.list(ctx, "/evaluation", url.Values{"resource": {"evaluationScores"}, "evaluationId": {evaluationID}}, "scores")
	if err != nil {
		return nil, err
	}
	return decodeItems(c, "scores", raw, func(s scoreWire) (evaluation.Score, bool) {
		v, err := s.Score.Float64()
		if err != nil || s.CriterionID == "" {
			return evaluation.Score{}, false
		}
		id := s.EvaluationID
		if id == "" {
			id = evaluationID
		}
		return evaluation.Score{EvaluationID: id, CriterionID: s.CriterionID, Score: v, Comment: s.Comment}, true
	}), nil
}

func (c *Client) Criteria(ctx context.Context, templateID string) ([]evaluation.RubricCriterion, error) {
	raw, err := c.list(ctx, "/evaluation", url.Values{"resource": {"rubricCriteria"}, "templateId": {templateID}}, "criteria")
	if err != nil {
		return nil, err
	}
	return decodeItems(c, "criteria", raw, func(rc evaluation.RubricCriterion) (evaluation.RubricCriterion, bool) {
		if rc.TemplateID == "" {
			rc.TemplateID = templateID
		}
		return rc, rc.ID != ""
	}), nil
}

// ---- Wire shapes that differ from the domain records ----

type groupWire struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Name    string `json:"name"`
	Program string `json:"program"`
	Term    string `json:"term"`
}

type scoreWire struct {
	EvaluationID string      `json:"evaluationId"`
	CriterionID  string      `json:"criterionId"`
	Score        json.Number `json:"score"`
	Comment      string      `json:"comment"`
}

// decodeItems converts each raw item independently; malformed items are dropped.
func decodeItems[W, T any](c *Client, resource string, raw []json.RawMessage, convert func(W) (T, bool)) []T {
	out := make([]T, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		var w W
		if err := json.Unmarshal(r, &w); err != nil {
			skipped++
			continue
		}
		v, ok := convert(w)
		if !ok {
			skipped++
			continue
		}
		out = append(out, v)
	}
	if skipped > 0 && c.Logger != nil {
		c.Logger.Debug("skipped malformed items", "resource", resource, "count", skipped)
	}
	return out
}

// pages follows limit/offset until a short page comes back, or until a page
// starts with the same item as the one before it (offset ignored upstream).
func (c *Client) pages(ctx context.Context, path string, q url.Values, key string) ([]json.RawMessage, error) {
	var (
		all  []json.RawMessage
		prev json.RawMessage
	)
	for offset := 0; ; {
		pq := url.Values{}
		for k, v := range q {
			pq[k] = v
		}
		pq.Set("limit", strconv.Itoa(c.pageSize))
		pq.Set("offset", strconv.Itoa(offset))

		page, err := c.list(ctx, path, pq, key)
		if err != nil {
			return nil, err
		}
		if len(page) > 0 && prev != nil && bytes.Equal(page[0], prev) {
			if c.Logger != nil {
				c.Logger.Warn("portal ignored offset; stopping pagination", "path", path, "offset", offset)
			}
			return all, nil
		}
		all = append(all, page...)
		if len(page) < c.pageSize {
			return all, nil
		}
		prev = page[0]
		offset += len(page)
	}
}

// list performs one GET and unwraps the {ok, <key>: [...], message} envelope.
func (c *Client) list(ctx context.Context, path string, q url.Values, key string) ([]json.RawMessage, error) {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	var env map[string]json.RawMessage
	decodeErr := json.Unmarshal(body, &env)

	if res.StatusCode/100 != 2 {
		return nil, &APIError{Status: res.StatusCode, Message: envelopeMessage(env)}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode %s: %w", key, decodeErr)
	}
	if okRaw, present := env["ok"]; present {
		var ok bool
		if err := json.Unmarshal(okRaw, &ok); err != nil || !ok {
			return nil, &APIError{Status: res.StatusCode, Message: envelopeMessage(env)}
		}
	}

	items, present := env[key]
	if !present || string(items) == "null" {
		return nil, nil
	}
	var out []json.RawMessage
	if err := json.Unmarshal(items, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

func envelopeMessage(env map[string]json.RawMessage) string {
	var msg string
	if raw, ok := env["message"]; ok {
		_ = json.Unmarshal(raw, &msg)
	}
	return msg
}
