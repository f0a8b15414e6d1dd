// Package exchange implements the two calls prio makes to the analysis
// engine: analyze, which posts the whole working set and receives it back
// scored, and suggest, which sends the set as a query parameter and receives
// a ranked subset for display.
package exchange

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
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/valter-silva-au/prio/pkg/models"
)

const (
	analyzePath = "/tasks/analyze/"
	suggestPath = "/tasks/suggest/"
)

// Client talks to the analysis engine over HTTP. It holds no state between
// calls; every call serializes the tasks it is given.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates a client for the engine rooted at baseURL
// (e.g. http://localhost:8000/api).
func NewClient(baseURL string, opts ...Option) *Client {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: o.httpClient,
		timeout:    o.timeout,
		logger:     o.logger,
	}
}

// AnalyzeResult is the engine's answer to an analyze call.
type AnalyzeResult struct {
	Strategy models.Strategy
	Warnings []string
	Tasks    []models.Task
}

// SuggestResult is the engine's answer to a suggest call.
type SuggestResult struct {
	Strategy models.Strategy
	Warnings []string
	Tasks    []models.Task
}

type analyzeRequest struct {
	Strategy models.Strategy `json:"strategy"`
	Tasks    []models.Task   `json:"tasks"`
}

// envelope is a decoded success body: its top-level fields plus the decoded
// array found under the expected key.
type envelope struct {
	fields map[string]json.RawMessage
	tasks  []models.Task
}

// Analyze posts the full task list with the strategy and returns the scored
// list the engine sends back.
func (c *Client) Analyze(ctx context.Context, strategy models.Strategy, tasks []models.Task) (*AnalyzeResult, error) {
	body, err := json.Marshal(analyzeRequest{Strategy: strategy, Tasks: nonNil(tasks)})
	if err != nil {
		return nil, fmt.Errorf("encoding analyze request: %w", err)
	}

	env, err := c.call(ctx, "analyze", "tasks", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	return &AnalyzeResult{
		Strategy: env.strategy(),
		Warnings: env.warnings(),
		Tasks:    env.tasks,
	}, nil
}

// Suggest sends the task list, serialized to JSON text, as a query parameter
// and returns the engine's suggested subset.
func (c *Client) Suggest(ctx context.Context, strategy models.Strategy, tasks []models.Task) (*SuggestResult, error) {
	encoded, err := json.Marshal(nonNil(tasks))
	if err != nil {
		return nil, fmt.Errorf("encoding suggest request: %w", err)
	}

	params := url.Values{}
	params.Set("strategy", string(strategy))
	params.Set("tasks", string(encoded))
	target := c.baseURL + suggestPath + "?" + params.Encode()

	env, err := c.call(ctx, "suggest", "suggested_tasks", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	return &SuggestResult{
		Strategy: env.strategy(),
		Warnings: env.warnings(),
		Tasks:    env.tasks,
	}, nil
}

// call executes one request, applying the optional per-call timeout, and
// classifies the outcome.
func (c *Client) call(ctx context.Context, op, field string, build func(context.Context) (*http.Request, error)) (*envelope, error) {
	run := func(ctx context.Context) (*envelope, error) {
		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("building %s request: %w", op, err)
		}
		return c.roundTrip(req, op, field)
	}

	var (
		env *envelope
		err error
	)
	if c.timeout > 0 {
		t := timeout.New[*envelope](timeout.Config{DefaultTimeout: c.timeout})
		env, err = t.Execute(ctx, c.timeout, run)
	} else {
		env, err = run(ctx)
	}
	if err != nil {
		return nil, classify(op, err)
	}
	return env, nil
}

func (c *Client) roundTrip(req *http.Request, op, field string) (*envelope, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("engine call failed", "op", op, "url", req.URL.Path, "error", err)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	c.logger.Debug("engine call",
		"op", op,
		"method", req.Method,
		"url", req.URL.Path,
		"status", resp.StatusCode,
		"bytes", len(data),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: remoteMessage(data)}
	}

	return decodeEnvelope(data, op, field)
}

// decodeEnvelope parses a success body and the task array under field.
func decodeEnvelope(data []byte, op, field string) (*envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, &ShapeError{Op: op, Field: field}
	}

	raw := bytes.TrimSpace(fields[field])
	if len(raw) == 0 || raw[0] != '[' {
		return nil, &ShapeError{Op: op, Field: field}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ShapeError{Op: op, Field: field}
	}

	tasks := make([]models.Task, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &tasks[i]); err != nil {
			return nil, &ShapeError{Op: op, Field: field}
		}
	}

	return &envelope{fields: fields, tasks: tasks}, nil
}

func (e *envelope) strategy() models.Strategy {
	var s string
	if raw, ok := e.fields["strategy"]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return models.Strategy(s)
}

func (e *envelope) warnings() []string {
	var w []string
	if raw, ok := e.fields["warnings"]; ok {
		_ = json.Unmarshal(raw, &w)
	}
	return w
}

// remoteMessage inspects a failed response body for an explanation: the
// "error" string first, then the "errors" value the engine uses for field
// validation failures, then a generic description.
func remoteMessage(data []byte) string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return genericRemoteMessage
	}

	var msg string
	if raw, ok := body["error"]; ok && json.Unmarshal(raw, &msg) == nil && msg != "" {
		return msg
	}

	if raw, ok := body["errors"]; ok {
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err == nil && compact.String() != "null" {
			return "validation failed: " + compact.String()
		}
	}

	return genericRemoteMessage
}

// classify wraps errors that are not already part of the taxonomy, such as
// a timeout raised around the call, as transport failures.
func classify(op string, err error) error {
	var (
		te *TransportError
		re *RemoteError
		se *ShapeError
	)
	if errors.As(err, &te) || errors.As(err, &re) || errors.As(err, &se) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

func nonNil(tasks []models.Task) []models.Task {
	if tasks == nil {
		return []models.Task{}
	}
	return tasks
}
