// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the prio working set and the analysis engine as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/prio/internal/core"
	"github.com/valter-silva-au/prio/internal/exchange"
	"github.com/valter-silva-au/prio/internal/observability"
	"github.com/valter-silva-au/prio/internal/storage"
	"github.com/valter-silva-au/prio/pkg/models"
)

// Workspace is the shared file behind the working set. Update holds the
// workspace lock while it loads, applies fn and saves.
type Workspace interface {
	Update(fn func(current *storage.WorkspaceFile) (*storage.WorkspaceFile, error)) error
}

// Server wraps a prio session and exposes it as MCP tools.
type Server struct {
	server          *gomcp.Server
	session         *core.Session
	metricsCalc     observability.MetricsCalculator
	workspace       Workspace
	defaultStrategy models.Strategy
}

// NewServer creates a new MCP server over session. metricsCalc and workspace
// may be nil; without a workspace the working set lives only as long as the
// server.
func NewServer(session *core.Session, metricsCalc observability.MetricsCalculator, workspace Workspace, defaultStrategy models.Strategy, version string) *Server {
	if version == "" {
		version = "dev"
	}
	if !defaultStrategy.Valid() {
		defaultStrategy = models.DefaultStrategy
	}

	s := &Server{
		session:         session,
		metricsCalc:     metricsCalc,
		workspace:       workspace,
		defaultStrategy: defaultStrategy,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "prio", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskOutput struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	DueDate        string         `json:"due_date,omitempty"`
	EstimatedHours *float64       `json:"estimated_hours,omitempty"`
	Importance     *int           `json:"importance,omitempty"`
	Dependencies   []string       `json:"dependencies"`
	PriorityLabel  string         `json:"priority_label,omitempty"`
	Score          *float64       `json:"score,omitempty"`
	Explanation    string         `json:"explanation,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
}

type addTaskInput struct {
	Title          string   `json:"title" jsonschema:"the task title (required, non-empty)"`
	DueDate        string   `json:"due_date,omitempty" jsonschema:"optional due date, e.g. 2025-12-01"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty" jsonschema:"optional non-negative effort estimate in hours"`
	Importance     int      `json:"importance" jsonschema:"importance from 1 (low) to 10 (high)"`
	Dependencies   []string `json:"dependencies,omitempty" jsonschema:"ids of tasks this task depends on"`
}

type addTaskOutput struct {
	Task    taskOutput `json:"task"`
	Message string     `json:"message"`
}

type loadTasksInput struct {
	JSON string `json:"json" jsonschema:"a JSON array of task objects; replaces the current working set"`
}

type loadTasksOutput struct {
	Count   int    `json:"count"`
	Message string `json:"message"`
}

type listTasksInput struct{}

type listTasksOutput struct {
	Tasks  []taskOutput `json:"tasks"`
	Count  int          `json:"count"`
	NextID int          `json:"next_id"`
}

type strategyInput struct {
	Strategy string `json:"strategy,omitempty" jsonschema:"scoring strategy: smart_balance, fastest_wins, high_impact or deadline_driven"`
}

type analyzeOutput struct {
	Strategy string       `json:"strategy"`
	Warnings []string     `json:"warnings,omitempty"`
	Tasks    []taskOutput `json:"tasks"`
	Count    int          `json:"count"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	TasksAdded     int            `json:"tasks_added"`
	AddsRejected   int            `json:"adds_rejected"`
	Imports        int            `json:"imports"`
	TasksImported  int            `json:"tasks_imported"`
	ImportsFailed  int            `json:"imports_failed"`
	Analyses       int            `json:"analyses"`
	AnalysesFailed int            `json:"analyses_failed"`
	Suggestions    int            `json:"suggestions"`
	SuggestsFailed int            `json:"suggestions_failed"`
	StrategyUsage  map[string]int `json:"strategy_usage"`
	Sessions       int            `json:"sessions"`
	EventCount     int            `json:"event_count"`
	OldestEvent    string         `json:"oldest_event,omitempty"`
	NewestEvent    string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Add a task to the working set. The task receives the next numeric id.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "load_tasks",
		Description: "Replace the working set with a JSON array of tasks. Tasks without an id are given one.",
	}, s.handleLoadTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List the tasks in the working set, in order.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "analyze_tasks",
		Description: "Send the working set to the analysis engine and replace it with the scored result (priority label, score, explanation).",
	}, s.handleAnalyzeTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "suggest_tasks",
		Description: "Ask the analysis engine which tasks to work on next. The working set is not changed.",
	}, s.handleSuggestTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get usage metrics from the event log: adds, imports, analyses, suggestions and failures.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleAddTask(_ context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, addTaskOutput, error) {
	in := core.TaskInput{
		Title:        input.Title,
		DueDate:      input.DueDate,
		Importance:   strconv.Itoa(input.Importance),
		Dependencies: strings.Join(input.Dependencies, ","),
	}
	if input.EstimatedHours != nil {
		in.EstimatedHours = strconv.FormatFloat(*input.EstimatedHours, 'f', -1, 64)
	}

	var task models.Task
	err := s.mutate(func() error {
		var err error
		task, err = s.session.Add(in)
		if err != nil {
			return fmt.Errorf("adding task: %w", err)
		}
		return nil
	})
	if err != nil {
		return errorResult(err.Error()), addTaskOutput{}, nil
	}

	return nil, addTaskOutput{
		Task:    taskToOutput(task),
		Message: fmt.Sprintf("Task added with id %s.", task.ID),
	}, nil
}

func (s *Server) handleLoadTasks(_ context.Context, _ *gomcp.CallToolRequest, input loadTasksInput) (*gomcp.CallToolResult, loadTasksOutput, error) {
	var n int
	err := s.mutate(func() error {
		var err error
		n, err = s.session.BulkLoad(input.JSON)
		return err
	})
	if err != nil {
		return errorResult(err.Error()), loadTasksOutput{}, nil
	}
	return nil, loadTasksOutput{Count: n, Message: "Loaded tasks from JSON."}, nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, _ listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	if err := s.refresh(); err != nil {
		return errorResult(err.Error()), listTasksOutput{Tasks: []taskOutput{}}, nil
	}
	store := s.session.Store()
	tasks := store.Tasks()
	return nil, listTasksOutput{
		Tasks:  tasksToOutput(tasks),
		Count:  len(tasks),
		NextID: store.NextID(),
	}, nil
}

func (s *Server) handleAnalyzeTasks(ctx context.Context, _ *gomcp.CallToolRequest, input strategyInput) (*gomcp.CallToolResult, analyzeOutput, error) {
	strategy, err := s.strategy(input.Strategy)
	if err != nil {
		return errorResult(err.Error()), emptyAnalyzeOutput(), nil
	}

	var (
		res     *exchange.AnalyzeResult
		callErr error
	)
	err = s.mutate(func() error {
		res, callErr = s.session.Analyze(ctx, strategy)
		return callErr
	})
	if callErr != nil {
		return errorResult(callFailure("analyze", callErr)), emptyAnalyzeOutput(), nil
	}
	if err != nil {
		return errorResult(err.Error()), emptyAnalyzeOutput(), nil
	}

	return nil, analyzeOutput{
		Strategy: strategyLabel(res.Strategy, strategy),
		Warnings: res.Warnings,
		Tasks:    tasksToOutput(res.Tasks),
		Count:    len(res.Tasks),
	}, nil
}

func (s *Server) handleSuggestTasks(ctx context.Context, _ *gomcp.CallToolRequest, input strategyInput) (*gomcp.CallToolResult, analyzeOutput, error) {
	strategy, err := s.strategy(input.Strategy)
	if err != nil {
		return errorResult(err.Error()), emptyAnalyzeOutput(), nil
	}

	if err := s.refresh(); err != nil {
		return errorResult(err.Error()), emptyAnalyzeOutput(), nil
	}

	res, err := s.session.Suggest(ctx, strategy)
	if err != nil {
		return errorResult(callFailure("suggest", err)), emptyAnalyzeOutput(), nil
	}

	return nil, analyzeOutput{
		Strategy: strategyLabel(res.Strategy, strategy),
		Warnings: res.Warnings,
		Tasks:    tasksToOutput(res.Tasks),
		Count:    len(res.Tasks),
	}, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := ParseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		TasksAdded:     metrics.TasksAdded,
		AddsRejected:   metrics.AddsRejected,
		Imports:        metrics.Imports,
		TasksImported:  metrics.TasksImported,
		ImportsFailed:  metrics.ImportsFailed,
		Analyses:       metrics.Analyses,
		AnalysesFailed: metrics.AnalysesFailed,
		Suggestions:    metrics.Suggestions,
		SuggestsFailed: metrics.SuggestsFailed,
		StrategyUsage:  metrics.StrategyUsage,
		Sessions:       metrics.Sessions,
		EventCount:     metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

// --- Helpers ---

func (s *Server) strategy(raw string) (models.Strategy, error) {
	if strings.TrimSpace(raw) == "" {
		return s.defaultStrategy, nil
	}
	return models.ParseStrategy(raw)
}

// mutate reloads the working set from the workspace, runs fn and saves the
// result, all under the workspace lock, so changes made by other prio
// processes since the last call are kept. Nothing is saved when fn fails.
func (s *Server) mutate(fn func() error) error {
	if s.workspace == nil {
		return fn()
	}
	store := s.session.Store()
	return s.workspace.Update(func(wf *storage.WorkspaceFile) (*storage.WorkspaceFile, error) {
		store.Restore(wf.NextID, wf.Tasks)
		if err := fn(); err != nil {
			return nil, err
		}
		nextID, tasks := store.Snapshot()
		return &storage.WorkspaceFile{NextID: nextID, Tasks: tasks}, nil
	})
}

// refresh reloads the working set so read-only tools see changes made by
// other prio processes.
func (s *Server) refresh() error {
	if s.workspace == nil {
		return nil
	}
	store := s.session.Store()
	return s.workspace.Update(func(wf *storage.WorkspaceFile) (*storage.WorkspaceFile, error) {
		store.Restore(wf.NextID, wf.Tasks)
		return nil, nil
	})
}

// callFailure describes a failed engine call the same way the interactive
// session does.
func callFailure(op string, err error) string {
	switch {
	case errors.Is(err, core.ErrNoTasks):
		if op == "suggest" {
			return "Add at least one task before requesting suggestions."
		}
		return "Add at least one task before analyzing."
	case errors.Is(err, exchange.ErrUnexpectedResponse):
		return "Unexpected API response."
	case op == "suggest":
		return "Failed to fetch suggestions: " + err.Error()
	default:
		return "Failed to analyze tasks: " + err.Error()
	}
}

func strategyLabel(echoed, requested models.Strategy) string {
	if echoed != "" {
		return string(echoed)
	}
	return string(requested)
}

func taskToOutput(t models.Task) taskOutput {
	out := taskOutput{
		ID:             t.ID,
		Title:          t.Title,
		EstimatedHours: t.EstimatedHours,
		Importance:     t.Importance,
		Dependencies:   t.Dependencies,
		PriorityLabel:  t.PriorityLabel,
		Score:          t.Score,
		Explanation:    t.Explanation,
	}
	if out.Dependencies == nil {
		out.Dependencies = []string{}
	}
	if t.DueDate != nil {
		out.DueDate = *t.DueDate
	}
	if len(t.Extra) > 0 {
		out.Extra = make(map[string]any, len(t.Extra))
		for k, raw := range t.Extra {
			var v any
			if err := json.Unmarshal(raw, &v); err == nil {
				out.Extra[k] = v
			}
		}
	}
	return out
}

func tasksToOutput(tasks []models.Task) []taskOutput {
	out := make([]taskOutput, len(tasks))
	for i, t := range tasks {
		out[i] = taskToOutput(t)
	}
	return out
}

func emptyAnalyzeOutput() analyzeOutput {
	return analyzeOutput{Tasks: []taskOutput{}}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{StrategyUsage: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// ParseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func ParseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	num, err := strconv.Atoi(numStr)
	if err != nil || num < 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
