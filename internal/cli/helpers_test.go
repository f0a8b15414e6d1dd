package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/prio/internal/core"
	"github.com/valter-silva-au/prio/internal/exchange"
	"github.com/valter-silva-au/prio/internal/storage"
	"github.com/valter-silva-au/prio/pkg/models"
)

// setupCLI points the package-level services at a fresh store, a workspace in
// a temp dir and the given engine. Everything is restored when the test ends.
func setupCLI(t *testing.T, engine core.Exchanger) (*core.Store, storage.WorkspaceManager) {
	t.Helper()

	origSession, origWorkspace, origStrategy, origPlain := Session, Workspace, DefaultStrategy, plainOutput
	t.Cleanup(func() {
		Session, Workspace, DefaultStrategy, plainOutput = origSession, origWorkspace, origStrategy, origPlain
		resetCommandFlags()
	})

	store := core.NewStore()
	Session = core.NewSession(store, engine, nil)
	Workspace = storage.NewWorkspaceManager(t.TempDir(), "workspace.yaml")
	DefaultStrategy = models.DefaultStrategy
	plainOutput = true
	resetCommandFlags()
	return store, Workspace
}

func resetCommandFlags() {
	addTitle, addDue, addHours, addImportance, addDeps = "", "", "", "", ""
	analyzeStrategy, suggestStrategy = "", ""
	exportOut = ""
}

// runCommand calls cmd.RunE with output captured.
func runCommand(cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	defer func() {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
	}()
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

// savedTasks reads the workspace file back.
func savedTasks(t *testing.T, ws storage.WorkspaceManager) *storage.WorkspaceFile {
	t.Helper()
	wf, err := ws.Load()
	if err != nil {
		t.Fatalf("loading workspace: %v", err)
	}
	return wf
}

// scoringEngine serves the analyze and suggest endpoints, labelling every
// task "High" with a score of 1.
func scoringEngine(t *testing.T) *exchange.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tasks []map[string]any
		var strategy string
		switch r.URL.Path {
		case "/tasks/analyze/":
			var body struct {
				Strategy string           `json:"strategy"`
				Tasks    []map[string]any `json:"tasks"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			tasks, strategy = body.Tasks, body.Strategy
		case "/tasks/suggest/":
			strategy = r.URL.Query().Get("strategy")
			if err := json.Unmarshal([]byte(r.URL.Query().Get("tasks")), &tasks); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}

		for _, task := range tasks {
			task["priority_label"] = "High"
			task["score"] = 1
			task["explanation"] = "Scored by test engine."
		}
		field := "tasks"
		if r.URL.Path == "/tasks/suggest/" {
			field = "suggested_tasks"
			if len(tasks) > 1 {
				tasks = tasks[:1]
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"strategy": strategy, field: tasks})
	}))
	t.Cleanup(srv.Close)
	return exchange.NewClient(srv.URL)
}

// stubEngine returns canned results or errors without a server.
type stubEngine struct {
	analyzeRes *exchange.AnalyzeResult
	analyzeErr error
	suggestRes *exchange.SuggestResult
	suggestErr error
}

func (s *stubEngine) Analyze(_ context.Context, _ models.Strategy, _ []models.Task) (*exchange.AnalyzeResult, error) {
	return s.analyzeRes, s.analyzeErr
}

func (s *stubEngine) Suggest(_ context.Context, _ models.Strategy, _ []models.Task) (*exchange.SuggestResult, error) {
	return s.suggestRes, s.suggestErr
}
