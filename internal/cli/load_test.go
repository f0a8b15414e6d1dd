package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/prio/internal/core"
)

func TestLoadCmd_FromFile(t *testing.T) {
	_, ws := setupCLI(t, &stubEngine{})
	path := filepath.Join(t.TempDir(), "tasks.json")
	data := `[{"id":"7","title":"Seven","importance":5},{"title":"Fresh","importance":2,"owner":"sam"}]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(loadCmd, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Loaded 2 task(s) from JSON.") {
		t.Errorf("output = %q", out)
	}

	wf := savedTasks(t, ws)
	if len(wf.Tasks) != 2 {
		t.Fatalf("saved %d tasks, want 2", len(wf.Tasks))
	}
	if wf.Tasks[1].ID != "8" {
		t.Errorf("fresh id = %q, want 8", wf.Tasks[1].ID)
	}
	if raw, ok := wf.Tasks[1].RawExtra("owner"); !ok || string(raw) != `"sam"` {
		t.Errorf("owner extra = %s, %v", raw, ok)
	}
}

func TestLoadCmd_FromStdinThenAdd(t *testing.T) {
	_, ws := setupCLI(t, &stubEngine{})
	loadCmd.SetIn(strings.NewReader(`[{"id":"7","title":"A","importance":5}]`))
	defer loadCmd.SetIn(nil)

	if _, err := runCommand(loadCmd, "-"); err != nil {
		t.Fatalf("load: %v", err)
	}

	addTitle, addImportance = "Next", "4"
	if _, err := runCommand(addCmd); err != nil {
		t.Fatalf("add: %v", err)
	}

	wf := savedTasks(t, ws)
	if len(wf.Tasks) != 2 || wf.Tasks[1].ID != "8" {
		t.Errorf("tasks after load+add = %+v, want second id 8", wf.Tasks)
	}
}

func TestLoadCmd_InvalidInputLeavesWorkspace(t *testing.T) {
	for _, raw := range []string{"not json", "{}", "   "} {
		t.Run(raw, func(t *testing.T) {
			store, ws := setupCLI(t, &stubEngine{})
			if _, err := store.Add(core.TaskInput{Title: "Keep", Importance: "5"}); err != nil {
				t.Fatal(err)
			}
			nextID, tasks := store.Snapshot()
			if err := ws.Save(nextID, tasks); err != nil {
				t.Fatal(err)
			}

			loadCmd.SetIn(strings.NewReader(raw))
			defer loadCmd.SetIn(nil)

			_, err := runCommand(loadCmd, "-")
			if !errors.Is(err, core.ErrInvalidImport) {
				t.Fatalf("error = %v, want invalid import", err)
			}
			wf := savedTasks(t, ws)
			if len(wf.Tasks) != 1 || wf.Tasks[0].Title != "Keep" {
				t.Errorf("workspace changed after rejected load: %+v", wf.Tasks)
			}
		})
	}
}

func TestLoadCmd_MissingFile(t *testing.T) {
	setupCLI(t, &stubEngine{})

	_, err := runCommand(loadCmd, filepath.Join(t.TempDir(), "missing.json"))
	if err == nil || !strings.Contains(err.Error(), "reading tasks") {
		t.Errorf("error = %v, want reading tasks failure", err)
	}
}
