package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/valter-silva-au/prio/internal/core"
)

func TestAddCmd_NilSession(t *testing.T) {
	orig := Session
	defer func() { Session = orig }()
	Session = nil

	err := addCmd.RunE(addCmd, []string{})
	if err == nil {
		t.Fatal("expected error when Session is nil")
	}
	if !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAddCmd_Success(t *testing.T) {
	_, ws := setupCLI(t, &stubEngine{})
	addTitle = "Write docs"
	addImportance = "5"
	addHours = "2"
	addDeps = " 3, ,4 "

	out, err := runCommand(addCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Task added.") {
		t.Errorf("output missing confirmation:\n%s", out)
	}
	if !strings.Contains(out, "1 • Write docs") {
		t.Errorf("output missing card:\n%s", out)
	}

	wf := savedTasks(t, ws)
	if len(wf.Tasks) != 1 {
		t.Fatalf("saved %d tasks, want 1", len(wf.Tasks))
	}
	if wf.NextID != 2 {
		t.Errorf("NextID = %d, want 2", wf.NextID)
	}
	if got := strings.Join(wf.Tasks[0].Dependencies, ","); got != "3,4" {
		t.Errorf("Dependencies = %q, want 3,4", got)
	}
}

func TestAddCmd_IdentitiesContinueAcrossInvocations(t *testing.T) {
	_, ws := setupCLI(t, &stubEngine{})

	for _, title := range []string{"A", "B", "C"} {
		addTitle, addImportance = title, "3"
		if _, err := runCommand(addCmd); err != nil {
			t.Fatalf("adding %s: %v", title, err)
		}
	}

	wf := savedTasks(t, ws)
	for i, want := range []string{"1", "2", "3"} {
		if wf.Tasks[i].ID != want {
			t.Errorf("task %d id = %q, want %q", i, wf.Tasks[i].ID, want)
		}
	}
}

func TestAddCmd_ValidationFailureLeavesWorkspace(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		importance string
		hours      string
		want       error
	}{
		{"missing title", "  ", "5", "", core.ErrTitleRequired},
		{"importance too high", "T", "11", "", core.ErrImportanceRange},
		{"importance zero", "T", "0", "", core.ErrImportanceRange},
		{"bad hours", "T", "5", "abc", core.ErrEstimatedHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ws := setupCLI(t, &stubEngine{})
			addTitle, addImportance, addHours = tt.title, tt.importance, tt.hours

			_, err := runCommand(addCmd)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if wf := savedTasks(t, ws); len(wf.Tasks) != 0 {
				t.Errorf("workspace has %d tasks after rejected add", len(wf.Tasks))
			}
		})
	}
}
