package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/prio/internal/core"
	"github.com/valter-silva-au/prio/internal/storage"
	"github.com/valter-silva-au/prio/pkg/models"
)

// openWorkspace restores the saved working set into the session store.
func openWorkspace() (*core.Store, error) {
	if Session == nil {
		return nil, fmt.Errorf("session not initialized")
	}
	store := Session.Store()
	if Workspace == nil {
		return store, nil
	}
	wf, err := Workspace.Load()
	if err != nil {
		return nil, err
	}
	store.Restore(wf.NextID, wf.Tasks)
	return store, nil
}

// saveWorkspace writes the session store back to the workspace file.
func saveWorkspace(store *core.Store) error {
	if Workspace == nil {
		return nil
	}
	nextID, tasks := store.Snapshot()
	return Workspace.Save(nextID, tasks)
}

// updateWorkspace restores the saved working set, runs fn against the
// session store and saves the result. The workspace stays locked from load
// to save so concurrent commands see each other's changes. Nothing is saved
// when fn fails.
func updateWorkspace(fn func(store *core.Store) error) error {
	if Session == nil {
		return fmt.Errorf("session not initialized")
	}
	store := Session.Store()
	if Workspace == nil {
		return fn(store)
	}
	return Workspace.Update(func(wf *storage.WorkspaceFile) (*storage.WorkspaceFile, error) {
		store.Restore(wf.NextID, wf.Tasks)
		if err := fn(store); err != nil {
			return nil, err
		}
		nextID, tasks := store.Snapshot()
		return &storage.WorkspaceFile{NextID: nextID, Tasks: tasks}, nil
	})
}

// resolveStrategy returns the configured default for an empty flag value.
func resolveStrategy(raw string) (models.Strategy, error) {
	if raw == "" {
		return DefaultStrategy, nil
	}
	return models.ParseStrategy(raw)
}

// commandContext returns the command's context, or a background context when
// the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
