// Package storage persists the working set between prio invocations.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/prio/pkg/models"
	"gopkg.in/yaml.v3"
)

// workspaceVersion is written to every saved workspace file.
const workspaceVersion = "1.0"

// WorkspaceFile represents the top-level structure of the workspace file.
type WorkspaceFile struct {
	Version string        `yaml:"version"`
	NextID  int           `yaml:"next_id"`
	Tasks   []models.Task `yaml:"tasks"`
}

// WorkspaceManager loads and saves the working set snapshot used by one-shot
// commands.
type WorkspaceManager interface {
	Load() (*WorkspaceFile, error)
	Save(nextID int, tasks []models.Task) error
	Update(fn func(current *WorkspaceFile) (*WorkspaceFile, error)) error
	Path() string
}

type fileWorkspaceManager struct {
	path string
}

// NewWorkspaceManager creates a WorkspaceManager backed by the YAML file at
// path. A relative path is resolved against basePath.
func NewWorkspaceManager(basePath, path string) WorkspaceManager {
	if !filepath.IsAbs(path) {
		path = filepath.Join(basePath, path)
	}
	return &fileWorkspaceManager{path: path}
}

func (m *fileWorkspaceManager) Path() string {
	return m.path
}

// Load reads the workspace file. A missing file yields an empty workspace
// whose next identity is 1.
func (m *fileWorkspaceManager) Load() (*WorkspaceFile, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &WorkspaceFile{Version: workspaceVersion, NextID: 1}, nil
		}
		return nil, fmt.Errorf("loading workspace: %w", err)
	}

	var wf WorkspaceFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("loading workspace: parsing YAML: %w", err)
	}
	if wf.NextID < 1 {
		wf.NextID = 1
	}
	return &wf, nil
}

// Save writes the snapshot, replacing any previous file. Writers are
// serialized through a lock file next to the workspace.
func (m *fileWorkspaceManager) Save(nextID int, tasks []models.Task) error {
	unlock, err := m.lock()
	if err != nil {
		return fmt.Errorf("saving workspace: %w", err)
	}
	defer func() { _ = unlock() }()

	return m.write(nextID, tasks)
}

// Update loads the workspace, hands it to fn and saves what fn returns, all
// under the workspace lock. An error from fn is returned as is and nothing
// is written; a nil result also leaves the file untouched.
func (m *fileWorkspaceManager) Update(fn func(current *WorkspaceFile) (*WorkspaceFile, error)) error {
	unlock, err := m.lock()
	if err != nil {
		return fmt.Errorf("updating workspace: %w", err)
	}
	defer func() { _ = unlock() }()

	current, err := m.Load()
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	return m.write(next.NextID, next.Tasks)
}

func (m *fileWorkspaceManager) lock() (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o750); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	return lockFile(m.path + ".lock")
}

// write replaces the workspace file through a temporary file. Callers hold
// the lock.
func (m *fileWorkspaceManager) write(nextID int, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := yaml.Marshal(&WorkspaceFile{
		Version: workspaceVersion,
		NextID:  nextID,
		Tasks:   tasks,
	})
	if err != nil {
		return fmt.Errorf("saving workspace: marshaling YAML: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("saving workspace: writing file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("saving workspace: replacing file: %w", err)
	}
	return nil
}
