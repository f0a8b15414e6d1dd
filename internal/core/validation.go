package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/valter-silva-au/prio/pkg/models"
)

// Importance bounds accepted by the task form.
const (
	MinImportance = 1
	MaxImportance = 10
)

// Validation errors reported by Store.Add. The store is left unchanged
// whenever one of these is returned.
var (
	ErrTitleRequired   = errors.New("title is required")
	ErrImportanceRange = fmt.Errorf("importance must be between %d and %d", MinImportance, MaxImportance)
	ErrEstimatedHours  = errors.New("estimated hours must be a non-negative number")
)

// ErrInvalidImport matches every bulk import failure via errors.Is.
var ErrInvalidImport = errors.New("invalid input")

// ImportErrorKind distinguishes why bulk import text was rejected.
type ImportErrorKind string

const (
	ImportEmpty    ImportErrorKind = "empty"
	ImportSyntax   ImportErrorKind = "syntax"
	ImportNotArray ImportErrorKind = "not_array"
)

// ImportError reports rejected bulk import text. All kinds are surfaced
// uniformly as invalid input.
type ImportError struct {
	Kind ImportErrorKind
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidImport, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

func (e *ImportError) Is(target error) bool { return target == ErrInvalidImport }

// TaskInput carries the raw text of the task form. Every field is text, as
// typed by the user; ParseTaskInput turns it into a record.
type TaskInput struct {
	Title          string
	DueDate        string
	EstimatedHours string
	Importance     string
	Dependencies   string
}

// ParseTaskInput validates form text and builds a task without an identity.
// Checks run in order and stop at the first violation: title, importance,
// estimated hours. Dependencies never fail.
func ParseTaskInput(in TaskInput) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, ErrTitleRequired
	}

	importance, err := strconv.Atoi(strings.TrimSpace(in.Importance))
	if err != nil || importance < MinImportance || importance > MaxImportance {
		return models.Task{}, ErrImportanceRange
	}

	var hours *float64
	if raw := strings.TrimSpace(in.EstimatedHours); raw != "" {
		h, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
			return models.Task{}, ErrEstimatedHours
		}
		hours = &h
	}

	var due *string
	if d := strings.TrimSpace(in.DueDate); d != "" {
		due = &d
	}

	return models.Task{
		Title:          title,
		DueDate:        due,
		EstimatedHours: hours,
		Importance:     &importance,
		Dependencies:   SplitDependencies(in.Dependencies),
	}, nil
}

// SplitDependencies splits comma-separated identities, trimming each one and
// dropping empty segments. Order and duplicates are preserved.
func SplitDependencies(s string) []string {
	deps := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			deps = append(deps, part)
		}
	}
	return deps
}

// ParseBulkTasks decodes bulk import text into raw task records. The text
// must be non-empty, valid JSON and a JSON array. Array elements that are not
// objects become empty records.
func ParseBulkTasks(raw string) ([]models.Task, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 {
		return nil, &ImportError{Kind: ImportEmpty, Err: errors.New("paste a JSON array first")}
	}

	var doc any
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, &ImportError{Kind: ImportSyntax, Err: err}
	}
	if _, ok := doc.([]any); !ok {
		return nil, &ImportError{Kind: ImportNotArray, Err: errors.New("JSON must be an array of tasks")}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, &ImportError{Kind: ImportSyntax, Err: err}
	}

	tasks := make([]models.Task, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		if err := json.Unmarshal(item, &tasks[i]); err != nil {
			return nil, &ImportError{Kind: ImportSyntax, Err: fmt.Errorf("task %d: %w", i, err)}
		}
	}
	return tasks, nil
}
