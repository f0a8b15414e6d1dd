package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Priority labels assigned by the analysis engine. The client never derives
// them; they only select a badge style.
const (
	LabelHigh   = "high"
	LabelMedium = "medium"
	LabelLow    = "low"
)

// Task is a single record of the working set. Fields populated by the
// analysis engine (PriorityLabel, Score, Explanation) are only present after
// an analyze round-trip.
//
// Extra holds every attribute the client does not model, plus any modelled
// attribute whose value does not fit its Go type. Those values are written
// back unchanged, so records imported from newer engines survive a
// round-trip through the client.
type Task struct {
	ID             string
	Title          string
	DueDate        *string
	EstimatedHours *float64
	Importance     *int
	Dependencies   []string

	PriorityLabel string
	Score         *float64
	Explanation   string

	Extra map[string]json.RawMessage
}

// knownKeys lists modelled attributes in their serialization order.
var knownKeys = []string{
	"id", "title", "due_date", "estimated_hours", "importance", "dependencies",
	"priority_label", "score", "explanation",
}

func isKnownKey(k string) bool {
	for _, known := range knownKeys {
		if k == known {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.EstimatedHours != nil {
		h := *t.EstimatedHours
		c.EstimatedHours = &h
	}
	if t.Importance != nil {
		i := *t.Importance
		c.Importance = &i
	}
	if t.Score != nil {
		s := *t.Score
		c.Score = &s
	}
	if t.Dependencies != nil {
		c.Dependencies = append([]string(nil), t.Dependencies...)
	}
	if t.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(t.Extra))
		for k, v := range t.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

// RawExtra returns the raw JSON kept for key, if any.
func (t Task) RawExtra(key string) (json.RawMessage, bool) {
	v, ok := t.Extra[key]
	return v, ok
}

// MarshalJSON writes modelled attributes first, in a fixed order, followed by
// the extra attributes sorted by key. A modelled key that is also present in
// Extra is written from Extra.
func (t Task) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, v any) error {
		var raw []byte
		if r, ok := t.Extra[key]; ok {
			raw = r
		} else {
			var err error
			raw, err = json.Marshal(v)
			if err != nil {
				return fmt.Errorf("marshaling %s: %w", key, err)
			}
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(raw)
		return nil
	}

	deps := t.Dependencies
	if deps == nil {
		deps = []string{}
	}

	fields := []struct {
		key     string
		value   any
		present bool
	}{
		{"id", t.ID, true},
		{"title", t.Title, true},
		{"due_date", t.DueDate, true},
		{"estimated_hours", t.EstimatedHours, true},
		{"importance", t.Importance, t.Importance != nil},
		{"dependencies", deps, true},
		{"priority_label", t.PriorityLabel, t.PriorityLabel != ""},
		{"score", t.Score, t.Score != nil},
		{"explanation", t.Explanation, t.Explanation != ""},
	}
	for _, f := range fields {
		_, inExtra := t.Extra[f.key]
		if !f.present && !inExtra {
			continue
		}
		if err := write(f.key, f.value); err != nil {
			return nil, err
		}
	}

	extraKeys := make([]string, 0, len(t.Extra))
	for k := range t.Extra {
		if !isKnownKey(k) {
			extraKeys = append(extraKeys, k)
		}
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		if err := write(k, nil); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a task object leniently: attributes that do not fit
// their Go type are kept verbatim in Extra instead of failing the decode.
// Identity assignment and dependency defaults are left to the store.
func (t *Task) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("task must be a JSON object")
	}

	*t = Task{}
	keep := func(key string, raw json.RawMessage) {
		if t.Extra == nil {
			t.Extra = make(map[string]json.RawMessage)
		}
		t.Extra[key] = raw
	}

	for key, raw := range fields {
		switch key {
		case "id":
			id, ok := identityText(raw)
			if !ok {
				keep(key, raw)
				continue
			}
			t.ID = id
		case "title":
			if err := json.Unmarshal(raw, &t.Title); err != nil {
				keep(key, raw)
			}
		case "due_date":
			if isNull(raw) {
				continue
			}
			var d string
			if err := json.Unmarshal(raw, &d); err != nil {
				keep(key, raw)
				continue
			}
			t.DueDate = &d
		case "estimated_hours":
			if isNull(raw) {
				continue
			}
			var h float64
			if err := json.Unmarshal(raw, &h); err != nil {
				keep(key, raw)
				continue
			}
			t.EstimatedHours = &h
		case "importance":
			if isNull(raw) {
				continue
			}
			var i int
			if err := json.Unmarshal(raw, &i); err != nil {
				keep(key, raw)
				continue
			}
			t.Importance = &i
		case "dependencies":
			deps, ok := dependencyList(raw)
			if !ok {
				keep(key, raw)
				continue
			}
			t.Dependencies = deps
		case "priority_label":
			if isNull(raw) {
				continue
			}
			if err := json.Unmarshal(raw, &t.PriorityLabel); err != nil {
				keep(key, raw)
			}
		case "score":
			if isNull(raw) {
				continue
			}
			var s float64
			if err := json.Unmarshal(raw, &s); err != nil {
				keep(key, raw)
				continue
			}
			t.Score = &s
		case "explanation":
			if isNull(raw) {
				continue
			}
			if err := json.Unmarshal(raw, &t.Explanation); err != nil {
				keep(key, raw)
			}
		default:
			keep(key, raw)
		}
	}
	return nil
}

// MarshalYAML encodes the task through its JSON form so the extra attributes
// keep their shape in YAML files.
func (t Task) MarshalYAML() (interface{}, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// UnmarshalYAML decodes a YAML mapping through the JSON decoder.
func (t *Task) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var generic map[string]any
	if err := unmarshal(&generic); err != nil {
		return err
	}
	data, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("re-encoding task: %w", err)
	}
	return t.UnmarshalJSON(data)
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// identityText converts a JSON identity into text. Falsy values (null,
// false, 0, "") yield "" so the caller assigns a fresh id. Objects and arrays
// keep their compact JSON text.
func identityText(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", true
	}
	switch trimmed[0] {
	case 'n', 'f':
		return "", true
	case 't':
		return "true", true
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[':
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return "", false
		}
		return compact.String(), true
	default:
		f, err := strconv.ParseFloat(string(trimmed), 64)
		if err != nil {
			return "", false
		}
		if f == 0 {
			return "", true
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
}

// dependencyList decodes an array of identities. Non-string scalar elements
// are kept in their textual form. A non-array value reports ok=true with an
// empty list, since dependencies are coerced rather than preserved.
func dependencyList(raw json.RawMessage) ([]string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []string{}, true
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	deps := make([]string, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return nil, false
			}
			deps = append(deps, s)
			continue
		}
		if len(item) > 0 && (item[0] == '{' || item[0] == '[') {
			return nil, false
		}
		deps = append(deps, strings.TrimSpace(string(item)))
	}
	return deps, true
}
