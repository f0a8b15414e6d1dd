package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/valter-silva-au/prio/internal/exchange"
	"github.com/valter-silva-au/prio/pkg/models"
	"pgregory.net/rapid"
)

// echoEngine scores every task it receives and keeps the last response body
// it sent.
type echoEngine struct {
	mu   sync.Mutex
	last []byte
}

func (e *echoEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Strategy string           `json:"strategy"`
		Tasks    []map[string]any `json:"tasks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad body"}`, http.StatusBadRequest)
		return
	}
	for i, task := range req.Tasks {
		task["priority_label"] = "medium"
		task["score"] = float64(len(req.Tasks)-i) / 10
		task["explanation"] = "Scored by position."
	}

	body, err := json.Marshal(map[string]any{"strategy": req.Strategy, "tasks": req.Tasks})
	if err != nil {
		http.Error(w, `{"error":"encode"}`, http.StatusInternalServerError)
		return
	}
	e.mu.Lock()
	e.last = body
	e.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (e *echoEngine) lastTasks(t *rapid.T) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var body map[string]json.RawMessage
	if err := json.Unmarshal(e.last, &body); err != nil {
		t.Fatalf("decoding engine response: %v", err)
	}
	return string(body["tasks"])
}

// Importing N records, analyzing them and importing the engine's raw tasks
// array into a fresh store yields N records with the same identities in the
// same order.
func TestProperty_AnalyzeResponseReimports(t *testing.T) {
	engine := &echoEngine{}
	srv := httptest.NewServer(engine)
	defer srv.Close()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 15).Draw(rt, "n")
		records := make([]map[string]any, n)
		for i := range records {
			rec := map[string]any{
				"title":      rapid.StringMatching(`[A-Za-z]{1,12}`).Draw(rt, "title"),
				"importance": rapid.IntRange(1, 10).Draw(rt, "importance"),
			}
			if rapid.Bool().Draw(rt, "hasID") {
				rec["id"] = strconv.Itoa(rapid.IntRange(1, 500).Draw(rt, "id"))
			}
			if rapid.Bool().Draw(rt, "hasHours") {
				rec["estimated_hours"] = rapid.IntRange(0, 40).Draw(rt, "hours")
			}
			records[i] = rec
		}
		raw, err := json.Marshal(records)
		if err != nil {
			rt.Fatalf("Marshal failed: %v", err)
		}

		store := NewStore()
		if _, err := store.BulkLoad(string(raw)); err != nil {
			rt.Fatalf("BulkLoad failed: %v", err)
		}
		sess := NewSession(store, exchange.NewClient(srv.URL), nil)

		res, err := sess.Analyze(context.Background(), models.DefaultStrategy)
		if err != nil {
			rt.Fatalf("Analyze failed: %v", err)
		}
		if len(res.Tasks) != n {
			rt.Fatalf("analyzed %d tasks, want %d", len(res.Tasks), n)
		}

		fresh := NewStore()
		count, err := fresh.BulkLoad(engine.lastTasks(rt))
		if err != nil {
			rt.Fatalf("re-import failed: %v", err)
		}
		if count != n {
			rt.Fatalf("re-imported %d tasks, want %d", count, n)
		}
		for i, task := range fresh.Tasks() {
			if task.ID != res.Tasks[i].ID {
				rt.Fatalf("task %d id = %q, want %q", i, task.ID, res.Tasks[i].ID)
			}
			if task.PriorityLabel != "medium" || task.Score == nil {
				rt.Fatalf("task %d lost its analysis: %+v", i, task)
			}
		}
	})
}
