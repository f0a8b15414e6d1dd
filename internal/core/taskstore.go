package core

import (
	"sync"

	"github.com/valter-silva-au/prio/pkg/models"
)

// Store owns the working set of tasks and the identity counter. It holds
// exactly one ordered set at a time: bulk import and analyze results replace
// it wholesale, local adds append to it.
//
// After every mutation the counter is greater than the integer value of each
// id in the store, every record has a non-empty id, and every record has a
// non-nil dependency list.
type Store struct {
	mu      sync.Mutex
	tasks   []models.Task
	counter *identityCounter
	version uint64
}

// NewStore returns an empty store whose first identity is "1".
func NewStore() *Store {
	return &Store{counter: newIdentityCounter(1)}
}

// Add validates form input and appends the resulting task. On success the
// task gets the current counter value as its id and the counter advances by
// one. On failure the store is unchanged.
func (s *Store) Add(in TaskInput) (models.Task, error) {
	task, err := ParseTaskInput(in)
	if err != nil {
		return models.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = s.counter.Next()
	s.tasks = append(s.tasks, task)
	s.resyncLocked()
	s.version++
	return task.Clone(), nil
}

// BulkLoad replaces the store with the tasks in raw, a JSON array. Records
// without a truthy id get a fresh one and non-array dependencies become an
// empty list; every other attribute passes through. It returns the number of
// tasks loaded. On failure the store is unchanged.
func (s *Store) BulkLoad(raw string) (int, error) {
	tasks, err := ParseBulkTasks(raw)
	if err != nil {
		return 0, err
	}
	s.Replace(tasks)
	return len(tasks), nil
}

// Replace swaps in a new working set, normalizing each record the same way
// BulkLoad does.
func (s *Store) Replace(tasks []models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(tasks)
}

func (s *Store) replaceLocked(tasks []models.Task) {
	next := make([]models.Task, len(tasks))
	ids := make([]string, 0, len(tasks))
	for i, t := range tasks {
		next[i] = t.Clone()
		if next[i].ID != "" {
			ids = append(ids, next[i].ID)
		}
	}

	// Existing numeric ids raise the counter before fresh ids are handed
	// out, so an assigned id never collides with one later in the payload.
	s.counter.Observe(ids...)
	for i := range next {
		normalizeTask(&next[i], s.counter)
	}

	s.tasks = next
	s.resyncLocked()
	s.version++
}

// Tasks returns a copy of the working set in store order.
func (s *Store) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// Len returns the number of tasks in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// NextID returns the identity the next local add will receive.
func (s *Store) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter.Peek()
}

// Version increases on every mutation. Callers compare versions to detect
// whether the store changed while they were not holding it.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Clear empties the working set. The counter keeps its value.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
	s.version++
}

// Snapshot returns the working set and counter for persistence.
func (s *Store) Snapshot() (nextID int, tasks []models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter.Peek(), cloneTasks(s.tasks)
}

// Restore loads a previously saved snapshot, replacing the working set.
// The counter never drops below nextID nor below what the tasks require.
func (s *Store) Restore(nextID int, tasks []models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if nextID > s.counter.Peek() {
		s.counter = newIdentityCounter(nextID)
	}
	s.replaceLocked(tasks)
}

// view returns the working set together with the version it belongs to.
func (s *Store) view() ([]models.Task, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks), s.version
}

// replaceIfVersion swaps in tasks only when the store is still at version.
// It reports whether the swap happened.
func (s *Store) replaceIfVersion(version uint64, tasks []models.Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return false
	}
	s.replaceLocked(tasks)
	return true
}

// resyncLocked raises the counter above every numeric id in the store.
func (s *Store) resyncLocked() {
	for _, t := range s.tasks {
		s.counter.Observe(t.ID)
	}
}

// normalizeTask assigns a fresh identity when the record has none and makes
// sure dependencies is a list.
func normalizeTask(t *models.Task, counter *identityCounter) {
	if t.ID == "" {
		t.ID = counter.Next()
		delete(t.Extra, "id")
	}
	if t.Dependencies == nil {
		t.Dependencies = []string{}
	}
}

func cloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
