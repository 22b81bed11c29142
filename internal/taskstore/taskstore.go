// Package taskstore tracks asynchronous agent runs behind the REST API.
//
// Entries live in a bounded LRU with a TTL so an abandoned poll loop cannot
// grow the store without limit; a finished task that is never fetched simply
// ages out.
package taskstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Task statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Task is one tracked agent run.
type Task struct {
	ID        string    `json:"task_id"`
	Status    string    `json:"status"`
	Prompt    string    `json:"prompt,omitempty"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a bounded, TTL-evicting task registry. Safe for concurrent use.
type Store struct {
	tasks *expirable.LRU[string, Task]
	now   func() time.Time
}

// New creates a store holding at most capacity tasks, each evicted ttl after
// its last write.
func New(capacity int, ttl time.Duration) *Store {
	return &Store{
		tasks: expirable.NewLRU[string, Task](capacity, nil, ttl),
		now:   time.Now,
	}
}

// Create registers a new running task and returns it.
func (s *Store) Create(prompt string) Task {
	now := s.now()
	task := Task{
		ID:        uuid.NewString(),
		Status:    StatusRunning,
		Prompt:    prompt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.tasks.Add(task.ID, task)
	return task
}

// Get returns the task by id.
func (s *Store) Get(id string) (Task, bool) {
	return s.tasks.Get(id)
}

// Complete marks the task as finished with a result. Unknown ids are ignored;
// the task may already have been evicted.
func (s *Store) Complete(id, result string) {
	s.update(id, func(t *Task) {
		t.Status = StatusCompleted
		t.Result = result
	})
}

// Fail marks the task as failed with an error message.
func (s *Store) Fail(id, errMsg string) {
	s.update(id, func(t *Task) {
		t.Status = StatusFailed
		t.Error = errMsg
	})
}

// Len returns the number of live tasks.
func (s *Store) Len() int {
	return s.tasks.Len()
}

func (s *Store) update(id string, mutate func(*Task)) {
	task, ok := s.tasks.Get(id)
	if !ok {
		return
	}
	mutate(&task)
	task.UpdatedAt = s.now()
	s.tasks.Add(id, task)
}
