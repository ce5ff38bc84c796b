package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stonks-manager/internal/model"
	"stonks-manager/pkg/cache"
)

// ErrTaskNotFound is returned for task ids that were never created or whose
// TTL has passed. Distinct from a task whose status is "failed".
var ErrTaskNotFound = errors.New("task not found")

// TaskStore keeps Task records under `task:{task_id}` with a TTL. Expiry is
// the only deletion mechanism; an expired task is indistinguishable from one
// that never existed.
type TaskStore interface {
	Save(task *model.Task) error
	Get(taskID string) (*model.Task, error)
}

type taskStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewTaskStore(c cache.Cache, ttl time.Duration) TaskStore {
	return &taskStore{cache: c, ttl: ttl}
}

func taskKey(taskID string) string {
	return "task:" + taskID
}

// Save serializes the record before storing so later mutations of the caller's
// struct never leak into the store. Each Save resets the TTL.
func (s *taskStore) Save(task *model.Task) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to serialize task %s: %w", task.TaskID, err)
	}
	s.cache.Set(taskKey(task.TaskID), raw, s.ttl)
	return nil
}

func (s *taskStore) Get(taskID string) (*model.Task, error) {
	raw, ok := cache.GetTyped[[]byte](s.cache, taskKey(taskID))
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrTaskNotFound)
	}
	var task model.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, fmt.Errorf("failed to deserialize task %s: %w", taskID, err)
	}
	return &task, nil
}
