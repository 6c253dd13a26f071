package tasks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

type TaskType string

const (
	TaskTypeProcessSource    TaskType = "process_source"
	TaskTypeReclassifySource TaskType = "reclassify_source"
	TaskTypeSyncSourceConfig TaskType = "sync_source_config"
)

const (
	DefaultMaxRetries = 3
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetSourceName() string
	GetRetryCount() int
	GetMaxRetries() int
	IncrementRetryCount()
	CanRetry() bool
	RetryDelay() time.Duration
	Start()
	GetDuration() time.Duration
}

// Task carries the bookkeeping shared by every task type. Concrete tasks
// embed it and add Execute.
type Task struct {
	ID         string
	Type       TaskType
	SourceName string
	RetryCount int
	MaxRetries int
	EnqueuedAt time.Time
	StartedAt  *time.Time
}

func NewTask(taskType TaskType, sourceName string) Task {
	now := time.Now()

	return Task{
		ID:         fmt.Sprintf("%s-%s-%d-%04d", taskType, sourceName, now.UnixNano(), rand.IntN(10000)),
		Type:       taskType,
		SourceName: sourceName,
		MaxRetries: DefaultMaxRetries,
		EnqueuedAt: now,
	}
}

func (t *Task) GetID() string         { return t.ID }
func (t *Task) GetType() TaskType     { return t.Type }
func (t *Task) GetSourceName() string { return t.SourceName }
func (t *Task) GetRetryCount() int    { return t.RetryCount }
func (t *Task) GetMaxRetries() int    { return t.MaxRetries }

func (t *Task) IncrementRetryCount() {
	t.RetryCount++
}

func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

// RetryDelay doubles from one second with each retry, capped at maxRetryDelay.
func (t *Task) RetryDelay() time.Duration {
	return retryDelay(t.RetryCount)
}

// Start marks the beginning of an attempt; GetDuration measures the current one.
func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func retryDelay(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	if retryCount > 6 {
		return maxRetryDelay
	}
	delay := time.Duration(1<<uint(retryCount-1)) * time.Second
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
