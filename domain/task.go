package domain

import (
	"strings"
	"time"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

// ParsePriority accepts any casing and returns the canonical value.
func ParsePriority(raw string) (TaskPriority, bool) {
	switch p := TaskPriority(strings.ToUpper(strings.TrimSpace(raw))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	default:
		return "", false
	}
}

// Rank orders priorities so that HIGH sorts first when descending.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

type TaskStatus string

const (
	StatusPending   TaskStatus = "PENDING"
	StatusCompleted TaskStatus = "COMPLETED"
)

func ParseStatus(raw string) (TaskStatus, bool) {
	switch s := TaskStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusPending, StatusCompleted:
		return s, true
	default:
		return "", false
	}
}

// Task represents a user-owned to-do item.
type Task struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// OwnedBy reports whether the given user may read or mutate the task.
func (t *Task) OwnedBy(userID string) bool {
	return t != nil && userID != "" && t.UserID == userID
}

// Toggle flips the completion state. CompletedAt is set exactly when the task is COMPLETED.
func (t *Task) Toggle(now time.Time) {
	if t.Status == StatusCompleted {
		t.Status = StatusPending
		t.CompletedAt = nil
		return
	}
	t.Status = StatusCompleted
	completed := now
	t.CompletedAt = &completed
}

// TaskStats aggregates counts over one owner's tasks.
type TaskStats struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	Pending      int `json:"pending"`
	HighPriority int `json:"highPriority"`
}
