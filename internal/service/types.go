// Package service implements task operations on top of the Apper backend.
package service

import (
	"errors"

	"flowtrack/internal/filefield"
)

// TableName is the backend table holding tasks.
const TableName = "task_c"

// PageSize is the maximum number of tasks GetAll returns.
const PageSize = 100

// Task column names.
const (
	FieldID          = "Id"
	FieldTitle       = "title_c"
	FieldDescription = "description_c"
	FieldPriority    = "priority_c"
	FieldStatus      = "status_c"
	FieldCreatedAt   = "createdAt_c"
	FieldCompletedAt = "completedAt_c"
	FieldAttachments = "attachments_c"
)

// Status values.
const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task represents a single task record.
type Task struct {
	ID          int              `json:"Id"`
	Title       string           `json:"title_c,omitempty"`
	Description string           `json:"description_c,omitempty"`
	Priority    string           `json:"priority_c,omitempty"`
	Status      string           `json:"status_c,omitempty"`
	CreatedAt   string           `json:"createdAt_c,omitempty"`
	CompletedAt string           `json:"completedAt_c,omitempty"`
	Attachments []filefield.File `json:"attachments_c,omitempty"`
}

// Payload carries task attributes for Create and Update. Keys may use the
// legacy names (title, status, ...) or the column names (title_c, ...).
type Payload map[string]any

// attribute pairs a legacy payload key with its column.
type attribute struct {
	legacy string
	column string
}

var attributes = []attribute{
	{"title", FieldTitle},
	{"description", FieldDescription},
	{"priority", FieldPriority},
	{"status", FieldStatus},
	{"createdAt", FieldCreatedAt},
	{"completedAt", FieldCompletedAt},
	{"attachments", FieldAttachments},
}

// fetchFields lists the columns every read asks for.
var fetchFields = []string{
	FieldID,
	FieldTitle,
	FieldDescription,
	FieldPriority,
	FieldStatus,
	FieldCreatedAt,
	FieldCompletedAt,
	FieldAttachments,
}

var (
	// ErrClientUnavailable is returned when no backend client is configured.
	ErrClientUnavailable = errors.New("ApperClient not initialized")

	// ErrNotCreated is returned when the backend created no record.
	ErrNotCreated = errors.New("no records created")

	// ErrNotUpdated is returned when the backend updated no record.
	ErrNotUpdated = errors.New("no records updated")
)

// BackendError is a failure reported by the backend in its response.
type BackendError struct {
	Op      string
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return e.Op + " failed"
	}
	return e.Message
}

// ValidStatus reports whether s is a known status.
func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
