package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrTaskExists     = errors.New("task already exists")
	ErrColumnNotFound = errors.New("column not found")
	ErrInvalidTask    = errors.New("invalid task")
	ErrEmptyPatch     = errors.New("nothing to update")
)

// DefaultPriority is stored when a task is created without one.
const DefaultPriority = "medium"

// Column is one fixed board lane.
type Column struct {
	ID       string
	Title    string
	Position int
}

// Task is a card on the board. CreatedBy is the only account allowed to modify it.
type Task struct {
	ID          string
	ColumnID    string
	Title       string
	Description string
	DueDate     string // YYYY-MM-DD as entered by the client; not parsed
	Assignees   string
	Priority    string
	Tags        []string
	Completed   bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the fields required on create.
func (t *Task) Validate() error {
	switch {
	case strings.TrimSpace(t.ID) == "":
		return errors.Join(ErrInvalidTask, errors.New("id is required"))
	case strings.TrimSpace(t.ColumnID) == "":
		return errors.Join(ErrInvalidTask, errors.New("columnId is required"))
	case strings.TrimSpace(t.Title) == "":
		return errors.Join(ErrInvalidTask, errors.New("title is required"))
	}
	return nil
}

// TaskPatch is a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	ColumnID    *string
	Title       *string
	Description *string
	DueDate     *string
	Assignees   *string
	Priority    *string
	Tags        *[]string
	Completed   *bool
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.ColumnID == nil && p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.Assignees == nil && p.Priority == nil && p.Tags == nil && p.Completed == nil
}

// Apply copies the set fields onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.ColumnID != nil {
		t.ColumnID = *p.ColumnID
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Assignees != nil {
		t.Assignees = *p.Assignees
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}
