package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TaskStatus represents the kanban column of a task
type TaskStatus string

const (
	StatusTodo   TaskStatus = "todo"
	StatusDoing  TaskStatus = "doing"
	StatusVerify TaskStatus = "verify"
	StatusDone   TaskStatus = "done"
)

// Statuses lists the kanban columns in display order.
var Statuses = []TaskStatus{StatusTodo, StatusDoing, StatusVerify, StatusDone}

// ParseTaskStatus decodes a status name. Legacy "backlog" decodes to todo.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "backlog":
		return StatusTodo, nil
	case "doing":
		return StatusDoing, nil
	case "verify":
		return StatusVerify, nil
	case "done":
		return StatusDone, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// RequiresDueDate reports whether tasks in this column must carry a due date.
func (s TaskStatus) RequiresDueDate() bool {
	return s == StatusTodo || s == StatusDoing
}

func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTaskStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Scan decodes a stored status; rows written by older versions with
// unknown names fall back to todo.
func (s *TaskStatus) Scan(value any) error {
	raw, err := scanString(value)
	if err != nil {
		return err
	}
	parsed, err := ParseTaskStatus(raw)
	if err != nil {
		parsed = StatusTodo
	}
	*s = parsed
	return nil
}

func (s TaskStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	PriorityUrgent TaskPriority = "urgent"
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// ParseTaskPriority accepts both names and the short codes p0..p3.
func ParseTaskPriority(s string) (TaskPriority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "urgent", "p0":
		return PriorityUrgent, nil
	case "high", "p1":
		return PriorityHigh, nil
	case "medium", "p2":
		return PriorityMedium, nil
	case "low", "p3":
		return PriorityLow, nil
	}
	return "", fmt.Errorf("unknown task priority %q", s)
}

// Code returns the short form written to note front-matter.
func (p TaskPriority) Code() string {
	switch p {
	case PriorityUrgent:
		return "p0"
	case PriorityHigh:
		return "p1"
	case PriorityMedium:
		return "p2"
	}
	return "p3"
}

func (p *TaskPriority) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTaskPriority(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p *TaskPriority) Scan(value any) error {
	raw, err := scanString(value)
	if err != nil {
		return err
	}
	parsed, err := ParseTaskPriority(raw)
	if err != nil {
		parsed = PriorityLow
	}
	*p = parsed
	return nil
}

func (p TaskPriority) Value() (driver.Value, error) {
	return string(p), nil
}

func scanString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("cannot scan %T into string enum", value)
}

// Subtask is a checklist item embedded in a task
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Periodicity is a recurrence rule; occurrences are synthesized at read time.
type Periodicity struct {
	Strategy  string  `json:"strategy"` // day, week, month, year
	Interval  int     `json:"interval"`
	StartDate string  `json:"start_date"`
	EndRule   string  `json:"end_rule"` // never, date, count
	EndDate   *string `json:"end_date,omitempty"`
	EndCount  *int    `json:"end_count,omitempty"`
}

// Task represents a task in the system
type Task struct {
	ID             string        `json:"id" gorm:"primaryKey"`
	Title          string        `json:"title" gorm:"not null"`
	Description    *string       `json:"description"`
	Status         TaskStatus    `json:"status" gorm:"not null;default:'todo';index:idx_tasks_status_order,priority:1"`
	Priority       *TaskPriority `json:"priority"`
	Tags           []string      `json:"tags" gorm:"serializer:json"`
	Labels         []string      `json:"labels" gorm:"-"`
	Subtasks       []Subtask     `json:"subtasks" gorm:"serializer:json"`
	Periodicity    *Periodicity  `json:"periodicity" gorm:"serializer:json"`
	OrderIndex     int64         `json:"order_index" gorm:"not null;default:0;index:idx_tasks_status_order,priority:2"`
	EstimateMin    *int64        `json:"estimate_min"`
	ScheduledStart *string       `json:"scheduled_start" gorm:"index"`
	ScheduledEnd   *string       `json:"scheduled_end"`
	DueDate        *string       `json:"due_date"`
	BoardID        *string       `json:"board_id"`
	NotePath       *string       `json:"note_path"`
	TaskDirSlug    *string       `json:"task_dir_slug" gorm:"uniqueIndex:idx_tasks_task_dir_slug_unique"`
	MdRelPath      *string       `json:"md_rel_path"`
	CreatedAt      time.Time     `json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt      time.Time     `json:"updated_at" gorm:"autoUpdateTime:false"`
	CompletedAt    *time.Time    `json:"completed_at"`
	Archived       bool          `json:"archived" gorm:"not null;default:false"`
}

// TableName specifies the table name for Task Model
func (Task) TableName() string {
	return "tasks"
}

// HasDueDate reports whether the task carries a non-blank due date.
func (t *Task) HasDueDate() bool {
	return t.DueDate != nil && strings.TrimSpace(*t.DueDate) != ""
}

// KanbanTasks groups tasks by status column
type KanbanTasks struct {
	Todo   []Task `json:"todo"`
	Doing  []Task `json:"doing"`
	Verify []Task `json:"verify"`
	Done   []Task `json:"done"`
}

// TodayData is the aggregate served to the home view
type TodayData struct {
	Kanban       KanbanTasks `json:"kanban"`
	Timeline     []Task      `json:"timeline"`
	CurrentDoing *Task       `json:"current_doing"`
	CurrentTimer *Timer      `json:"current_timer"`
	Today        string      `json:"today"`
	ServerNow    string      `json:"server_now"`
}

// CreateTaskInput is the request to create a task
type CreateTaskInput struct {
	Title          string        `json:"title"`
	Description    *string       `json:"description"`
	Status         TaskStatus    `json:"status"`
	Priority       *TaskPriority `json:"priority"`
	DueDate        *string       `json:"due_date"`
	BoardID        *string       `json:"board_id"`
	EstimateMin    *int64        `json:"estimate_min"`
	Tags           []string      `json:"tags"`
	Labels         []string      `json:"labels"`
	Subtasks       []Subtask     `json:"subtasks"`
	Periodicity    *Periodicity  `json:"periodicity"`
	ScheduledStart *string       `json:"scheduled_start"`
	ScheduledEnd   *string       `json:"scheduled_end"`
	NotePath       *string       `json:"note_path"`
}

// OptionalString distinguishes an absent JSON field from an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

// Some returns a set OptionalString holding v.
func Some(v string) OptionalString {
	return OptionalString{Set: true, Value: &v}
}

// Null returns a set OptionalString that clears the field.
func Null() OptionalString {
	return OptionalString{Set: true}
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// UpdateTaskInput is a merge patch; nil fields are left unchanged.
type UpdateTaskInput struct {
	ID             string         `json:"id"`
	Title          *string        `json:"title"`
	Description    *string        `json:"description"`
	Status         *TaskStatus    `json:"status"`
	Priority       *TaskPriority  `json:"priority"`
	Tags           []string       `json:"tags"`
	Labels         []string       `json:"labels"`
	Subtasks       []Subtask      `json:"subtasks"`
	Periodicity    *Periodicity   `json:"periodicity"`
	DueDate        OptionalString `json:"due_date"`
	BoardID        *string        `json:"board_id"`
	OrderIndex     *int64         `json:"order_index"`
	EstimateMin    *int64         `json:"estimate_min"`
	ScheduledStart *string        `json:"scheduled_start"`
	ScheduledEnd   *string        `json:"scheduled_end"`
	NotePath       *string        `json:"note_path"`
	Archived       *bool          `json:"archived"`
}

// ReorderTaskInput moves one task to a position, optionally in another column.
type ReorderTaskInput struct {
	ID         string      `json:"id"`
	Status     *TaskStatus `json:"status"`
	OrderIndex int64       `json:"order_index"`
}
