package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
	TaskStatusOverdue    TaskStatus = "overdue"
)

// Valid reports whether s is a known task status
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled, TaskStatusOverdue:
		return true
	}
	return false
}

// Recurrence is how often a task repeats
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// Task is a follow-up item on a client's case
type Task struct {
	ID                       uuid.UUID  `json:"id" db:"id"`
	Title                    string     `json:"title" db:"title"`
	Description              string     `json:"description,omitempty" db:"description"`
	ClientID                 *uuid.UUID `json:"client_id,omitempty" db:"client_id"`
	AssignedTo               string     `json:"assigned_to,omitempty" db:"assigned_to"`
	DueDate                  *time.Time `json:"due_date,omitempty" db:"due_date"`
	StartTime                *time.Time `json:"start_time,omitempty" db:"start_time"`
	EndTime                  *time.Time `json:"end_time,omitempty" db:"end_time"`
	Priority                 Priority   `json:"priority" db:"priority"`
	Status                   TaskStatus `json:"status" db:"status"`
	Recurrence               Recurrence `json:"recurrence" db:"recurrence"`
	Tags                     []string   `json:"tags" db:"tags"`
	Location                 string     `json:"location,omitempty" db:"location"`
	Notes                    string     `json:"notes,omitempty" db:"notes"`
	EstimatedDurationMinutes *int       `json:"estimated_duration_minutes,omitempty" db:"estimated_duration_minutes"`
	CalendarEventID          string     `json:"calendar_event_id,omitempty" db:"calendar_event_id"`
	CreatedBy                string     `json:"created_by" db:"created_by"`
	CompletedAt              *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt                time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Task model
func (Task) TableName() string {
	return "tasks"
}

// NewTask creates a pending task
func NewTask(title, createdBy string) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:         uuid.New(),
		Title:      strings.TrimSpace(title),
		Priority:   PriorityMedium,
		Status:     TaskStatusPending,
		Recurrence: RecurrenceNone,
		Tags:       []string{},
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsClosed returns true for completed or cancelled tasks
func (t *Task) IsClosed() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusCancelled
}

// IsOverdue reports whether an open task is past its due date at now
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.IsClosed() {
		return false
	}
	return now.After(*t.DueDate)
}

// Complete marks the task completed at now
func (t *Task) Complete(now time.Time) {
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
}

// CalendarTime is either a timed or an all-day calendar boundary
type CalendarTime struct {
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
	Date     string `json:"date,omitempty"`
}

// CalendarEvent is the calendar export shape of a task
type CalendarEvent struct {
	Summary     string        `json:"summary"`
	Description string        `json:"description"`
	Location    string        `json:"location"`
	Start       *CalendarTime `json:"start,omitempty"`
	End         *CalendarTime `json:"end,omitempty"`
	ColorID     string        `json:"colorId"`
	Recurrence  []string      `json:"recurrence,omitempty"`
}

var priorityColors = map[Priority]string{
	PriorityLow:    "2",
	PriorityMedium: "5",
	PriorityHigh:   "6",
	PriorityUrgent: "11",
}

// ToCalendarEvent converts the task into a calendar event. Timed tasks use
// their start and end in UTC; tasks with only a due date become all-day events.
func (t *Task) ToCalendarEvent() CalendarEvent {
	event := CalendarEvent{
		Summary:     t.Title,
		Description: t.Description,
		Location:    t.Location,
		ColorID:     "5",
	}
	if c, ok := priorityColors[t.Priority]; ok {
		event.ColorID = c
	}

	switch {
	case t.StartTime != nil && t.EndTime != nil:
		event.Start = &CalendarTime{DateTime: t.StartTime.UTC().Format(time.RFC3339), TimeZone: "UTC"}
		event.End = &CalendarTime{DateTime: t.EndTime.UTC().Format(time.RFC3339), TimeZone: "UTC"}
	case t.DueDate != nil:
		day := t.DueDate.Format("2006-01-02")
		event.Start = &CalendarTime{Date: day}
		event.End = &CalendarTime{Date: day}
	}

	if t.Recurrence != "" && t.Recurrence != RecurrenceNone {
		event.Recurrence = []string{"RRULE:FREQ=" + strings.ToUpper(string(t.Recurrence))}
	}
	return event
}

// TaskFilter narrows a task listing
type TaskFilter struct {
	ClientID    *uuid.UUID
	Status      TaskStatus
	Priority    Priority
	OverdueOnly bool
	Owner       string // created_by or assigned_to; empty lists every task
	Skip        int
	Limit       int
}
