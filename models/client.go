package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority is shared by clients, case notes and tasks
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ClientStatus represents where a client is in their case lifecycle
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
	ClientStatusClosed   ClientStatus = "closed"
)

// Valid reports whether s is a known client status
func (s ClientStatus) Valid() bool {
	switch s {
	case ClientStatusActive, ClientStatusInactive, ClientStatusClosed:
		return true
	}
	return false
}

// DefaultCaseType is assigned when a client is created without a case type
const DefaultCaseType = "general"

// Client represents a person receiving services
type Client struct {
	ID               uuid.UUID    `json:"id" db:"id"`
	Name             string       `json:"name" db:"name"`
	Email            string       `json:"email,omitempty" db:"email"`
	Phone            string       `json:"phone,omitempty" db:"phone"`
	DateOfBirth      *time.Time   `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Address          string       `json:"address,omitempty" db:"address"`
	EmergencyContact string       `json:"emergency_contact,omitempty" db:"emergency_contact"`
	EmergencyPhone   string       `json:"emergency_phone,omitempty" db:"emergency_phone"`
	CaseType         string       `json:"case_type" db:"case_type"`
	Status           ClientStatus `json:"status" db:"status"`
	Priority         Priority     `json:"priority" db:"priority"`
	Notes            string       `json:"notes,omitempty" db:"notes"`
	Tags             []string     `json:"tags" db:"tags"`
	CaseNumber       string       `json:"case_number" db:"case_number"`
	SocialWorkerID   string       `json:"social_worker_id" db:"social_worker_id"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Client model
func (Client) TableName() string {
	return "clients"
}

// NewClient creates an active client owned by socialWorkerID
func NewClient(name, socialWorkerID string) *Client {
	now := time.Now().UTC()
	id := uuid.New()
	return &Client{
		ID:             id,
		Name:           strings.TrimSpace(name),
		CaseType:       DefaultCaseType,
		Status:         ClientStatusActive,
		Priority:       PriorityMedium,
		Tags:           []string{},
		CaseNumber:     NewCaseNumber(now, id),
		SocialWorkerID: socialWorkerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewCaseNumber formats a case number as CASE-YYYYMMDD-XXXX
func NewCaseNumber(at time.Time, id uuid.UUID) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:4])
	return fmt.Sprintf("CASE-%s-%s", at.Format("20060102"), suffix)
}

// IsOpen returns true unless the case has been closed
func (c *Client) IsOpen() bool {
	return c.Status != ClientStatusClosed
}

// ClientFilter narrows a client listing
type ClientFilter struct {
	Skip     int
	Limit    int
	Status   ClientStatus
	Priority Priority
	Search   string
}

// ClientSummary aggregates a client's case activity
type ClientSummary struct {
	ClientID     uuid.UUID    `json:"client_id"`
	Name         string       `json:"name"`
	CaseNumber   string       `json:"case_number"`
	Status       ClientStatus `json:"status"`
	Priority     Priority     `json:"priority"`
	NotesCount   int          `json:"notes_count"`
	TasksCount   int          `json:"tasks_count"`
	OpenTasks    int          `json:"open_tasks"`
	OverdueTasks int          `json:"overdue_tasks"`
	LastContact  *time.Time   `json:"last_contact,omitempty"`
}
