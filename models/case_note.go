package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NoteStatus represents the lifecycle state of a case note
type NoteStatus string

const (
	NoteStatusActive   NoteStatus = "active"
	NoteStatusArchived NoteStatus = "archived"
	NoteStatusDeleted  NoteStatus = "deleted"
)

// IntakeMethod records how a note was captured
type IntakeMethod string

const (
	IntakeManual  IntakeMethod = "manual"
	IntakeVoice   IntakeMethod = "voice"
	IntakePhone   IntakeMethod = "phone"
	IntakeWebForm IntakeMethod = "web_form"
)

// DefaultNoteCategory is used when a note is created without a category
const DefaultNoteCategory = "general"

// CaseNote is a dated entry in a client's case file
type CaseNote struct {
	ID               uuid.UUID    `json:"id" db:"id"`
	ClientID         uuid.UUID    `json:"client_id" db:"client_id"`
	SocialWorkerID   string       `json:"social_worker_id" db:"social_worker_id"`
	Title            string       `json:"title" db:"title"`
	Content          string       `json:"content" db:"content"`
	Category         string       `json:"category" db:"category"`
	Priority         Priority     `json:"priority" db:"priority"`
	Tags             []string     `json:"tags" db:"tags"`
	IsConfidential   bool         `json:"is_confidential" db:"is_confidential"`
	FollowUpRequired bool         `json:"follow_up_required" db:"follow_up_required"`
	FollowUpDate     *time.Time   `json:"follow_up_date,omitempty" db:"follow_up_date"`
	IntakeMethod     IntakeMethod `json:"intake_method" db:"intake_method"`
	Status           NoteStatus   `json:"status" db:"status"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the CaseNote model
func (CaseNote) TableName() string {
	return "case_notes"
}

// NewCaseNote creates an active, manually entered note
func NewCaseNote(clientID uuid.UUID, socialWorkerID, title, content string) *CaseNote {
	now := time.Now().UTC()
	return &CaseNote{
		ID:             uuid.New(),
		ClientID:       clientID,
		SocialWorkerID: socialWorkerID,
		Title:          strings.TrimSpace(title),
		Content:        strings.TrimSpace(content),
		Category:       DefaultNoteCategory,
		Priority:       PriorityMedium,
		Tags:           []string{},
		IntakeMethod:   IntakeManual,
		Status:         NoteStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// VisibleTo reports whether a confidential note may be read by the given
// user. Privileged readers (supervisors and above) see everything.
func (n *CaseNote) VisibleTo(userID string, privileged bool) bool {
	if !n.IsConfidential || privileged {
		return true
	}
	return n.SocialWorkerID == userID
}

// CaseNoteFilter narrows a case note listing. A non-empty Viewer hides
// confidential notes written by anyone else.
type CaseNoteFilter struct {
	ClientID *uuid.UUID
	Category string
	Status   NoteStatus
	Viewer   string
	Skip     int
	Limit    int
}
