package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionClientCreated   AuditAction = "client_created"
	AuditActionClientUpdated   AuditAction = "client_updated"
	AuditActionClientDeleted   AuditAction = "client_deleted"
	AuditActionNoteCreated     AuditAction = "case_note_created"
	AuditActionNoteUpdated     AuditAction = "case_note_updated"
	AuditActionNoteDeleted     AuditAction = "case_note_deleted"
	AuditActionTaskCreated     AuditAction = "task_created"
	AuditActionTaskUpdated     AuditAction = "task_updated"
	AuditActionTaskCompleted   AuditAction = "task_completed"
	AuditActionTaskDeleted     AuditAction = "task_deleted"
	AuditActionReportGenerated AuditAction = "report_generated"
	AuditActionAccessDenied    AuditAction = "access_denied"
)

// AuditLog represents an audit trail entry
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	ActorID      string          `json:"actor_id" db:"actor_id"`
	ActorRole    string          `json:"actor_role" db:"actor_role"`
	Action       AuditAction     `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"` // client, case_note, task, report
	ResourceID   *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	Details      json.RawMessage `json:"details" db:"details"`
	IPAddress    string          `json:"ip_address" db:"ip_address"`
	UserAgent    string          `json:"user_agent" db:"user_agent"`
	RequestID    string          `json:"request_id" db:"request_id"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(actorID string, action AuditAction, resourceType string) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		Timestamp:    time.Now().UTC(),
	}
}

// WithRole sets the actor's role at the time of the action
func (a *AuditLog) WithRole(role string) *AuditLog {
	a.ActorRole = role
	return a
}

// WithResource sets the resource ID
func (a *AuditLog) WithResource(resourceID uuid.UUID) *AuditLog {
	a.ResourceID = &resourceID
	return a
}

// WithDetails sets the details
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *AuditLog) WithRequest(requestID, ipAddress, userAgent string) *AuditLog {
	a.RequestID = requestID
	a.IPAddress = ipAddress
	a.UserAgent = userAgent
	return a
}
