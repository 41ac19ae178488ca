package service

import (
	"context"

	"github.com/google/uuid"

	"repairshop_backend/internal/servicesheet/repository"
)

// Audit event types.
const (
	EventServiceSheetSave   = "service_sheet_save"
	EventTechnicianAssigned = "technician_assigned"
)

// AuditLogger appends composed messages to the audit trail.
type AuditLogger struct {
	store repository.AuditStore
}

// NewAuditLogger creates an audit logger.
func NewAuditLogger(store repository.AuditStore) *AuditLogger {
	return &AuditLogger{store: store}
}

// WriteSave records a service sheet save on the lead.
func (a *AuditLogger) WriteSave(ctx context.Context, leadID uuid.UUID, actor Actor, msg SaveMessage) error {
	_, err := a.store.CreateAuditEvent(ctx, repository.CreateAuditEventParams{
		ScopeType:  repository.ScopeLead,
		ScopeID:    leadID,
		ActorID:    &actor.ID,
		ActorEmail: actor.Email,
		EventType:  EventServiceSheetSave,
		Message:    msg.Headline,
		Payload:    msg.Payload,
	})
	return err
}

// WriteAssignment records a technician assignment on the tray.
func (a *AuditLogger) WriteAssignment(ctx context.Context, trayID uuid.UUID, actor Actor, msg AssignmentMessage) error {
	_, err := a.store.CreateAuditEvent(ctx, repository.CreateAuditEventParams{
		ScopeType:  repository.ScopeTray,
		ScopeID:    trayID,
		ActorID:    &actor.ID,
		ActorEmail: actor.Email,
		EventType:  EventTechnicianAssigned,
		Message:    msg.Message,
		Payload:    msg.Payload,
	})
	return err
}
