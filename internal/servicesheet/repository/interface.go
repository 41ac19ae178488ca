package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"repairshop_backend/internal/servicesheet/domain"
)

// Audit scopes.
const (
	ScopeLead = "lead"
	ScopeTray = "tray"
)

// Tray is a tray with its owning lead and current board placement.
type Tray struct {
	ID            uuid.UUID
	LeadID        uuid.UUID
	ServiceFileID uuid.UUID
	Number        string
	Size          string
	Status        string
	PipelineID    *uuid.UUID
	PipelineName  *string
	StageID       *uuid.UUID
	StageName     *string
}

// User is the directory view of a technician or actor.
type User struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
}

// AuditEvent is one append-only audit record.
type AuditEvent struct {
	ID         uuid.UUID
	ScopeType  string
	ScopeID    uuid.UUID
	ActorID    *uuid.UUID
	ActorEmail *string
	EventType  string
	Message    string
	Payload    json.RawMessage
	CreatedAt  time.Time
}

// CreateItemParams contains data for inserting a line item.
type CreateItemParams struct {
	TrayID       uuid.UUID
	Ref          domain.Reference
	InstrumentID *uuid.UUID
	DepartmentID uuid.UUID
	TechnicianID *uuid.UUID
	Pipeline     string
	Qty          int
	Attrs        domain.Attributes
}

// CreateAuditEventParams contains data for appending an audit event.
type CreateAuditEventParams struct {
	ScopeType  string
	ScopeID    uuid.UUID
	ActorID    *uuid.UUID
	ActorEmail string
	EventType  string
	Message    string
	Payload    any
}

// ListAuditEventsParams filters the audit trail of one scope, newest first.
// Before and BeforeID together form the keyset cursor of the last row seen.
type ListAuditEventsParams struct {
	ScopeType string
	ScopeID   uuid.UUID
	EventType string
	Before    *time.Time
	BeforeID  *uuid.UUID
	Limit     int
}

// ItemStore reads and writes tray line items. Every write is scoped to the tray.
type ItemStore interface {
	ListItems(ctx context.Context, trayID uuid.UUID) ([]domain.LineItem, error)
	CreateItem(ctx context.Context, params CreateItemParams) (domain.LineItem, error)
	UpdateItem(ctx context.Context, trayID, itemID uuid.UUID, patch domain.Patch) error
	DeleteItem(ctx context.Context, trayID, itemID uuid.UUID) error
}

// TrayReader loads tray context.
type TrayReader interface {
	GetTray(ctx context.Context, trayID uuid.UUID) (Tray, error)
}

// UserReader loads users in bulk.
type UserReader interface {
	ListUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error)
}

// AuditStore appends and lists audit events.
type AuditStore interface {
	CreateAuditEvent(ctx context.Context, params CreateAuditEventParams) (AuditEvent, error)
	ListAuditEvents(ctx context.Context, params ListAuditEventsParams) ([]AuditEvent, error)
}

// Repository is the service-sheet persistence port.
type Repository interface {
	ItemStore
	TrayReader
	UserReader
	AuditStore
	// WithTx runs fn against an ItemStore bound to one transaction.
	WithTx(ctx context.Context, fn func(items ItemStore) error) error
}
