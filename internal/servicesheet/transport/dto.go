package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"repairshop_backend/internal/servicesheet/domain"
)

// WorkingItemRequest is one desired line of the service sheet. New lines
// omit id.
type WorkingItemRequest struct {
	ID           *uuid.UUID       `json:"id"`
	Type         string           `json:"type" validate:"itemkind"`
	ServiceID    *uuid.UUID       `json:"serviceId"`
	PartID       *uuid.UUID       `json:"partId"`
	InstrumentID *uuid.UUID       `json:"instrumentId"`
	DepartmentID *uuid.UUID       `json:"departmentId"`
	TechnicianID *uuid.UUID       `json:"technicianId"`
	Name         string           `json:"name" validate:"max=200"`
	Qty          int              `json:"qty" validate:"gte=0,lte=10000"`
	Price        *decimal.Decimal `json:"price"`
	Discount     *decimal.Decimal `json:"discount"`
	Urgent       bool             `json:"urgent"`
	Brand        string           `json:"brand" validate:"max=100"`
	Serial       string           `json:"serial" validate:"max=100"`
	Warranty     bool             `json:"warranty"`
	Pipeline     string           `json:"pipeline" validate:"max=100"`
}

// SaveServiceSheetRequest is the body of a service sheet save.
type SaveServiceSheetRequest struct {
	WorkingSet        []WorkingItemRequest `json:"workingSet" validate:"dive"`
	PreviousSnapshot  []domain.Snapshot    `json:"previousSnapshot"`
	ActivePipelineID  *uuid.UUID           `json:"activePipelineId"`
	GlobalDiscountPct *decimal.Decimal     `json:"globalDiscountPct"`
	SubscriptionType  string               `json:"subscriptionType" validate:"omitempty,oneof=services parts both"`
}

// SaveServiceSheetResponse returns the tray after reconciliation. Snapshot is
// the baseline to send as previousSnapshot on the next save.
type SaveServiceSheetResponse struct {
	Items    []domain.LineItem `json:"items"`
	Snapshot []domain.Snapshot `json:"snapshot"`
	Diff     domain.Diff       `json:"diff"`
	Headline string            `json:"headline"`
}

// TrayItemsResponse lists a tray's lines with their totals.
type TrayItemsResponse struct {
	TrayID   uuid.UUID         `json:"trayId"`
	Items    []domain.LineItem `json:"items"`
	Snapshot []domain.Snapshot `json:"snapshot"`
	Totals   domain.Totals     `json:"totals"`
}

// ListAuditEventsRequest pages through a scope's audit trail.
type ListAuditEventsRequest struct {
	EventType string     `form:"eventType" validate:"omitempty,oneof=service_sheet_save technician_assigned"`
	Before    *time.Time `form:"before" time_format:"2006-01-02T15:04:05Z07:00"`
	BeforeID  string     `form:"beforeId" validate:"omitempty,uuid"`
	Limit     int        `form:"limit" validate:"omitempty,min=1,max=200"`
}

type AuditEventResponse struct {
	ID         uuid.UUID       `json:"id"`
	ScopeType  string          `json:"scopeType"`
	ScopeID    uuid.UUID       `json:"scopeId"`
	ActorID    *uuid.UUID      `json:"actorId,omitempty"`
	ActorEmail *string         `json:"actorEmail,omitempty"`
	EventType  string          `json:"eventType"`
	Message    string          `json:"message"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// AuditEventListResponse carries one page. NextBefore and NextBeforeID are
// set when more events may exist.
type AuditEventListResponse struct {
	Items        []AuditEventResponse `json:"items"`
	NextBefore   *time.Time           `json:"nextBefore,omitempty"`
	NextBeforeID *uuid.UUID           `json:"nextBeforeId,omitempty"`
}
