// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"repairshop_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Service Sheet Domain Events
// =============================================================================

// ServiceSheetSaved is published after a tray's service sheet was reconciled
// and committed.
type ServiceSheetSaved struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	TrayID       uuid.UUID `json:"trayId"`
	ActorID      uuid.UUID `json:"actorId"`
	AddedCount   int       `json:"addedCount"`
	RemovedCount int       `json:"removedCount"`
	UpdatedCount int       `json:"updatedCount"`
	Headline     string    `json:"headline"`
}

func (e ServiceSheetSaved) EventName() string { return "servicesheet.saved" }

// TechnicianAssigned is published for every line whose technician was set to
// a new, non-null value.
type TechnicianAssigned struct {
	BaseEvent
	LeadID               uuid.UUID  `json:"leadId"`
	TrayID               uuid.UUID  `json:"trayId"`
	TrayNumber           string     `json:"trayNumber"`
	ItemID               uuid.UUID  `json:"itemId"`
	ItemName             string     `json:"itemName"`
	TechnicianID         uuid.UUID  `json:"technicianId"`
	PreviousTechnicianID *uuid.UUID `json:"previousTechnicianId,omitempty"`
	AssignedByID         uuid.UUID  `json:"assignedById"`
}

func (e TechnicianAssigned) EventName() string { return "servicesheet.technician_assigned" }

// =============================================================================
// Catalog Domain Events
// =============================================================================

// CatalogCacheInvalidated is published when cached reference data was dropped.
type CatalogCacheInvalidated struct {
	BaseEvent
	ActorID uuid.UUID `json:"actorId"`
	Prefix  string    `json:"prefix"`
}

func (e CatalogCacheInvalidated) EventName() string { return "catalog.cache.invalidated" }
