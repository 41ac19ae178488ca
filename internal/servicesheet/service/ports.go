package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"repairshop_backend/internal/servicesheet/domain"
)

// CatalogReader supplies reference data. Implementations are expected to cache.
type CatalogReader interface {
	Catalogs(ctx context.Context) (domain.Catalogs, error)
	Departments(ctx context.Context) ([]domain.Department, error)
}

// Actor is the user performing a save.
type Actor struct {
	ID    uuid.UUID
	Email string
}

// ReconcileInput is everything one service sheet save needs.
type ReconcileInput struct {
	LeadID     uuid.UUID
	TrayID     uuid.UUID
	WorkingSet []domain.WorkingItem
	// Previous is the caller's last-seen snapshot of the tray.
	Previous []domain.Snapshot
	Catalogs domain.Catalogs
	// ActivePipelineID overrides the tray's current pipeline when deciding
	// technician assignment.
	ActivePipelineID  *uuid.UUID
	GlobalDiscountPct *decimal.Decimal
	SubscriptionType  string
	Actor             Actor
}

// ReconcileResult is the tray after a committed save.
type ReconcileResult struct {
	Items    []domain.LineItem
	Snapshot []domain.Snapshot
	Diff     domain.Diff
	Headline string
}
