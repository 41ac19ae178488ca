package service

import (
	"context"

	"github.com/google/uuid"

	"repairshop_backend/internal/events"
	"repairshop_backend/internal/servicesheet/domain"
	"repairshop_backend/internal/servicesheet/repository"
	"repairshop_backend/internal/servicesheet/transport"
	"repairshop_backend/platform/apperr"
	"repairshop_backend/platform/logger"
	"repairshop_backend/platform/sanitize"
)

// Service provides business logic for service sheets.
type Service struct {
	repo       repository.Repository
	catalog    CatalogReader
	reconciler *Reconciler
	rules      domain.Rules
	log        *logger.Logger
}

// New creates a new service-sheet service.
func New(repo repository.Repository, catalog CatalogReader, bus events.Bus, rules domain.Rules, log *logger.Logger) *Service {
	reconciler := NewReconciler(
		repo,
		NewResolver(repo, repo, catalog),
		NewComposer(rules),
		NewAuditLogger(repo),
		bus,
		rules,
		log,
	)
	return &Service{repo: repo, catalog: catalog, reconciler: reconciler, rules: rules, log: log}
}

// SaveServiceSheet reconciles the tray against the request's working set.
func (s *Service) SaveServiceSheet(ctx context.Context, leadID, trayID uuid.UUID, actor Actor, req transport.SaveServiceSheetRequest) (transport.SaveServiceSheetResponse, error) {
	working, err := toWorkingItems(req.WorkingSet)
	if err != nil {
		return transport.SaveServiceSheetResponse{}, err
	}

	catalogs, err := s.catalog.Catalogs(ctx)
	if err != nil {
		return transport.SaveServiceSheetResponse{}, err
	}

	result, err := s.reconciler.Reconcile(ctx, ReconcileInput{
		LeadID:            leadID,
		TrayID:            trayID,
		WorkingSet:        working,
		Previous:          req.PreviousSnapshot,
		Catalogs:          catalogs,
		ActivePipelineID:  req.ActivePipelineID,
		GlobalDiscountPct: req.GlobalDiscountPct,
		SubscriptionType:  req.SubscriptionType,
		Actor:             actor,
	})
	if err != nil {
		return transport.SaveServiceSheetResponse{}, err
	}

	s.log.Info("service sheet saved",
		"trayId", trayID,
		"added", len(result.Diff.Added),
		"removed", len(result.Diff.Removed),
		"updated", len(result.Diff.Updated),
	)

	return transport.SaveServiceSheetResponse{
		Items:    result.Items,
		Snapshot: result.Snapshot,
		Diff:     result.Diff,
		Headline: result.Headline,
	}, nil
}

// ListTrayItems returns the tray's current lines and totals.
func (s *Service) ListTrayItems(ctx context.Context, trayID uuid.UUID) (transport.TrayItemsResponse, error) {
	if _, err := s.repo.GetTray(ctx, trayID); err != nil {
		return transport.TrayItemsResponse{}, err
	}
	items, err := s.repo.ListItems(ctx, trayID)
	if err != nil {
		return transport.TrayItemsResponse{}, err
	}
	snapshot := domain.ProjectAll(items)

	return transport.TrayItemsResponse{
		TrayID:   trayID,
		Items:    items,
		Snapshot: snapshot,
		Totals:   domain.ComputeTotals(snapshot, s.rules.UrgentMarkup(), nil, ""),
	}, nil
}

// ListAuditEvents returns one page of a lead's or tray's audit trail.
func (s *Service) ListAuditEvents(ctx context.Context, scopeType string, scopeID uuid.UUID, req transport.ListAuditEventsRequest) (transport.AuditEventListResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	var beforeID *uuid.UUID
	if req.BeforeID != "" {
		id, err := uuid.Parse(req.BeforeID)
		if err != nil {
			return transport.AuditEventListResponse{}, apperr.Validation("beforeId must be a uuid")
		}
		beforeID = &id
	}

	records, err := s.repo.ListAuditEvents(ctx, repository.ListAuditEventsParams{
		ScopeType: scopeType,
		ScopeID:   scopeID,
		EventType: req.EventType,
		Before:    req.Before,
		BeforeID:  beforeID,
		Limit:     limit,
	})
	if err != nil {
		return transport.AuditEventListResponse{}, err
	}

	resp := transport.AuditEventListResponse{Items: make([]transport.AuditEventResponse, 0, len(records))}
	for _, e := range records {
		resp.Items = append(resp.Items, transport.AuditEventResponse{
			ID:         e.ID,
			ScopeType:  e.ScopeType,
			ScopeID:    e.ScopeID,
			ActorID:    e.ActorID,
			ActorEmail: e.ActorEmail,
			EventType:  e.EventType,
			Message:    e.Message,
			Payload:    e.Payload,
			CreatedAt:  e.CreatedAt,
		})
	}
	if len(records) == limit {
		last := records[len(records)-1]
		resp.NextBefore = &last.CreatedAt
		resp.NextBeforeID = &last.ID
	}
	return resp, nil
}

func toWorkingItems(reqs []transport.WorkingItemRequest) ([]domain.WorkingItem, error) {
	out := make([]domain.WorkingItem, 0, len(reqs))
	for i, req := range reqs {
		kind, ok := domain.ParseKind(req.Type)
		if !ok {
			return nil, itemError(i, "type", apperr.Validation("unknown line type"))
		}

		var ref domain.Reference
		switch kind {
		case domain.KindService:
			if req.ServiceID == nil {
				return nil, itemError(i, "serviceId", apperr.Validation("service lines require a service"))
			}
			ref = domain.ServiceRef{ServiceID: *req.ServiceID}
		case domain.KindPart:
			ref = domain.PartRef{PartID: req.PartID}
		default:
			ref = domain.InstrumentRef{}
		}

		out = append(out, domain.WorkingItem{
			ID:           req.ID,
			Ref:          ref,
			InstrumentID: req.InstrumentID,
			DepartmentID: req.DepartmentID,
			TechnicianID: req.TechnicianID,
			Name:         sanitize.Label(req.Name),
			Qty:          req.Qty,
			Price:        req.Price,
			DiscountPct:  req.Discount,
			Urgent:       req.Urgent,
			Brand:        sanitize.Label(req.Brand),
			Serial:       sanitize.Label(req.Serial),
			Warranty:     req.Warranty,
			Pipeline:     sanitize.Label(req.Pipeline),
		})
	}
	return out, nil
}
