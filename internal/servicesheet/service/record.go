package service

import (
	"context"

	"github.com/google/uuid"

	"repairshop_backend/internal/events"
	"repairshop_backend/internal/servicesheet/domain"
	"repairshop_backend/internal/servicesheet/repository"
)

type recordInput struct {
	in          ReconcileInput
	tray        repository.Tray
	idx         *domain.CatalogIndex
	snapshot    []domain.Snapshot
	diff        domain.Diff
	assignments []technicianAssignment
	stale       []uuid.UUID
}

// record writes the audit trail and publishes events for a committed save.
// Failures are logged and swallowed; the returned headline is always set.
func (r *Reconciler) record(ctx context.Context, rec recordInput) string {
	log := r.log.WithContext(ctx)
	scope := rec.in.TrayID.String()

	refs, err := r.resolver.Resolve(ctx, rec.in.TrayID, collectUserIDs(rec))
	if err != nil {
		log.AuditSuppressed("resolve_references", scope, err)
	}
	if refs.Tray == nil {
		tray := rec.tray
		refs.Tray = &tray
	}

	for _, a := range rec.assignments {
		msg := r.composer.Assignment(rec.in.LeadID, rec.in.TrayID, a, refs, rec.in.Actor)
		if err := r.audit.WriteAssignment(ctx, rec.in.TrayID, rec.in.Actor, msg); err != nil {
			log.AuditSuppressed(EventTechnicianAssigned, scope, err)
		}
	}

	save := r.composer.Save(SaveInput{
		LeadID:            rec.in.LeadID,
		TrayID:            rec.in.TrayID,
		Snapshot:          rec.snapshot,
		Diff:              rec.diff,
		Catalog:           rec.idx,
		Refs:              refs,
		Actor:             rec.in.Actor,
		GlobalDiscountPct: rec.in.GlobalDiscountPct,
		SubscriptionType:  rec.in.SubscriptionType,
		StaleIDs:          rec.stale,
	})
	if err := r.audit.WriteSave(ctx, rec.in.LeadID, rec.in.Actor, save); err != nil {
		log.AuditSuppressed(EventServiceSheetSave, rec.in.LeadID.String(), err)
	}

	r.publish(ctx, rec, refs, save.Headline)
	return save.Headline
}

func (r *Reconciler) publish(ctx context.Context, rec recordInput, refs References, headline string) {
	for _, a := range rec.assignments {
		event := events.TechnicianAssigned{
			BaseEvent:            events.NewBaseEvent(),
			LeadID:               rec.in.LeadID,
			TrayID:               rec.in.TrayID,
			ItemID:               a.ItemID,
			ItemName:             a.ItemName,
			TechnicianID:         a.Technician,
			PreviousTechnicianID: a.Previous,
			AssignedByID:         rec.in.Actor.ID,
		}
		if refs.Tray != nil {
			event.TrayNumber = refs.Tray.Number
		}
		r.bus.Publish(ctx, event)
	}

	r.bus.Publish(ctx, events.ServiceSheetSaved{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       rec.in.LeadID,
		TrayID:       rec.in.TrayID,
		ActorID:      rec.in.Actor.ID,
		AddedCount:   len(rec.diff.Added),
		RemovedCount: len(rec.diff.Removed),
		UpdatedCount: len(rec.diff.Updated),
		Headline:     headline,
	})
}

// collectUserIDs gathers every technician the messages may mention.
func collectUserIDs(rec recordInput) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	add := func(id *uuid.UUID) {
		if id == nil || *id == uuid.Nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}

	for i := range rec.snapshot {
		add(rec.snapshot[i].TechnicianID)
	}
	for i := range rec.diff.Removed {
		add(rec.diff.Removed[i].TechnicianID)
	}
	for i := range rec.diff.Updated {
		add(rec.diff.Updated[i].Previous.TechnicianID)
	}
	for i := range rec.assignments {
		add(&rec.assignments[i].Technician)
		add(rec.assignments[i].Previous)
	}
	return ids
}
