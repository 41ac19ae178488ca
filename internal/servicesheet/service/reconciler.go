package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"repairshop_backend/internal/events"
	"repairshop_backend/internal/servicesheet/domain"
	"repairshop_backend/internal/servicesheet/repository"
	"repairshop_backend/platform/apperr"
	"repairshop_backend/platform/logger"
)

var hundred = decimal.NewFromInt(100)

// Reconciler turns a working set into persisted line items and records what
// changed.
type Reconciler struct {
	repo     repository.Repository
	resolver *Resolver
	composer *Composer
	audit    *AuditLogger
	bus      events.Bus
	rules    domain.Rules
	log      *logger.Logger
}

// NewReconciler wires a reconciler.
func NewReconciler(repo repository.Repository, resolver *Resolver, composer *Composer, audit *AuditLogger, bus events.Bus, rules domain.Rules, log *logger.Logger) *Reconciler {
	return &Reconciler{
		repo:     repo,
		resolver: resolver,
		composer: composer,
		audit:    audit,
		bus:      bus,
		rules:    rules,
		log:      log,
	}
}

type technicianAssignment struct {
	ItemID     uuid.UUID
	ItemName   string
	Technician uuid.UUID
	Previous   *uuid.UUID
}

// Reconcile applies the working set to the tray in one transaction: removed
// lines are deleted, existing lines get minimal patches and new lines are
// created. Audit events are written after commit and never fail the save.
func (r *Reconciler) Reconcile(ctx context.Context, in ReconcileInput) (ReconcileResult, error) {
	if err := validateInput(in); err != nil {
		return ReconcileResult{}, err
	}

	tray, err := r.repo.GetTray(ctx, in.TrayID)
	if err != nil {
		return ReconcileResult{}, err
	}
	if tray.LeadID != in.LeadID {
		return ReconcileResult{}, apperr.Validation("tray does not belong to lead")
	}

	idx := domain.NewCatalogIndex(in.Catalogs)
	activePipeline, err := activePipelineName(in, idx, tray)
	if err != nil {
		return ReconcileResult{}, err
	}

	p := &pass{
		ctx:                  ctx,
		in:                   in,
		idx:                  idx,
		rules:                r.rules,
		inDepartmentPipeline: r.rules.IsDepartmentPipeline(activePipeline),
		deleted:              make(map[uuid.UUID]struct{}),
		log:                  r.log.WithContext(ctx),
	}

	var stale []uuid.UUID
	err = r.repo.WithTx(ctx, func(items repository.ItemStore) error {
		existing, err := items.ListItems(ctx, in.TrayID)
		if err != nil {
			return err
		}
		p.items = items
		p.existing = existing
		stale = staleBaseline(in.Previous, existing)

		if err := p.deleteRemoved(); err != nil {
			return err
		}
		if err := p.updateExisting(); err != nil {
			return err
		}
		return p.createNew()
	})
	if err != nil {
		return ReconcileResult{}, err
	}

	fresh, err := r.repo.ListItems(ctx, in.TrayID)
	if err != nil {
		return ReconcileResult{}, err
	}
	snapshot := domain.ProjectAll(fresh)
	diff := domain.Compute(in.Previous, snapshot)

	headline := r.record(context.WithoutCancel(ctx), recordInput{
		in:          in,
		tray:        tray,
		idx:         idx,
		snapshot:    snapshot,
		diff:        diff,
		assignments: p.assignments,
		stale:       stale,
	})

	return ReconcileResult{Items: fresh, Snapshot: snapshot, Diff: diff, Headline: headline}, nil
}

func validateInput(in ReconcileInput) error {
	if in.LeadID == uuid.Nil || in.TrayID == uuid.Nil {
		return apperr.Validation("lead and tray are required")
	}
	if in.Actor.ID == uuid.Nil {
		return apperr.Unauthorized("current user is required")
	}
	if in.GlobalDiscountPct != nil && !isPercentage(*in.GlobalDiscountPct) {
		return apperr.Validation("global discount must be between 0 and 100")
	}

	seen := make(map[uuid.UUID]struct{}, len(in.WorkingSet))
	for i, w := range in.WorkingSet {
		if !w.IsNew() {
			if _, dup := seen[*w.ID]; dup {
				return itemError(i, "id", apperr.Validation("duplicate line item id"))
			}
			seen[*w.ID] = struct{}{}
		}
		if ref, ok := w.Ref.(domain.ServiceRef); ok && ref.ServiceID == uuid.Nil {
			return itemError(i, "serviceId", apperr.Validation("service lines require a service"))
		}
		if w.Qty < 0 {
			return itemError(i, "qty", apperr.Validation("quantity must not be negative"))
		}
		if w.Price != nil && w.Price.IsNegative() {
			return itemError(i, "price", apperr.Validation("price must not be negative"))
		}
		if w.DiscountPct != nil && !isPercentage(*w.DiscountPct) {
			return itemError(i, "discount", apperr.Validation("discount must be between 0 and 100"))
		}
	}
	return nil
}

func isPercentage(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}

func itemError(index int, field string, err *apperr.Error) *apperr.Error {
	return err.WithDetails(map[string]any{"index": index, "field": field})
}

func activePipelineName(in ReconcileInput, idx *domain.CatalogIndex, tray repository.Tray) (string, error) {
	if in.ActivePipelineID != nil {
		pipeline, ok := idx.Pipeline(*in.ActivePipelineID)
		if !ok {
			return "", apperr.Unprocessable("active pipeline is not in the catalog")
		}
		return pipeline.Name, nil
	}
	if tray.PipelineName != nil {
		return *tray.PipelineName, nil
	}
	return "", nil
}

// staleBaseline lists ids the caller believed persisted that the store no
// longer has.
func staleBaseline(prev []domain.Snapshot, existing []domain.LineItem) []uuid.UUID {
	present := make(map[uuid.UUID]struct{}, len(existing))
	for _, item := range existing {
		present[item.ID] = struct{}{}
	}
	stale := make([]uuid.UUID, 0)
	for _, p := range prev {
		if p.ID == uuid.Nil {
			continue
		}
		if _, ok := present[p.ID]; !ok {
			stale = append(stale, p.ID)
		}
	}
	return stale
}

// pass holds the state of one transactional reconcile.
type pass struct {
	ctx                  context.Context
	items                repository.ItemStore
	in                   ReconcileInput
	idx                  *domain.CatalogIndex
	rules                domain.Rules
	inDepartmentPipeline bool
	existing             []domain.LineItem
	deleted              map[uuid.UUID]struct{}
	created              []domain.LineItem
	assignments          []technicianAssignment
	log                  *logger.Logger
}

func (p *pass) deleteRemoved() error {
	keep := make(map[uuid.UUID]struct{}, len(p.in.WorkingSet))
	for _, w := range p.in.WorkingSet {
		if !w.IsNew() {
			keep[*w.ID] = struct{}{}
		}
	}

	for _, prev := range p.in.Previous {
		if prev.ID == uuid.Nil {
			continue
		}
		if _, ok := keep[prev.ID]; ok {
			continue
		}
		if _, done := p.deleted[prev.ID]; done {
			continue
		}
		if err := p.items.DeleteItem(p.ctx, p.in.TrayID, prev.ID); err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				p.log.Debug("line item already removed", "itemId", prev.ID)
				continue
			}
			return err
		}
		p.deleted[prev.ID] = struct{}{}
	}
	return nil
}

func (p *pass) updateExisting() error {
	prevByID := make(map[uuid.UUID]domain.Snapshot, len(p.in.Previous))
	for _, s := range p.in.Previous {
		if s.ID != uuid.Nil {
			prevByID[s.ID] = s
		}
	}

	persisted := make(map[uuid.UUID]domain.Snapshot, len(p.existing))
	for _, item := range p.existing {
		persisted[item.ID] = domain.Project(item)
	}

	for i, w := range p.in.WorkingSet {
		if w.IsNew() {
			continue
		}
		prev, ok := prevByID[*w.ID]
		if !ok {
			p.log.Warn("working item has no baseline, skipping", "itemId", *w.ID)
			continue
		}
		current, ok := persisted[*w.ID]
		if !ok {
			current = prev
		}

		patch := domain.BuildPatch(prev, w)
		if w.Kind() != prev.Type || referenceChanged(current, w) {
			if err := p.changeType(i, &patch, prev, w); err != nil {
				return err
			}
		}
		if patch.IsEmpty() {
			continue
		}

		if err := p.items.UpdateItem(p.ctx, p.in.TrayID, *w.ID, patch); err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				p.log.Warn("line item vanished before update, skipping", "itemId", *w.ID)
				continue
			}
			return err
		}

		if patch.Technician.Set && patch.Technician.Value != nil {
			name := prev.Name
			if patch.Attrs.Name != nil {
				name = *patch.Attrs.Name
			}
			p.assign(*w.ID, name, *patch.Technician.Value, prev.TechnicianID)
		}
	}
	return nil
}

// changeType extends patch for a line whose variant or catalog reference
// changed. Turning a line into a service, or swapping its service, also
// carries the service's department, pipeline and the technician rule.
func (p *pass) changeType(index int, patch *domain.Patch, prev domain.Snapshot, w domain.WorkingItem) error {
	switch ref := w.Ref.(type) {
	case domain.ServiceRef:
		svc, ok := p.idx.Service(ref.ServiceID)
		if !ok {
			return itemError(index, "serviceId", apperr.Unprocessable(fmt.Sprintf("service %s is not in the catalog", ref.ServiceID)))
		}
		instrumentID := firstUUID(w.InstrumentID, svc.InstrumentID, prev.InstrumentID)
		departmentID := p.serviceDepartment(svc, instrumentID)
		if departmentID == nil {
			return itemError(index, "departmentId", apperr.Unprocessable(fmt.Sprintf("cannot resolve a department for service %q", svc.Name)))
		}

		patch.Ref = ref
		patch.DepartmentID = departmentID
		if !sameUUID(instrumentID, prev.InstrumentID) {
			patch.InstrumentID = instrumentID
		}
		if pipeline := p.pipelineFor(w, *departmentID); pipeline != prev.Pipeline {
			patch.Pipeline = &pipeline
		}
		patch.Technician = domain.OptionalUUID{}
		if technician := p.rules.AssignTechnician(w.TechnicianID, p.inDepartmentPipeline, p.in.Actor.ID); !sameUUID(technician, prev.TechnicianID) {
			patch.SetTechnician(technician)
		}
		if patch.Attrs.Name == nil && strings.TrimSpace(w.Name) == "" && prev.Name != svc.Name {
			name := svc.Name
			patch.Attrs.Name = &name
		}
		if w.Price == nil && !svc.Price.Equal(prev.Price) {
			price := svc.Price
			patch.Attrs.UnitPrice = &price
		}

	case domain.PartRef:
		if ref.PartID != nil {
			part, ok := p.idx.Part(*ref.PartID)
			if !ok {
				return itemError(index, "partId", apperr.Unprocessable(fmt.Sprintf("part %s is not in the catalog", *ref.PartID)))
			}
			if w.Price == nil && !part.Price.Equal(prev.Price) {
				price := part.Price
				patch.Attrs.UnitPrice = &price
			}
		}
		if ref.PartID != nil || prev.Type != domain.KindPart {
			patch.Ref = ref
		}
		if w.InstrumentID != nil && !sameUUID(w.InstrumentID, prev.InstrumentID) {
			instrumentID := *w.InstrumentID
			patch.InstrumentID = &instrumentID
		}

	default:
		instrumentID := firstUUID(w.InstrumentID, prev.InstrumentID)
		if instrumentID == nil {
			return itemError(index, "instrumentId", apperr.Unprocessable("instrument lines require an instrument"))
		}
		if !sameUUID(instrumentID, prev.InstrumentID) {
			instrument, ok := p.idx.Instrument(*instrumentID)
			if !ok {
				return itemError(index, "instrumentId", apperr.Unprocessable(fmt.Sprintf("instrument %s is not in the catalog", *instrumentID)))
			}
			patch.InstrumentID = instrumentID
			if instrument.DepartmentID != nil && !sameUUID(instrument.DepartmentID, prev.DepartmentID) {
				patch.DepartmentID = instrument.DepartmentID
				if pipeline := p.pipelineFor(w, *instrument.DepartmentID); pipeline != prev.Pipeline {
					patch.Pipeline = &pipeline
				}
			}
		}
		patch.Ref = domain.InstrumentRef{}
	}
	return nil
}

// referenceChanged reports whether w points at another catalog entry or
// instrument than the stored line. Absent part or instrument ids keep the
// stored value.
func referenceChanged(current domain.Snapshot, w domain.WorkingItem) bool {
	serviceID, partID := domain.ReferenceIDs(w.Ref)
	if serviceID != nil && !sameUUID(serviceID, current.ServiceID) {
		return true
	}
	if partID != nil && !sameUUID(partID, current.PartID) {
		return true
	}
	return w.InstrumentID != nil && !sameUUID(w.InstrumentID, current.InstrumentID)
}

// createNew inserts unsaved lines. Parts go last so they can borrow placement
// from services created in the same save.
func (p *pass) createNew() error {
	for _, partsPhase := range []bool{false, true} {
		for i, w := range p.in.WorkingSet {
			if !w.IsNew() || (w.Kind() == domain.KindPart) != partsPhase {
				continue
			}
			params, err := p.newItemParams(i, w)
			if err != nil {
				return err
			}
			item, err := p.items.CreateItem(p.ctx, params)
			if err != nil {
				return err
			}
			p.created = append(p.created, item)
			if item.TechnicianID != nil {
				p.assign(item.ID, item.Attrs.Name, *item.TechnicianID, nil)
			}
		}
	}
	return nil
}

func (p *pass) newItemParams(index int, w domain.WorkingItem) (repository.CreateItemParams, error) {
	var (
		ref          = w.Ref
		instrumentID = w.InstrumentID
		departmentID *uuid.UUID
		name         = strings.TrimSpace(w.Name)
		price        = decimal.Zero
	)

	switch r := w.Ref.(type) {
	case domain.ServiceRef:
		svc, ok := p.idx.Service(r.ServiceID)
		if !ok {
			return repository.CreateItemParams{}, itemError(index, "serviceId", apperr.Unprocessable(fmt.Sprintf("service %s is not in the catalog", r.ServiceID)))
		}
		instrumentID = firstUUID(w.InstrumentID, svc.InstrumentID)
		departmentID = p.serviceDepartment(svc, instrumentID)
		if name == "" {
			name = svc.Name
		}
		price = svc.Price

	case domain.PartRef:
		if name == "" {
			return repository.CreateItemParams{}, itemError(index, "name", apperr.Validation("part lines require a name"))
		}
		if r.PartID != nil {
			part, ok := p.idx.Part(*r.PartID)
			if !ok {
				return repository.CreateItemParams{}, itemError(index, "partId", apperr.Unprocessable(fmt.Sprintf("part %s is not in the catalog", *r.PartID)))
			}
			price = part.Price
		}
		instrumentID, departmentID = p.partPlacement(w)

	default:
		if w.InstrumentID == nil {
			return repository.CreateItemParams{}, itemError(index, "instrumentId", apperr.Unprocessable("instrument lines require an instrument"))
		}
		instrument, ok := p.idx.Instrument(*w.InstrumentID)
		if !ok {
			return repository.CreateItemParams{}, itemError(index, "instrumentId", apperr.Unprocessable(fmt.Sprintf("instrument %s is not in the catalog", *w.InstrumentID)))
		}
		departmentID = instrument.DepartmentID
		if name == "" {
			name = instrument.Name
		}
		ref = domain.InstrumentRef{}
	}

	if departmentID == nil {
		return repository.CreateItemParams{}, itemError(index, "departmentId", apperr.Unprocessable(fmt.Sprintf("cannot resolve a department for %s line %q", w.Kind(), name)))
	}
	if w.Price != nil {
		price = *w.Price
	}
	discount := decimal.Zero
	if w.DiscountPct != nil {
		discount = *w.DiscountPct
	}
	qty := w.Qty
	if qty <= 0 {
		qty = 1
	}

	return repository.CreateItemParams{
		TrayID:       p.in.TrayID,
		Ref:          ref,
		InstrumentID: instrumentID,
		DepartmentID: *departmentID,
		TechnicianID: p.rules.AssignTechnician(w.TechnicianID, p.inDepartmentPipeline, p.in.Actor.ID),
		Pipeline:     p.pipelineFor(w, *departmentID),
		Qty:          qty,
		Attrs:        domain.NewAttributes(name, price, discount, w),
	}, nil
}

func (p *pass) serviceDepartment(svc domain.CatalogService, instrumentID *uuid.UUID) *uuid.UUID {
	if svc.DepartmentID != nil {
		return svc.DepartmentID
	}
	if instrumentID == nil {
		return nil
	}
	instrument, ok := p.idx.Instrument(*instrumentID)
	if !ok {
		return nil
	}
	return instrument.DepartmentID
}

// partPlacement resolves a part's instrument and department: explicit values,
// then a service line on the tray, then any line with both set, then the
// configured fallback department.
func (p *pass) partPlacement(w domain.WorkingItem) (*uuid.UUID, *uuid.UUID) {
	instrumentID, departmentID := w.InstrumentID, w.DepartmentID
	fill := func(instrument *uuid.UUID, department uuid.UUID) {
		if instrumentID == nil {
			instrumentID = instrument
		}
		if departmentID == nil {
			dept := department
			departmentID = &dept
		}
	}

	surviving := p.surviving()
	if instrumentID == nil || departmentID == nil {
		for _, item := range surviving {
			if item.Kind() == domain.KindService {
				fill(item.InstrumentID, item.DepartmentID)
				break
			}
		}
	}
	if instrumentID == nil || departmentID == nil {
		for _, item := range surviving {
			if item.InstrumentID != nil && item.DepartmentID != uuid.Nil {
				fill(item.InstrumentID, item.DepartmentID)
				break
			}
		}
	}
	if departmentID == nil {
		departmentID = p.rules.PartsFallbackDepartment()
	}
	return instrumentID, departmentID
}

// surviving lists tray lines that were not deleted in this pass, persisted
// ones first.
func (p *pass) surviving() []domain.LineItem {
	out := make([]domain.LineItem, 0, len(p.existing)+len(p.created))
	for _, item := range p.existing {
		if _, gone := p.deleted[item.ID]; !gone {
			out = append(out, item)
		}
	}
	return append(out, p.created...)
}

func (p *pass) pipelineFor(w domain.WorkingItem, departmentID uuid.UUID) string {
	if pipeline := strings.TrimSpace(w.Pipeline); pipeline != "" {
		return pipeline
	}
	return p.idx.PipelineNameForDepartment(departmentID)
}

func (p *pass) assign(itemID uuid.UUID, itemName string, technician uuid.UUID, previous *uuid.UUID) {
	p.assignments = append(p.assignments, technicianAssignment{
		ItemID:     itemID,
		ItemName:   itemName,
		Technician: technician,
		Previous:   previous,
	})
}

func firstUUID(ids ...*uuid.UUID) *uuid.UUID {
	for _, id := range ids {
		if id != nil {
			return id
		}
	}
	return nil
}

func sameUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
