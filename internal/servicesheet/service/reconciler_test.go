package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop_backend/internal/events"
	"repairshop_backend/internal/servicesheet/domain"
	"repairshop_backend/internal/servicesheet/repository"
	"repairshop_backend/platform/apperr"
	"repairshop_backend/platform/logger"
)

type fixture struct {
	repo       *fakeRepo
	bus        *events.InMemoryBus
	recorder   *recordingHandler
	reconciler *Reconciler

	leadID           uuid.UUID
	trayID           uuid.UUID
	repairsDept      uuid.UUID
	repairsPipeline  uuid.UUID
	clipper          uuid.UUID
	trimmer          uuid.UUID
	sharpen          uuid.UUID
	polish           uuid.UUID
	blade            uuid.UUID
	comb             uuid.UUID
	actor            Actor
	technicianA      uuid.UUID
	technicianB      uuid.UUID
	catalogs         domain.Catalogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:            newFakeRepo(),
		recorder:        &recordingHandler{},
		leadID:          uuid.New(),
		trayID:          uuid.New(),
		repairsDept:     uuid.New(),
		repairsPipeline: uuid.New(),
		clipper:         uuid.New(),
		trimmer:         uuid.New(),
		sharpen:         uuid.New(),
		polish:          uuid.New(),
		blade:           uuid.New(),
		comb:            uuid.New(),
		actor:           Actor{ID: uuid.New(), Email: "desk@example.com"},
		technicianA:     uuid.New(),
		technicianB:     uuid.New(),
	}

	reception := "Reception"
	f.repo.trays[f.trayID] = repository.Tray{ID: f.trayID, LeadID: f.leadID, Number: "T-17", PipelineName: &reception}
	f.repo.users[f.actor.ID] = repository.User{ID: f.actor.ID, Email: f.actor.Email, DisplayName: "Desk"}
	f.repo.users[f.technicianA] = repository.User{ID: f.technicianA, Email: "ana@example.com", DisplayName: "Ana"}
	f.repo.users[f.technicianB] = repository.User{ID: f.technicianB, Email: "bo@example.com", DisplayName: "Bo"}

	f.catalogs = domain.Catalogs{
		Services: []domain.CatalogService{
			{ID: f.sharpen, Name: "Sharpen", Price: decimal.NewFromInt(100), DepartmentID: &f.repairsDept, InstrumentID: &f.clipper},
			{ID: f.polish, Name: "Polish", Price: decimal.NewFromInt(80), DepartmentID: &f.repairsDept, InstrumentID: &f.clipper},
		},
		Parts: []domain.CatalogPart{
			{ID: f.blade, Name: "Blade", Price: decimal.NewFromInt(5)},
			{ID: f.comb, Name: "Comb", Price: decimal.NewFromInt(7)},
		},
		Instruments: []domain.Instrument{
			{ID: f.clipper, Name: "Clipper", DepartmentID: &f.repairsDept},
			{ID: f.trimmer, Name: "Trimmer", DepartmentID: &f.repairsDept},
		},
		Pipelines: []domain.Pipeline{
			{ID: f.repairsPipeline, Name: "Repairs", DepartmentID: &f.repairsDept},
			{ID: uuid.New(), Name: "Reception"},
		},
	}

	log := logger.New("test")
	catalog := &fakeCatalog{catalogs: f.catalogs, departments: []domain.Department{{ID: f.repairsDept, Name: "Repairs"}}}
	rules := domain.DefaultRules()

	f.bus = events.NewInMemoryBus(log)
	f.bus.Subscribe(events.TechnicianAssigned{}.EventName(), f.recorder)
	f.bus.Subscribe(events.ServiceSheetSaved{}.EventName(), f.recorder)

	f.reconciler = NewReconciler(f.repo, NewResolver(f.repo, f.repo, catalog), NewComposer(rules), NewAuditLogger(f.repo), f.bus, rules, log)
	return f
}

func (f *fixture) input(working []domain.WorkingItem, prev []domain.Snapshot) ReconcileInput {
	return ReconcileInput{
		LeadID:     f.leadID,
		TrayID:     f.trayID,
		WorkingSet: working,
		Previous:   prev,
		Catalogs:   f.catalogs,
		Actor:      f.actor,
	}
}

func (f *fixture) reconcile(t *testing.T, in ReconcileInput) ReconcileResult {
	t.Helper()
	result, err := f.reconciler.Reconcile(context.Background(), in)
	require.NoError(t, err)
	f.bus.Wait()
	return result
}

func newService(f *fixture, urgent bool) domain.WorkingItem {
	return domain.WorkingItem{Ref: domain.ServiceRef{ServiceID: f.sharpen}, Qty: 1, Urgent: urgent}
}

func workingFrom(s domain.Snapshot) domain.WorkingItem {
	id := s.ID
	price, discount := s.Price, s.Discount
	var ref domain.Reference
	switch s.Type {
	case domain.KindService:
		ref = domain.ServiceRef{ServiceID: *s.ServiceID}
	case domain.KindPart:
		ref = domain.PartRef{PartID: s.PartID}
	default:
		ref = domain.InstrumentRef{}
	}
	return domain.WorkingItem{
		ID:           &id,
		Ref:          ref,
		InstrumentID: s.InstrumentID,
		DepartmentID: s.DepartmentID,
		TechnicianID: s.TechnicianID,
		Name:         s.Name,
		Qty:          s.Qty,
		Price:        &price,
		DiscountPct:  &discount,
		Urgent:       s.Urgent,
		Brand:        s.Brand,
		Serial:       s.Serial,
		Warranty:     s.Warranty,
		Pipeline:     s.Pipeline,
	}
}

func TestCreateInsideDepartmentPipelineLeavesTechnicianEmpty(t *testing.T) {
	f := newFixture(t)
	in := f.input([]domain.WorkingItem{newService(f, false)}, nil)
	in.ActivePipelineID = &f.repairsPipeline

	result := f.reconcile(t, in)

	require.Len(t, result.Items, 1)
	assert.Nil(t, result.Items[0].TechnicianID)
	assert.Empty(t, f.recorder.assigned())
	assert.Empty(t, f.repo.auditOfType(EventTechnicianAssigned))
}

func TestCreateOutsideDepartmentPipelineAssignsActor(t *testing.T) {
	f := newFixture(t)

	result := f.reconcile(t, f.input([]domain.WorkingItem{newService(f, false)}, nil))

	require.Len(t, result.Items, 1)
	item := result.Items[0]
	require.NotNil(t, item.TechnicianID)
	assert.Equal(t, f.actor.ID, *item.TechnicianID)
	assert.Equal(t, f.repairsDept, item.DepartmentID)
	assert.Equal(t, "Repairs", item.Pipeline)
	assert.Equal(t, "Sharpen", item.Attrs.Name)
	require.NotNil(t, item.InstrumentID)
	assert.Equal(t, f.clipper, *item.InstrumentID)

	assigned := f.recorder.assigned()
	require.Len(t, assigned, 1)
	assert.Equal(t, f.actor.ID, assigned[0].TechnicianID)
	assert.Nil(t, assigned[0].PreviousTechnicianID)
	require.Len(t, f.repo.auditOfType(EventTechnicianAssigned), 1)
}

func TestExplicitTechnicianWins(t *testing.T) {
	f := newFixture(t)
	w := newService(f, false)
	w.TechnicianID = &f.technicianA
	in := f.input([]domain.WorkingItem{w}, nil)
	in.ActivePipelineID = &f.repairsPipeline

	result := f.reconcile(t, in)

	require.NotNil(t, result.Items[0].TechnicianID)
	assert.Equal(t, f.technicianA, *result.Items[0].TechnicianID)
}

func TestPartWithoutPlacementFailsAndCreatesNothing(t *testing.T) {
	f := newFixture(t)
	part := domain.WorkingItem{Ref: domain.PartRef{}, Name: "Blade", Qty: 1}

	_, err := f.reconciler.Reconcile(context.Background(), f.input([]domain.WorkingItem{part}, nil))

	require.Error(t, err)
	assert.Equal(t, apperr.KindUnprocessable, apperr.GetKind(err))
	assert.Zero(t, f.repo.creates)
	assert.Empty(t, f.repo.items)
	assert.Empty(t, f.repo.audit)
}

func TestPartBorrowsPlacementFromServiceInSameSave(t *testing.T) {
	f := newFixture(t)
	part := domain.WorkingItem{Ref: domain.PartRef{}, Name: "Blade", Qty: 2, Price: ptrDecimal(5)}

	result := f.reconcile(t, f.input([]domain.WorkingItem{part, newService(f, false)}, nil))

	require.Len(t, result.Items, 2)
	created := result.Items[1]
	assert.Equal(t, domain.KindPart, created.Kind())
	assert.Equal(t, f.repairsDept, created.DepartmentID)
	require.NotNil(t, created.InstrumentID)
	assert.Equal(t, f.clipper, *created.InstrumentID)
}

func TestPartUsesFallbackDepartment(t *testing.T) {
	f := newFixture(t)
	fallback := uuid.New()
	rules, err := domain.ParseRules([]byte("parts_fallback_department_id: " + fallback.String() + "\n"))
	require.NoError(t, err)
	f.reconciler.rules = rules

	result := f.reconcile(t, f.input([]domain.WorkingItem{{Ref: domain.PartRef{}, Name: "Blade"}}, nil))

	require.Len(t, result.Items, 1)
	assert.Equal(t, fallback, result.Items[0].DepartmentID)
	assert.Nil(t, result.Items[0].InstrumentID)
}

func TestFailureRollsBackEarlierWrites(t *testing.T) {
	f := newFixture(t)
	instrument := domain.WorkingItem{Ref: domain.InstrumentRef{}, InstrumentID: &f.clipper}
	unknown := domain.WorkingItem{Ref: domain.ServiceRef{ServiceID: uuid.New()}}

	_, err := f.reconciler.Reconcile(context.Background(), f.input([]domain.WorkingItem{instrument, unknown}, nil))

	require.Error(t, err)
	assert.Equal(t, apperr.KindUnprocessable, apperr.GetKind(err))
	assert.Empty(t, f.repo.items)
}

func TestRerunWithReturnedSnapshotChangesNothing(t *testing.T) {
	f := newFixture(t)
	first := f.reconcile(t, f.input([]domain.WorkingItem{newService(f, true)}, nil))
	require.Len(t, first.Snapshot, 1)
	createsAfterFirst := f.repo.creates

	working := make([]domain.WorkingItem, 0, len(first.Snapshot))
	for _, s := range first.Snapshot {
		working = append(working, workingFrom(s))
	}
	second := f.reconcile(t, f.input(working, first.Snapshot))

	assert.True(t, second.Diff.IsEmpty())
	assert.Equal(t, createsAfterFirst, f.repo.creates)
	assert.Zero(t, f.repo.updates)
	assert.Zero(t, f.repo.deletes)
	assert.Equal(t, first.Snapshot, second.Snapshot)
	assert.NotContains(t, second.Headline, "Added")
}

func TestTechnicianChangeIsAudited(t *testing.T) {
	f := newFixture(t)
	w := newService(f, false)
	w.TechnicianID = &f.technicianA
	first := f.reconcile(t, f.input([]domain.WorkingItem{w}, nil))

	next := workingFrom(first.Snapshot[0])
	next.TechnicianID = &f.technicianB
	next.Qty = 2
	second := f.reconcile(t, f.input([]domain.WorkingItem{next}, first.Snapshot))

	require.Len(t, second.Diff.Updated, 1)
	changes := second.Diff.Updated[0].Changes
	assert.Len(t, changes, 2)
	assert.Equal(t, f.technicianA, changes[domain.FieldTechnician].Old)
	assert.Equal(t, f.technicianB, changes[domain.FieldTechnician].New)

	assigned := f.recorder.assigned()
	require.Len(t, assigned, 2)
	last := assigned[1]
	if last.TechnicianID != f.technicianB {
		last = assigned[0]
	}
	assert.Equal(t, f.technicianB, last.TechnicianID)
	require.NotNil(t, last.PreviousTechnicianID)
	assert.Equal(t, f.technicianA, *last.PreviousTechnicianID)

	audits := f.repo.auditOfType(EventTechnicianAssigned)
	require.Len(t, audits, 2)
	assert.Equal(t, "Technician Bo assigned to Sharpen (previously Ana)", audits[1].Message)
	assert.Equal(t, repository.ScopeTray, audits[1].ScopeType)
}

func TestRemovedAndAddedLinesAreDiffed(t *testing.T) {
	f := newFixture(t)
	first := f.reconcile(t, f.input([]domain.WorkingItem{newService(f, false), newService(f, false)}, nil))
	require.Len(t, first.Snapshot, 2)

	kept := workingFrom(first.Snapshot[0])
	part := domain.WorkingItem{Ref: domain.PartRef{}, Name: "Blade", Qty: 1}
	second := f.reconcile(t, f.input([]domain.WorkingItem{kept, part}, first.Snapshot))

	require.Len(t, second.Diff.Removed, 1)
	assert.Equal(t, first.Snapshot[1].ID, second.Diff.Removed[0].ID)
	require.Len(t, second.Diff.Added, 1)
	assert.Equal(t, "Blade", second.Diff.Added[0].Name)
	assert.Empty(t, second.Diff.Updated)
	assert.Len(t, f.repo.items, 2)
	assert.Contains(t, second.Headline, "Added: Blade")
	assert.Contains(t, second.Headline, "Removed: Sharpen")
}

func TestSaveAuditCarriesTotals(t *testing.T) {
	f := newFixture(t)

	result := f.reconcile(t, f.input([]domain.WorkingItem{newService(f, true)}, nil))

	saves := f.repo.auditOfType(EventServiceSheetSave)
	require.Len(t, saves, 1)
	assert.Equal(t, repository.ScopeLead, saves[0].ScopeType)
	assert.Equal(t, f.leadID, saves[0].ScopeID)
	assert.Equal(t, result.Headline, saves[0].Message)
	assert.Contains(t, saves[0].Message, "total: 110.00")

	payload, ok := saves[0].Payload.(SavePayload)
	require.True(t, ok)
	assert.True(t, payload.Totals.TotalAmount.Equal(decimal.NewFromInt(110)))
	assert.Equal(t, 1, payload.Totals.UrgentLines)
	assert.Equal(t, "caller", payload.Baseline.Source)
	require.Len(t, payload.InstrumentUsage, 1)
	assert.Equal(t, "Clipper", payload.InstrumentUsage[0].Name)
	require.NotNil(t, payload.Tray)
	assert.Equal(t, "T-17", payload.Tray.Number)
}

func TestAuditFailureDoesNotFailSave(t *testing.T) {
	f := newFixture(t)
	f.repo.auditErr = errors.New("audit store down")

	result, err := f.reconciler.Reconcile(context.Background(), f.input([]domain.WorkingItem{newService(f, false)}, nil))
	f.bus.Wait()

	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.NotEmpty(t, result.Headline)
}

func TestStaleBaselineIsRecorded(t *testing.T) {
	f := newFixture(t)
	ghost := domain.Snapshot{ID: uuid.New(), Name: "Ghost", Qty: 1, Type: domain.KindService}

	f.reconcile(t, f.input(nil, []domain.Snapshot{ghost}))

	saves := f.repo.auditOfType(EventServiceSheetSave)
	require.Len(t, saves, 1)
	payload := saves[0].Payload.(SavePayload)
	assert.Equal(t, []uuid.UUID{ghost.ID}, payload.Baseline.StaleIDs)
}

func TestTrayOfAnotherLeadIsRejected(t *testing.T) {
	f := newFixture(t)
	in := f.input([]domain.WorkingItem{newService(f, false)}, nil)
	in.LeadID = uuid.New()

	_, err := f.reconciler.Reconcile(context.Background(), in)

	assert.Equal(t, apperr.KindValidation, apperr.GetKind(err))
	assert.Empty(t, f.repo.items)
}

func TestInstrumentBecomesService(t *testing.T) {
	f := newFixture(t)
	first := f.reconcile(t, f.input([]domain.WorkingItem{{Ref: domain.InstrumentRef{}, InstrumentID: &f.clipper}}, nil))
	require.Len(t, first.Snapshot, 1)

	next := workingFrom(first.Snapshot[0])
	next.Ref = domain.ServiceRef{ServiceID: f.sharpen}
	next.Price = nil
	second := f.reconcile(t, f.input([]domain.WorkingItem{next}, first.Snapshot))

	require.Len(t, second.Items, 1)
	item := second.Items[0]
	assert.Equal(t, domain.KindService, item.Kind())
	assert.True(t, item.Attrs.UnitPrice.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "Repairs", item.Pipeline)
	require.Len(t, second.Diff.Updated, 1)
	assert.Contains(t, second.Diff.Updated[0].Changes, domain.FieldType)
}

func TestServiceSwapReResolvesLine(t *testing.T) {
	f := newFixture(t)
	first := f.reconcile(t, f.input([]domain.WorkingItem{newService(f, false)}, nil))
	require.Len(t, first.Snapshot, 1)

	next := workingFrom(first.Snapshot[0])
	next.Ref = domain.ServiceRef{ServiceID: f.polish}
	next.Name = ""
	next.Price = nil
	second := f.reconcile(t, f.input([]domain.WorkingItem{next}, first.Snapshot))

	assert.Equal(t, 1, f.repo.updates)
	require.Len(t, second.Items, 1)
	item := second.Items[0]
	assert.Equal(t, domain.ServiceRef{ServiceID: f.polish}, item.Ref)
	assert.Equal(t, "Polish", item.Attrs.Name)
	assert.True(t, item.Attrs.UnitPrice.Equal(decimal.NewFromInt(80)))

	require.Len(t, second.Diff.Updated, 1)
	changes := second.Diff.Updated[0].Changes
	require.Contains(t, changes, domain.FieldService)
	assert.Equal(t, f.sharpen, changes[domain.FieldService].Old)
	assert.Equal(t, f.polish, changes[domain.FieldService].New)
	assert.Contains(t, changes, domain.FieldPrice)
}

func TestPartSwapPicksUpCatalogPrice(t *testing.T) {
	f := newFixture(t)
	part := domain.WorkingItem{Ref: domain.PartRef{PartID: &f.blade}, Name: "Blade", Qty: 1}
	first := f.reconcile(t, f.input([]domain.WorkingItem{newService(f, false), part}, nil))
	require.Len(t, first.Snapshot, 2)
	partSnap := first.Snapshot[1]
	require.Equal(t, domain.KindPart, partSnap.Type)
	require.True(t, partSnap.Price.Equal(decimal.NewFromInt(5)))

	next := workingFrom(partSnap)
	next.Ref = domain.PartRef{PartID: &f.comb}
	next.Price = nil
	second := f.reconcile(t, f.input([]domain.WorkingItem{workingFrom(first.Snapshot[0]), next}, first.Snapshot))

	assert.Equal(t, 1, f.repo.updates)
	require.Len(t, second.Items, 2)
	item := second.Items[1]
	assert.Equal(t, domain.PartRef{PartID: &f.comb}, item.Ref)
	assert.True(t, item.Attrs.UnitPrice.Equal(decimal.NewFromInt(7)))

	require.Len(t, second.Diff.Updated, 1)
	changes := second.Diff.Updated[0].Changes
	require.Contains(t, changes, domain.FieldPart)
	assert.Equal(t, f.blade, changes[domain.FieldPart].Old)
	assert.Equal(t, f.comb, changes[domain.FieldPart].New)
}

func TestUnknownPartSwapIsRejected(t *testing.T) {
	f := newFixture(t)
	part := domain.WorkingItem{Ref: domain.PartRef{PartID: &f.blade}, Name: "Blade", Qty: 1}
	first := f.reconcile(t, f.input([]domain.WorkingItem{newService(f, false), part}, nil))
	require.Len(t, first.Snapshot, 2)

	unknown := uuid.New()
	next := workingFrom(first.Snapshot[1])
	next.Ref = domain.PartRef{PartID: &unknown}
	_, err := f.reconciler.Reconcile(context.Background(), f.input([]domain.WorkingItem{workingFrom(first.Snapshot[0]), next}, first.Snapshot))

	assert.Equal(t, apperr.KindUnprocessable, apperr.GetKind(err))
	assert.Zero(t, f.repo.updates)
	stored, listErr := f.repo.ListItems(context.Background(), f.trayID)
	require.NoError(t, listErr)
	assert.Equal(t, domain.PartRef{PartID: &f.blade}, stored[1].Ref)
}

func TestInstrumentSwapIsPersisted(t *testing.T) {
	f := newFixture(t)
	first := f.reconcile(t, f.input([]domain.WorkingItem{{Ref: domain.InstrumentRef{}, InstrumentID: &f.clipper}}, nil))
	require.Len(t, first.Snapshot, 1)

	next := workingFrom(first.Snapshot[0])
	next.InstrumentID = &f.trimmer
	second := f.reconcile(t, f.input([]domain.WorkingItem{next}, first.Snapshot))

	require.Len(t, second.Items, 1)
	require.NotNil(t, second.Items[0].InstrumentID)
	assert.Equal(t, f.trimmer, *second.Items[0].InstrumentID)
	require.Len(t, second.Diff.Updated, 1)
	assert.Contains(t, second.Diff.Updated[0].Changes, domain.FieldInstrument)
}

func TestUserLookupsAreBatchedPerSave(t *testing.T) {
	f := newFixture(t)
	first := newService(f, false)
	first.TechnicianID = &f.technicianA
	second := newService(f, false)
	second.TechnicianID = &f.technicianB
	third := newService(f, false)
	third.TechnicianID = &f.technicianA

	result := f.reconcile(t, f.input([]domain.WorkingItem{first, second, third}, nil))

	require.Len(t, result.Items, 3)
	assert.Equal(t, 1, f.repo.userQuerys)
}

func TestPartBorrowsPlacementFromInstrumentLine(t *testing.T) {
	f := newFixture(t)
	first := f.reconcile(t, f.input([]domain.WorkingItem{{Ref: domain.InstrumentRef{}, InstrumentID: &f.trimmer}}, nil))
	require.Len(t, first.Snapshot, 1)

	part := domain.WorkingItem{Ref: domain.PartRef{}, Name: "Blade", Qty: 1}
	second := f.reconcile(t, f.input([]domain.WorkingItem{workingFrom(first.Snapshot[0]), part}, first.Snapshot))

	require.Len(t, second.Items, 2)
	created := second.Items[1]
	assert.Equal(t, domain.KindPart, created.Kind())
	assert.Equal(t, f.repairsDept, created.DepartmentID)
	require.NotNil(t, created.InstrumentID)
	assert.Equal(t, f.trimmer, *created.InstrumentID)
}

func TestExplicitPartPlacementWinsOverService(t *testing.T) {
	f := newFixture(t)
	otherDept := uuid.New()
	part := domain.WorkingItem{
		Ref:          domain.PartRef{},
		Name:         "Blade",
		Qty:          1,
		InstrumentID: &f.trimmer,
		DepartmentID: &otherDept,
	}

	result := f.reconcile(t, f.input([]domain.WorkingItem{newService(f, false), part}, nil))

	require.Len(t, result.Items, 2)
	created := result.Items[1]
	assert.Equal(t, otherDept, created.DepartmentID)
	require.NotNil(t, created.InstrumentID)
	assert.Equal(t, f.trimmer, *created.InstrumentID)
}

func TestBareInstrumentWithoutInstrumentFails(t *testing.T) {
	f := newFixture(t)
	bare := domain.WorkingItem{Ref: domain.InstrumentRef{}, Name: "Mystery"}

	_, err := f.reconciler.Reconcile(context.Background(), f.input([]domain.WorkingItem{newService(f, false), bare}, nil))

	require.Error(t, err)
	assert.Equal(t, apperr.KindUnprocessable, apperr.GetKind(err))
	assert.Empty(t, f.repo.items)
	assert.Empty(t, f.repo.audit)
}

func TestTypeChangeToServiceAppliesTechnicianRule(t *testing.T) {
	f := newFixture(t)
	in := f.input([]domain.WorkingItem{{Ref: domain.InstrumentRef{}, InstrumentID: &f.clipper}}, nil)
	in.ActivePipelineID = &f.repairsPipeline
	first := f.reconcile(t, in)
	require.Len(t, first.Snapshot, 1)
	require.Nil(t, first.Snapshot[0].TechnicianID)
	require.Empty(t, f.recorder.assigned())

	next := workingFrom(first.Snapshot[0])
	next.Ref = domain.ServiceRef{ServiceID: f.sharpen}
	second := f.reconcile(t, f.input([]domain.WorkingItem{next}, first.Snapshot))

	require.Len(t, second.Items, 1)
	require.NotNil(t, second.Items[0].TechnicianID)
	assert.Equal(t, f.actor.ID, *second.Items[0].TechnicianID)

	assigned := f.recorder.assigned()
	require.Len(t, assigned, 1)
	assert.Equal(t, f.actor.ID, assigned[0].TechnicianID)
	assert.Nil(t, assigned[0].PreviousTechnicianID)
	assert.Len(t, f.repo.auditOfType(EventTechnicianAssigned), 1)
}

func TestValidationRejectsBadDiscount(t *testing.T) {
	f := newFixture(t)
	w := newService(f, false)
	w.DiscountPct = ptrDecimal(150)

	_, err := f.reconciler.Reconcile(context.Background(), f.input([]domain.WorkingItem{w}, nil))

	assert.Equal(t, apperr.KindValidation, apperr.GetKind(err))
	assert.True(t, strings.Contains(err.Error(), "discount"))
}

func ptrDecimal(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
