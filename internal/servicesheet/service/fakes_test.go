package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"repairshop_backend/internal/events"
	"repairshop_backend/internal/servicesheet/domain"
	"repairshop_backend/internal/servicesheet/repository"
	"repairshop_backend/platform/apperr"
)

type fakeRepo struct {
	mu         sync.Mutex
	trays      map[uuid.UUID]repository.Tray
	items      []domain.LineItem
	users      map[uuid.UUID]repository.User
	audit      []repository.CreateAuditEventParams
	auditErr   error
	clock      time.Time
	creates    int
	updates    int
	deletes    int
	userQuerys int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		trays: make(map[uuid.UUID]repository.Tray),
		users: make(map[uuid.UUID]repository.User),
		clock: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

var _ repository.Repository = (*fakeRepo)(nil)

func (r *fakeRepo) WithTx(ctx context.Context, fn func(items repository.ItemStore) error) error {
	r.mu.Lock()
	backup := append([]domain.LineItem(nil), r.items...)
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.items = backup
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *fakeRepo) ListItems(_ context.Context, trayID uuid.UUID) ([]domain.LineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.LineItem, 0)
	for _, item := range r.items {
		if item.TrayID == trayID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateItem(_ context.Context, params repository.CreateItemParams) (domain.LineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	r.clock = r.clock.Add(time.Second)
	item := domain.LineItem{
		ID:           uuid.New(),
		TrayID:       params.TrayID,
		Ref:          params.Ref,
		InstrumentID: params.InstrumentID,
		DepartmentID: params.DepartmentID,
		TechnicianID: params.TechnicianID,
		Pipeline:     params.Pipeline,
		Qty:          params.Qty,
		Attrs:        params.Attrs,
		CreatedAt:    r.clock,
		UpdatedAt:    r.clock,
	}
	r.items = append(r.items, item)
	return item, nil
}

func (r *fakeRepo) UpdateItem(_ context.Context, trayID, itemID uuid.UUID, patch domain.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, item := range r.items {
		if item.ID == itemID && item.TrayID == trayID {
			r.updates++
			r.items[i] = patch.Apply(item)
			return nil
		}
	}
	return apperr.NotFound("line item not found")
}

func (r *fakeRepo) DeleteItem(_ context.Context, trayID, itemID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, item := range r.items {
		if item.ID == itemID && item.TrayID == trayID {
			r.deletes++
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("line item not found")
}

func (r *fakeRepo) GetTray(_ context.Context, trayID uuid.UUID) (repository.Tray, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tray, ok := r.trays[trayID]
	if !ok {
		return repository.Tray{}, apperr.NotFound("tray not found")
	}
	return tray, nil
}

func (r *fakeRepo) ListUsersByIDs(_ context.Context, ids []uuid.UUID) ([]repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userQuerys++
	out := make([]repository.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateAuditEvent(_ context.Context, params repository.CreateAuditEventParams) (repository.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.auditErr != nil {
		return repository.AuditEvent{}, r.auditErr
	}
	r.audit = append(r.audit, params)
	return repository.AuditEvent{ID: uuid.New(), ScopeType: params.ScopeType, ScopeID: params.ScopeID, EventType: params.EventType, Message: params.Message}, nil
}

func (r *fakeRepo) ListAuditEvents(_ context.Context, params repository.ListAuditEventsParams) ([]repository.AuditEvent, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeRepo) auditOfType(eventType string) []repository.CreateAuditEventParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.CreateAuditEventParams
	for _, a := range r.audit {
		if a.EventType == eventType {
			out = append(out, a)
		}
	}
	return out
}

type fakeCatalog struct {
	catalogs    domain.Catalogs
	departments []domain.Department
}

func (c *fakeCatalog) Catalogs(context.Context) (domain.Catalogs, error) {
	return c.catalogs, nil
}

func (c *fakeCatalog) Departments(context.Context) ([]domain.Department, error) {
	return c.departments, nil
}

type recordingHandler struct {
	mu     sync.Mutex
	events []events.Event
}

func (h *recordingHandler) Handle(_ context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHandler) assigned() []events.TechnicianAssigned {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []events.TechnicianAssigned
	for _, e := range h.events {
		if ta, ok := e.(events.TechnicianAssigned); ok {
			out = append(out, ta)
		}
	}
	return out
}
