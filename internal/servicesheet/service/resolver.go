package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader/v7"
	"golang.org/x/sync/errgroup"

	"repairshop_backend/internal/servicesheet/domain"
	"repairshop_backend/internal/servicesheet/repository"
	"repairshop_backend/platform/apperr"
)

// References is the display data an audit message needs. Lookups that failed
// leave their map empty or Tray nil.
type References struct {
	Users       map[uuid.UUID]repository.User
	Departments map[uuid.UUID]string
	Tray        *repository.Tray
}

// User returns the resolved user, if any.
func (r References) User(id uuid.UUID) (repository.User, bool) {
	u, ok := r.Users[id]
	return u, ok
}

// DepartmentName falls back to the id when the department is unknown.
func (r References) DepartmentName(id uuid.UUID) string {
	if name, ok := r.Departments[id]; ok {
		return name
	}
	return id.String()
}

// Resolver loads technicians, departments and tray info for a save in one
// concurrent round.
type Resolver struct {
	users   repository.UserReader
	trays   repository.TrayReader
	catalog CatalogReader
}

// NewResolver creates a resolver.
func NewResolver(users repository.UserReader, trays repository.TrayReader, catalog CatalogReader) *Resolver {
	return &Resolver{users: users, trays: trays, catalog: catalog}
}

// Resolve fetches all references at once. Each lookup runs to completion on
// its own; on error the returned References still holds whatever did load and
// the error joins every failed lookup.
func (r *Resolver) Resolve(ctx context.Context, trayID uuid.UUID, userIDs []uuid.UUID) (References, error) {
	refs := References{
		Users:       make(map[uuid.UUID]repository.User),
		Departments: make(map[uuid.UUID]string),
	}

	var (
		g           errgroup.Group
		users       []repository.User
		departments map[uuid.UUID]string
		tray        *repository.Tray

		userErr, deptErr, trayErr error
	)
	g.Go(func() error {
		users, userErr = r.loadUsers(ctx, userIDs)
		return nil
	})
	g.Go(func() error {
		var list []domain.Department
		list, deptErr = r.catalog.Departments(ctx)
		if deptErr != nil {
			return nil
		}
		departments = make(map[uuid.UUID]string, len(list))
		for _, d := range list {
			departments[d.ID] = d.Name
		}
		return nil
	})
	g.Go(func() error {
		t, err := r.trays.GetTray(ctx, trayID)
		if err != nil {
			trayErr = err
			return nil
		}
		tray = &t
		return nil
	})
	_ = g.Wait()
	err := errors.Join(userErr, deptErr, trayErr)

	for _, u := range users {
		refs.Users[u.ID] = u
	}
	for id, name := range departments {
		refs.Departments[id] = name
	}
	refs.Tray = tray
	return refs, err
}

// loadUsers batches ids through a dataloader so duplicates collapse and large
// sets are split into bounded queries. Unknown users are skipped.
func (r *Resolver) loadUsers(ctx context.Context, ids []uuid.UUID) ([]repository.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	loader := dataloader.NewBatchedLoader(r.batchUsers,
		dataloader.WithBatchCapacity[uuid.UUID, repository.User](100),
		dataloader.WithWait[uuid.UUID, repository.User](time.Millisecond),
	)

	values, errs := loader.LoadMany(ctx, ids)()
	users := make([]repository.User, 0, len(values))
	for i, value := range values {
		if i < len(errs) && errs[i] != nil {
			if apperr.Is(errs[i], apperr.KindNotFound) {
				continue
			}
			return users, errs[i]
		}
		users = append(users, value)
	}
	return users, nil
}

func (r *Resolver) batchUsers(ctx context.Context, ids []uuid.UUID) []*dataloader.Result[repository.User] {
	results := make([]*dataloader.Result[repository.User], len(ids))

	users, err := r.users.ListUsersByIDs(ctx, ids)
	if err != nil {
		for i := range results {
			results[i] = &dataloader.Result[repository.User]{Error: err}
		}
		return results
	}

	byID := make(map[uuid.UUID]repository.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i, id := range ids {
		if u, ok := byID[id]; ok {
			results[i] = &dataloader.Result[repository.User]{Data: u}
			continue
		}
		results[i] = &dataloader.Result[repository.User]{Error: apperr.NotFound("user not found")}
	}
	return results
}
