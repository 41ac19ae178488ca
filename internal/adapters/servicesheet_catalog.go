package adapters

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	catrepo "repairshop_backend/internal/catalog/repository"
	"repairshop_backend/internal/servicesheet/domain"
)

// CatalogSource is the cached catalog surface the service sheet reads from.
type CatalogSource interface {
	Departments(ctx context.Context) ([]catrepo.Department, error)
	Services(ctx context.Context) ([]catrepo.Service, error)
	Parts(ctx context.Context) ([]catrepo.Part, error)
	Instruments(ctx context.Context) ([]catrepo.Instrument, error)
	Pipelines(ctx context.Context) ([]catrepo.Pipeline, error)
}

// ServiceSheetCatalog adapts the catalog service for the service sheet domain,
// satisfying servicesheet service.CatalogReader.
type ServiceSheetCatalog struct {
	src CatalogSource
}

// NewServiceSheetCatalog creates a new catalog reader adapter.
func NewServiceSheetCatalog(src CatalogSource) *ServiceSheetCatalog {
	return &ServiceSheetCatalog{src: src}
}

// Catalogs loads services, parts, instruments and pipelines concurrently.
func (a *ServiceSheetCatalog) Catalogs(ctx context.Context) (domain.Catalogs, error) {
	var (
		services    []catrepo.Service
		parts       []catrepo.Part
		instruments []catrepo.Instrument
		pipelines   []catrepo.Pipeline
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		services, err = a.src.Services(gctx)
		return wrapCatalog("services", err)
	})
	g.Go(func() (err error) {
		parts, err = a.src.Parts(gctx)
		return wrapCatalog("parts", err)
	})
	g.Go(func() (err error) {
		instruments, err = a.src.Instruments(gctx)
		return wrapCatalog("instruments", err)
	})
	g.Go(func() (err error) {
		pipelines, err = a.src.Pipelines(gctx)
		return wrapCatalog("pipelines", err)
	})
	if err := g.Wait(); err != nil {
		return domain.Catalogs{}, err
	}

	out := domain.Catalogs{
		Services:    make([]domain.CatalogService, 0, len(services)),
		Parts:       make([]domain.CatalogPart, 0, len(parts)),
		Instruments: make([]domain.Instrument, 0, len(instruments)),
		Pipelines:   make([]domain.Pipeline, 0, len(pipelines)),
	}
	for _, s := range services {
		out.Services = append(out.Services, domain.CatalogService{
			ID:           s.ID,
			Name:         s.Name,
			Price:        s.Price,
			DepartmentID: s.DepartmentID,
			InstrumentID: s.InstrumentID,
		})
	}
	for _, p := range parts {
		out.Parts = append(out.Parts, domain.CatalogPart{ID: p.ID, Name: p.Name, Price: p.Price})
	}
	for _, i := range instruments {
		out.Instruments = append(out.Instruments, domain.Instrument{ID: i.ID, Name: i.Name, DepartmentID: i.DepartmentID})
	}
	for _, p := range pipelines {
		out.Pipelines = append(out.Pipelines, domain.Pipeline{ID: p.ID, Name: p.Name, DepartmentID: p.DepartmentID})
	}
	return out, nil
}

// Departments returns all departments.
func (a *ServiceSheetCatalog) Departments(ctx context.Context) ([]domain.Department, error) {
	items, err := a.src.Departments(ctx)
	if err != nil {
		return nil, wrapCatalog("departments", err)
	}
	out := make([]domain.Department, 0, len(items))
	for _, d := range items {
		out = append(out, domain.Department{ID: d.ID, Name: d.Name})
	}
	return out, nil
}

func wrapCatalog(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("catalog adapter: list %s: %w", what, err)
}
