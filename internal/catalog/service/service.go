package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"repairshop_backend/internal/catalog/repository"
	"repairshop_backend/internal/catalog/transport"
	"repairshop_backend/internal/events"
	"repairshop_backend/platform/cache"
	"repairshop_backend/platform/logger"
)

// KeyPrefix namespaces every catalog cache entry.
const KeyPrefix = "catalog:"

const (
	keyDepartments = KeyPrefix + "departments"
	keyServices    = KeyPrefix + "services"
	keyParts       = KeyPrefix + "parts"
	keyInstruments = KeyPrefix + "instruments"
	keyPipelines   = KeyPrefix + "pipelines"
)

// Service serves reference data through a read-through cache.
type Service struct {
	repo  repository.Reader
	cache cache.Cache
	ttl   time.Duration
	bus   events.Bus
	log   *logger.Logger
}

// New creates a new catalog service.
func New(repo repository.Reader, c cache.Cache, ttl time.Duration, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cache: c, ttl: ttl, bus: bus, log: log}
}

func (s *Service) Departments(ctx context.Context) ([]repository.Department, error) {
	return cache.GetOrLoad(ctx, s.cache, keyDepartments, s.ttl, s.repo.ListDepartments)
}

func (s *Service) Services(ctx context.Context) ([]repository.Service, error) {
	return cache.GetOrLoad(ctx, s.cache, keyServices, s.ttl, s.repo.ListServices)
}

func (s *Service) Parts(ctx context.Context) ([]repository.Part, error) {
	return cache.GetOrLoad(ctx, s.cache, keyParts, s.ttl, s.repo.ListParts)
}

func (s *Service) Instruments(ctx context.Context) ([]repository.Instrument, error) {
	return cache.GetOrLoad(ctx, s.cache, keyInstruments, s.ttl, s.repo.ListInstruments)
}

func (s *Service) Pipelines(ctx context.Context) ([]repository.Pipeline, error) {
	return cache.GetOrLoad(ctx, s.cache, keyPipelines, s.ttl, s.repo.ListPipelines)
}

// Catalog loads every reference list concurrently.
func (s *Service) Catalog(ctx context.Context) (transport.CatalogResponse, error) {
	var (
		departments []repository.Department
		services    []repository.Service
		parts       []repository.Part
		instruments []repository.Instrument
		pipelines   []repository.Pipeline
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { departments, err = s.Departments(gctx); return })
	g.Go(func() (err error) { services, err = s.Services(gctx); return })
	g.Go(func() (err error) { parts, err = s.Parts(gctx); return })
	g.Go(func() (err error) { instruments, err = s.Instruments(gctx); return })
	g.Go(func() (err error) { pipelines, err = s.Pipelines(gctx); return })
	if err := g.Wait(); err != nil {
		return transport.CatalogResponse{}, err
	}

	return transport.CatalogResponse{
		Departments: toDepartmentResponses(departments),
		Services:    toServiceResponses(services),
		Parts:       toPartResponses(parts),
		Instruments: toInstrumentResponses(instruments),
		Pipelines:   toPipelineResponses(pipelines),
	}, nil
}

// Invalidate drops all cached catalog entries so the next read hits the database.
func (s *Service) Invalidate(ctx context.Context, actorID uuid.UUID) (transport.InvalidateCacheResponse, error) {
	if err := s.cache.InvalidatePrefix(ctx, KeyPrefix); err != nil {
		return transport.InvalidateCacheResponse{}, err
	}

	s.log.Info("catalog cache invalidated", "actorId", actorID)
	s.bus.Publish(ctx, events.CatalogCacheInvalidated{
		BaseEvent: events.NewBaseEvent(),
		ActorID:   actorID,
		Prefix:    KeyPrefix,
	})
	return transport.InvalidateCacheResponse{Prefix: KeyPrefix}, nil
}

func toDepartmentResponses(items []repository.Department) []transport.DepartmentResponse {
	out := make([]transport.DepartmentResponse, 0, len(items))
	for _, d := range items {
		out = append(out, transport.DepartmentResponse{ID: d.ID, Name: d.Name})
	}
	return out
}

func toServiceResponses(items []repository.Service) []transport.ServiceResponse {
	out := make([]transport.ServiceResponse, 0, len(items))
	for _, s := range items {
		out = append(out, transport.ServiceResponse{
			ID:           s.ID,
			Name:         s.Name,
			Price:        s.Price,
			DepartmentID: s.DepartmentID,
			InstrumentID: s.InstrumentID,
		})
	}
	return out
}

func toPartResponses(items []repository.Part) []transport.PartResponse {
	out := make([]transport.PartResponse, 0, len(items))
	for _, p := range items {
		out = append(out, transport.PartResponse{ID: p.ID, Name: p.Name, Price: p.Price})
	}
	return out
}

func toInstrumentResponses(items []repository.Instrument) []transport.InstrumentResponse {
	out := make([]transport.InstrumentResponse, 0, len(items))
	for _, i := range items {
		out = append(out, transport.InstrumentResponse{ID: i.ID, Name: i.Name, DepartmentID: i.DepartmentID})
	}
	return out
}

func toPipelineResponses(items []repository.Pipeline) []transport.PipelineResponse {
	out := make([]transport.PipelineResponse, 0, len(items))
	for _, p := range items {
		stages := make([]transport.StageResponse, 0, len(p.Stages))
		for _, st := range p.Stages {
			stages = append(stages, transport.StageResponse{ID: st.ID, Name: st.Name, Position: st.Position})
		}
		out = append(out, transport.PipelineResponse{
			ID:           p.ID,
			Name:         p.Name,
			DepartmentID: p.DepartmentID,
			Stages:       stages,
		})
	}
	return out
}
