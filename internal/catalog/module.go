// Package catalog provides the catalog bounded context module.
package catalog

import (
	"repairshop_backend/internal/catalog/handler"
	"repairshop_backend/internal/catalog/repository"
	"repairshop_backend/internal/catalog/service"
	"repairshop_backend/internal/events"
	apphttp "repairshop_backend/internal/http"
	"repairshop_backend/platform/cache"
	"repairshop_backend/platform/config"
	"repairshop_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the catalog module.
func NewModule(pool *pgxpool.Pool, c cache.Cache, cfg config.CacheConfig, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, c, cfg.GetCacheTTL(), bus, log)

	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/catalog", m.handler.GetCatalog)
	ctx.Admin.POST("/catalog/cache/invalidate", m.handler.InvalidateCache)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
