// Package servicesheet provides the service sheet bounded context module.
package servicesheet

import (
	"repairshop_backend/internal/events"
	apphttp "repairshop_backend/internal/http"
	"repairshop_backend/internal/servicesheet/domain"
	"repairshop_backend/internal/servicesheet/handler"
	"repairshop_backend/internal/servicesheet/repository"
	"repairshop_backend/internal/servicesheet/service"
	"repairshop_backend/platform/logger"
	"repairshop_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the service sheet bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the service sheet module.
func NewModule(pool *pgxpool.Pool, catalog service.CatalogReader, bus events.Bus, rules domain.Rules, val *validator.Validator, log *logger.Logger) (*Module, error) {
	if err := val.RegisterValidation("itemkind", validator.OneOfFunc(
		string(domain.KindService),
		string(domain.KindPart),
		string(domain.KindInstrument),
	)); err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	svc := service.New(repo, catalog, bus, rules, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "servicesheet"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts service sheet routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leads := ctx.Protected.Group("/leads/:leadId")
	if ctx.WriteRateLimiter != nil {
		leads.POST("/trays/:trayId/service-sheet", ctx.WriteRateLimiter.RateLimit(), m.handler.SaveServiceSheet)
	} else {
		leads.POST("/trays/:trayId/service-sheet", m.handler.SaveServiceSheet)
	}
	leads.GET("/audit-events", m.handler.ListLeadAuditEvents)

	trays := ctx.Protected.Group("/trays/:trayId")
	trays.GET("/items", m.handler.ListTrayItems)
	trays.GET("/audit-events", m.handler.ListTrayAuditEvents)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
