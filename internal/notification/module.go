// Package notification turns domain events into in-app notifications.
// Deliveries are deferred to the scheduler worker when a queue is configured
// and written inline otherwise.
package notification

import (
	"context"
	"fmt"
	"strings"

	"repairshop_backend/internal/events"
	apphttp "repairshop_backend/internal/http"
	notifhandler "repairshop_backend/internal/notification/handler"
	"repairshop_backend/internal/notification/inapp"
	"repairshop_backend/internal/scheduler"
	"repairshop_backend/platform/logger"
	"repairshop_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const assignmentTitle = "New work assigned"

// Module handles notification event subscriptions and routes.
type Module struct {
	log          *logger.Logger
	queue        scheduler.AssignmentQueue
	inAppService *inapp.Service
	inAppHandler *notifhandler.HTTPHandler
}

// New creates a new notification module backed by the database.
func New(pool *pgxpool.Pool, log *logger.Logger) *Module {
	return NewWithStore(inapp.NewRepository(pool), log)
}

// NewWithStore creates a notification module over an arbitrary store.
func NewWithStore(store inapp.Store, log *logger.Logger) *Module {
	inAppSvc := inapp.NewService(store, log)
	return &Module{
		log:          log,
		inAppService: inAppSvc,
		inAppHandler: notifhandler.NewHTTPHandler(inAppSvc, validator.New()),
	}
}

// SetQueue routes assignment notifications through the scheduler.
func (m *Module) SetQueue(queue scheduler.AssignmentQueue) {
	m.queue = queue
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterHandlers subscribes the module to the events it notifies about.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.TechnicianAssigned{}.EventName(), m)
}

// RegisterRoutes registers notification API routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	notifications := ctx.Protected.Group("/notifications")
	m.inAppHandler.RegisterRoutes(notifications)
}

// Handle implements events.Handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.TechnicianAssigned:
		return m.handleTechnicianAssigned(ctx, e)
	default:
		m.log.Warn("notification: unhandled event", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleTechnicianAssigned(ctx context.Context, e events.TechnicianAssigned) error {
	// Nobody needs to be told about work they picked up themselves.
	if e.TechnicianID == e.AssignedByID {
		return nil
	}

	payload := scheduler.TechnicianAssignedPayload{
		LeadID:       e.LeadID.String(),
		TrayID:       e.TrayID.String(),
		TrayNumber:   e.TrayNumber,
		ItemID:       e.ItemID.String(),
		ItemName:     e.ItemName,
		TechnicianID: e.TechnicianID.String(),
		AssignedByID: e.AssignedByID.String(),
	}
	if e.PreviousTechnicianID != nil {
		prev := e.PreviousTechnicianID.String()
		payload.PreviousTechnicianID = &prev
	}

	if m.queue != nil {
		if err := m.queue.EnqueueTechnicianAssigned(ctx, payload); err != nil {
			m.log.Error("notification: enqueue technician assignment failed", "error", err, "trayId", e.TrayID)
			return err
		}
		return nil
	}
	return m.NotifyTechnicianAssigned(ctx, payload)
}

// NotifyTechnicianAssigned writes the in-app notification for an assignment.
// It implements scheduler.AssignmentNotifier.
func (m *Module) NotifyTechnicianAssigned(ctx context.Context, payload scheduler.TechnicianAssignedPayload) error {
	technicianID, err := uuid.Parse(payload.TechnicianID)
	if err != nil {
		return fmt.Errorf("notification: technician id: %w", err)
	}

	_, err = m.inAppService.Send(ctx, inapp.CreateParams{
		TechnicianID: technicianID,
		LeadID:       optionalID(payload.LeadID),
		TrayID:       optionalID(payload.TrayID),
		ItemID:       optionalID(payload.ItemID),
		Title:        assignmentTitle,
		Content:      assignmentContent(payload),
	})
	return err
}

// optionalID parses raw, treating blank or malformed ids as absent.
func optionalID(raw string) *uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &id
}

func assignmentContent(payload scheduler.TechnicianAssignedPayload) string {
	name := strings.TrimSpace(payload.ItemName)
	if name == "" {
		name = "a line item"
	}
	if tray := strings.TrimSpace(payload.TrayNumber); tray != "" {
		return fmt.Sprintf("You were assigned to %s on tray %s.", name, tray)
	}
	return fmt.Sprintf("You were assigned to %s.", name)
}

var (
	_ apphttp.Module               = (*Module)(nil)
	_ events.Handler               = (*Module)(nil)
	_ scheduler.AssignmentNotifier = (*Module)(nil)
)
