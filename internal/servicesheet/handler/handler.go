package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"repairshop_backend/internal/servicesheet/repository"
	"repairshop_backend/internal/servicesheet/service"
	"repairshop_backend/internal/servicesheet/transport"
	"repairshop_backend/platform/httpkit"
	"repairshop_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the service sheet.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new service sheet handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// SaveServiceSheet reconciles a tray with the submitted working set.
// POST /api/v1/leads/:leadId/trays/:trayId/service-sheet
func (h *Handler) SaveServiceSheet(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	leadID, ok := parseParam(c, "leadId")
	if !ok {
		return
	}
	trayID, ok := parseParam(c, "trayId")
	if !ok {
		return
	}

	var req transport.SaveServiceSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	actor := service.Actor{ID: identity.UserID(), Email: identity.Email()}
	result, err := h.svc.SaveServiceSheet(c.Request.Context(), leadID, trayID, actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListTrayItems returns the tray's current lines and totals.
// GET /api/v1/trays/:trayId/items
func (h *Handler) ListTrayItems(c *gin.Context) {
	trayID, ok := parseParam(c, "trayId")
	if !ok {
		return
	}

	result, err := h.svc.ListTrayItems(c.Request.Context(), trayID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListLeadAuditEvents pages through the save history of a lead.
// GET /api/v1/leads/:leadId/audit-events
func (h *Handler) ListLeadAuditEvents(c *gin.Context) {
	h.listAuditEvents(c, repository.ScopeLead, "leadId")
}

// ListTrayAuditEvents pages through the assignment history of a tray.
// GET /api/v1/trays/:trayId/audit-events
func (h *Handler) ListTrayAuditEvents(c *gin.Context) {
	h.listAuditEvents(c, repository.ScopeTray, "trayId")
}

func (h *Handler) listAuditEvents(c *gin.Context, scopeType, param string) {
	scopeID, ok := parseParam(c, param)
	if !ok {
		return
	}

	var req transport.ListAuditEventsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ListAuditEvents(c.Request.Context(), scopeType, scopeID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func parseParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, false
	}
	return id, true
}
