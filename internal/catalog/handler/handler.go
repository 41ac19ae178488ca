package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairshop_backend/internal/catalog/service"
	"repairshop_backend/platform/httpkit"
)

// Handler handles HTTP requests for catalog.
type Handler struct {
	svc *service.Service
}

// New creates a new catalog handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// GetCatalog returns every reference list used by the service sheet editor.
// GET /api/v1/catalog
func (h *Handler) GetCatalog(c *gin.Context) {
	result, err := h.svc.Catalog(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// InvalidateCache drops cached reference data.
// POST /api/v1/admin/catalog/cache/invalidate
func (h *Handler) InvalidateCache(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Invalidate(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, result)
}
