package handler

import (
	"net/http"
	"time"

	"repairshop_backend/internal/notification/inapp"
	"repairshop_backend/platform/httpkit"
	"repairshop_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid notification id"
)

// ListRequest pages through the caller's inbox.
type ListRequest struct {
	Unread   bool       `form:"unread"`
	Before   *time.Time `form:"before" time_format:"2006-01-02T15:04:05Z07:00"`
	BeforeID string     `form:"beforeId" validate:"omitempty,uuid"`
	Limit    int        `form:"limit" validate:"omitempty,min=1,max=100"`
}

type HTTPHandler struct {
	svc *inapp.Service
	val *validator.Validator
}

func NewHTTPHandler(svc *inapp.Service, val *validator.Validator) *HTTPHandler {
	return &HTTPHandler{svc: svc, val: val}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/unread-count", h.CountUnread)
	rg.PATCH("/:id/read", h.MarkRead)
	rg.PATCH("/read-all", h.MarkAllRead)
}

func (h *HTTPHandler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	params := inapp.ListParams{
		TechnicianID: identity.UserID(),
		UnreadOnly:   req.Unread,
		Before:       req.Before,
		Limit:        req.Limit,
	}
	if req.BeforeID != "" {
		id, err := uuid.Parse(req.BeforeID)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "beforeId must be a uuid")
			return
		}
		params.BeforeID = &id
	}

	page, err := h.svc.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, page)
}

func (h *HTTPHandler) CountUnread(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	count, err := h.svc.CountUnread(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"count": count})
}

func (h *HTTPHandler) MarkRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), identity.UserID(), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) MarkAllRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	updated, err := h.svc.MarkAllRead(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"updated": updated})
}
