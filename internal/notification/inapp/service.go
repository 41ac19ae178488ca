package inapp

import (
	"context"
	"strings"
	"time"

	"repairshop_backend/platform/apperr"
	"repairshop_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service struct {
	store Store
	log   *logger.Logger
}

func NewService(store Store, log *logger.Logger) *Service {
	return &Service{
		store: store,
		log:   log,
	}
}

// Page is one slice of a technician's inbox. NextBefore and NextBeforeID are
// set when a full page came back and more may follow.
type Page struct {
	Items        []Notification `json:"items"`
	NextBefore   *time.Time     `json:"nextBefore,omitempty"`
	NextBeforeID *uuid.UUID     `json:"nextBeforeId,omitempty"`
}

// Send persists a notification for the technician.
func (s *Service) Send(ctx context.Context, p CreateParams) (Notification, error) {
	if s == nil || s.store == nil {
		return Notification{}, apperr.Internal("notification service not configured")
	}
	if p.TechnicianID == uuid.Nil {
		return Notification{}, apperr.Validation("technician is required")
	}
	p.Title = strings.TrimSpace(p.Title)
	p.Content = strings.TrimSpace(p.Content)
	if p.Title == "" || p.Content == "" {
		return Notification{}, apperr.Validation("title and content are required")
	}

	notif, err := s.store.Create(ctx, p)
	if err != nil {
		if s.log != nil {
			s.log.Error("failed to persist technician notification", "error", err, "technicianId", p.TechnicianID)
		}
		return Notification{}, err
	}
	return notif, nil
}

func (s *Service) List(ctx context.Context, p ListParams) (Page, error) {
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}

	items, err := s.store.List(ctx, p)
	if err != nil {
		return Page{}, err
	}

	page := Page{Items: items}
	if len(items) == p.Limit {
		last := items[len(items)-1]
		page.NextBefore = &last.CreatedAt
		page.NextBeforeID = &last.ID
	}
	return page, nil
}

func (s *Service) CountUnread(ctx context.Context, technicianID uuid.UUID) (int, error) {
	return s.store.CountUnread(ctx, technicianID)
}

func (s *Service) MarkRead(ctx context.Context, technicianID, id uuid.UUID) error {
	return s.store.MarkRead(ctx, technicianID, id)
}

// MarkAllRead returns how many notifications changed state.
func (s *Service) MarkAllRead(ctx context.Context, technicianID uuid.UUID) (int64, error) {
	return s.store.MarkAllRead(ctx, technicianID)
}
