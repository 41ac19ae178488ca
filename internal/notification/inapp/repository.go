package inapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"repairshop_backend/platform/apperr"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate      = "notification.inapp.repository.create"
	opList        = "notification.inapp.repository.list"
	opCountUnread = "notification.inapp.repository.count_unread"
	opMarkRead    = "notification.inapp.repository.mark_read"
	opMarkAllRead = "notification.inapp.repository.mark_all_read"

	pgForeignKeyViolation = "23503"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var notificationColumns = []string{
	"id", "technician_id", "lead_id", "tray_id", "item_id", "title", "content", "read_at", "created_at",
}

// Notification tells a technician about work on a tray.
type Notification struct {
	ID           uuid.UUID  `json:"id"`
	TechnicianID uuid.UUID  `json:"technicianId"`
	LeadID       *uuid.UUID `json:"leadId,omitempty"`
	TrayID       *uuid.UUID `json:"trayId,omitempty"`
	ItemID       *uuid.UUID `json:"itemId,omitempty"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Read         bool       `json:"read"`
	ReadAt       *time.Time `json:"readAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type CreateParams struct {
	TechnicianID uuid.UUID
	LeadID       *uuid.UUID
	TrayID       *uuid.UUID
	ItemID       *uuid.UUID
	Title        string
	Content      string
}

// ListParams selects one page of a technician's inbox, newest first. Before
// and BeforeID are the cursor of the last notification already seen.
type ListParams struct {
	TechnicianID uuid.UUID
	UnreadOnly   bool
	Before       *time.Time
	BeforeID     *uuid.UUID
	Limit        int
}

// Store persists technician notifications.
type Store interface {
	Create(ctx context.Context, p CreateParams) (Notification, error)
	List(ctx context.Context, p ListParams) ([]Notification, error)
	CountUnread(ctx context.Context, technicianID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, technicianID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, technicianID uuid.UUID) (int64, error)
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (Notification, error) {
	var n Notification
	if err := row.Scan(&n.ID, &n.TechnicianID, &n.LeadID, &n.TrayID, &n.ItemID, &n.Title, &n.Content, &n.ReadAt, &n.CreatedAt); err != nil {
		return Notification{}, err
	}
	n.Read = n.ReadAt != nil
	return n, nil
}

func (r *Repository) Create(ctx context.Context, p CreateParams) (Notification, error) {
	query, args, err := psql.Insert("technician_notifications").
		Columns("technician_id", "lead_id", "tray_id", "item_id", "title", "content").
		Values(p.TechnicianID, p.LeadID, p.TrayID, p.ItemID, p.Title, p.Content).
		Suffix("RETURNING " + strings.Join(notificationColumns, ", ")).
		ToSql()
	if err != nil {
		return Notification{}, apperr.Internal(fmt.Sprintf("build notification insert: %v", err)).WithOp(opCreate)
	}

	n, err := scanNotification(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return Notification{}, apperr.Validation("unknown technician or tray").WithOp(opCreate)
		}
		return Notification{}, apperr.Internal(fmt.Sprintf("create notification failed: %v", err)).WithOp(opCreate)
	}
	return n, nil
}

func (r *Repository) List(ctx context.Context, p ListParams) ([]Notification, error) {
	query, args, err := listQuery(p)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("build notification list: %v", err)).WithOp(opList)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list notifications failed: %v", err)).WithOp(opList)
	}
	defer rows.Close()

	items := make([]Notification, 0, p.Limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan notification failed: %v", err)).WithOp(opList)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate notifications failed: %v", err)).WithOp(opList)
	}
	return items, nil
}

func listQuery(p ListParams) (string, []any, error) {
	builder := psql.Select(notificationColumns...).
		From("technician_notifications").
		Where(sq.Eq{"technician_id": p.TechnicianID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(p.Limit))

	if p.UnreadOnly {
		builder = builder.Where(sq.Eq{"read_at": nil})
	}
	switch {
	case p.Before != nil && p.BeforeID != nil:
		builder = builder.Where(sq.Expr("(created_at, id) < (?, ?)", *p.Before, *p.BeforeID))
	case p.Before != nil:
		builder = builder.Where(sq.Lt{"created_at": *p.Before})
	}
	return builder.ToSql()
}

func (r *Repository) CountUnread(ctx context.Context, technicianID uuid.UUID) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("technician_notifications").
		Where(sq.Eq{"technician_id": technicianID, "read_at": nil}).
		ToSql()
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("build unread count: %v", err)).WithOp(opCountUnread)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperr.Internal(fmt.Sprintf("count unread notifications failed: %v", err)).WithOp(opCountUnread)
	}
	return count, nil
}

// MarkRead keeps the first read time when the notification was already read.
func (r *Repository) MarkRead(ctx context.Context, technicianID, notificationID uuid.UUID) error {
	query, args, err := psql.Update("technician_notifications").
		Set("read_at", sq.Expr("COALESCE(read_at, now())")).
		Where(sq.Eq{"id": notificationID, "technician_id": technicianID}).
		ToSql()
	if err != nil {
		return apperr.Internal(fmt.Sprintf("build mark read: %v", err)).WithOp(opMarkRead)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark notification read failed: %v", err)).WithOp(opMarkRead)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found").WithOp(opMarkRead)
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, technicianID uuid.UUID) (int64, error) {
	query, args, err := psql.Update("technician_notifications").
		Set("read_at", sq.Expr("now()")).
		Where(sq.Eq{"technician_id": technicianID, "read_at": nil}).
		ToSql()
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("build mark all read: %v", err)).WithOp(opMarkAllRead)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("mark all notifications read failed: %v", err)).WithOp(opMarkAllRead)
	}
	return tag.RowsAffected(), nil
}

var _ Store = (*Repository)(nil)
