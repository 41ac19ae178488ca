package repository

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const defaultAuditLimit = 50

// CreateAuditEvent appends an audit event. The table rejects updates and deletes.
func (r *Repo) CreateAuditEvent(ctx context.Context, params CreateAuditEventParams) (AuditEvent, error) {
	payload, err := json.Marshal(params.Payload)
	if err != nil {
		return AuditEvent{}, fmt.Errorf("encode audit payload: %w", err)
	}

	var actorEmail *string
	if params.ActorEmail != "" {
		actorEmail = &params.ActorEmail
	}

	query := `
		INSERT INTO audit_events (scope_type, scope_id, actor_id, actor_email, event_type, message, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, scope_type, scope_id, actor_id, actor_email, event_type, message, payload, created_at`

	var event AuditEvent
	if err := r.q.QueryRow(ctx, query,
		params.ScopeType, params.ScopeID, params.ActorID, actorEmail, params.EventType, params.Message, payload,
	).Scan(
		&event.ID, &event.ScopeType, &event.ScopeID, &event.ActorID, &event.ActorEmail,
		&event.EventType, &event.Message, &event.Payload, &event.CreatedAt,
	); err != nil {
		return AuditEvent{}, fmt.Errorf("create audit event: %w", err)
	}
	return event, nil
}

// ListAuditEvents returns a scope's events newest first, optionally filtered
// by type and paged with a (created_at, id) cursor.
func (r *Repo) ListAuditEvents(ctx context.Context, params ListAuditEventsParams) ([]AuditEvent, error) {
	query, args, err := auditListQuery(params)
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	events := make([]AuditEvent, 0)
	for rows.Next() {
		var event AuditEvent
		if err := rows.Scan(
			&event.ID, &event.ScopeType, &event.ScopeID, &event.ActorID, &event.ActorEmail,
			&event.EventType, &event.Message, &event.Payload, &event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func auditListQuery(params ListAuditEventsParams) (string, []any, error) {
	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = defaultAuditLimit
	}

	builder := psql.Select("id", "scope_type", "scope_id", "actor_id", "actor_email", "event_type", "message", "payload", "created_at").
		From("audit_events").
		Where(sq.Eq{"scope_type": params.ScopeType, "scope_id": params.ScopeID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))

	if params.EventType != "" {
		builder = builder.Where(sq.Eq{"event_type": params.EventType})
	}
	switch {
	case params.Before != nil && params.BeforeID != nil:
		builder = builder.Where(sq.Expr("(created_at, id) < (?, ?)", *params.Before, *params.BeforeID))
	case params.Before != nil:
		builder = builder.Where(sq.Lt{"created_at": *params.Before})
	}
	return builder.ToSql()
}
