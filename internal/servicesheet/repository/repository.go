package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repairshop_backend/platform/apperr"
	"repairshop_backend/platform/db"
)

const (
	trayNotFoundMessage = "tray not found"
	itemNotFoundMessage = "line item not found"
)

// Repo implements the service-sheet repository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	q    db.Querier
}

// New creates a new service-sheet repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, q: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// WithTx runs fn inside one transaction; any error rolls every write back.
func (r *Repo) WithTx(ctx context.Context, fn func(items ItemStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&Repo{pool: r.pool, q: tx})
	})
}

// GetTray loads a tray with its lead and current placement.
func (r *Repo) GetTray(ctx context.Context, trayID uuid.UUID) (Tray, error) {
	query := `
		SELECT t.id, sf.lead_id, t.service_file_id, t.number, t.size, t.status,
			tp.pipeline_id, p.name, tp.stage_id, ps.name
		FROM trays t
		JOIN service_files sf ON sf.id = t.service_file_id
		LEFT JOIN tray_placements tp ON tp.tray_id = t.id
		LEFT JOIN pipelines p ON p.id = tp.pipeline_id
		LEFT JOIN pipeline_stages ps ON ps.id = tp.stage_id
		WHERE t.id = $1`

	var tray Tray
	if err := r.q.QueryRow(ctx, query, trayID).Scan(
		&tray.ID, &tray.LeadID, &tray.ServiceFileID, &tray.Number, &tray.Size, &tray.Status,
		&tray.PipelineID, &tray.PipelineName, &tray.StageID, &tray.StageName,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tray{}, apperr.NotFound(trayNotFoundMessage)
		}
		return Tray{}, fmt.Errorf("get tray: %w", err)
	}
	return tray, nil
}

// ListUsersByIDs returns the users that exist among ids, in no particular order.
func (r *Repo) ListUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error) {
	if len(ids) == 0 {
		return []User{}, nil
	}

	rows, err := r.q.Query(ctx, `SELECT id, email, display_name FROM app_users WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, fmt.Errorf("list users by ids: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0, len(ids))
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}
