package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo implements the catalog repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// ListDepartments returns all departments ordered by name.
func (r *Repo) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM departments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	items := make([]Department, 0)
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate departments: %w", err)
	}
	return items, nil
}

// ListServices returns active catalog services.
func (r *Repo) ListServices(ctx context.Context) ([]Service, error) {
	query := `
		SELECT id, name, price, department_id, instrument_id
		FROM catalog_services
		WHERE active
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	items := make([]Service, 0)
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.DepartmentID, &s.InstrumentID); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}
	return items, nil
}

// ListParts returns active catalog parts.
func (r *Repo) ListParts(ctx context.Context) ([]Part, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, price FROM catalog_parts WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	defer rows.Close()

	items := make([]Part, 0)
	for rows.Next() {
		var p Part
		if err := rows.Scan(&p.ID, &p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parts: %w", err)
	}
	return items, nil
}

// ListInstruments returns active instruments.
func (r *Repo) ListInstruments(ctx context.Context) ([]Instrument, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, department_id FROM instruments WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	defer rows.Close()

	items := make([]Instrument, 0)
	for rows.Next() {
		var i Instrument
		if err := rows.Scan(&i.ID, &i.Name, &i.DepartmentID); err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instruments: %w", err)
	}
	return items, nil
}

// ListPipelines returns pipelines with their stages in position order.
func (r *Repo) ListPipelines(ctx context.Context) ([]Pipeline, error) {
	query := `
		SELECT p.id, p.name, p.department_id, s.id, s.name, s.position
		FROM pipelines p
		LEFT JOIN pipeline_stages s ON s.pipeline_id = p.id
		ORDER BY p.name, s.position, s.name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	defer rows.Close()

	items := make([]Pipeline, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			p             Pipeline
			stageID       *uuid.UUID
			stageName     *string
			stagePosition *int
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.DepartmentID, &stageID, &stageName, &stagePosition); err != nil {
			return nil, fmt.Errorf("scan pipeline: %w", err)
		}
		pos, seen := index[p.ID]
		if !seen {
			p.Stages = make([]Stage, 0)
			items = append(items, p)
			pos = len(items) - 1
			index[p.ID] = pos
		}
		if stageID != nil {
			stage := Stage{ID: *stageID}
			if stageName != nil {
				stage.Name = *stageName
			}
			if stagePosition != nil {
				stage.Position = *stagePosition
			}
			items[pos].Stages = append(items[pos].Stages, stage)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pipelines: %w", err)
	}
	return items, nil
}
