package repository

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"repairshop_backend/internal/servicesheet/domain"
	"repairshop_backend/platform/apperr"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const itemColumns = `id, tray_id, item_type, service_id, part_id, instrument_id, department_id,
	technician_id, pipeline, qty, attributes, created_at, updated_at`

func scanItem(row pgx.Row) (domain.LineItem, error) {
	var (
		item      domain.LineItem
		kind      string
		serviceID *uuid.UUID
		partID    *uuid.UUID
		attrs     []byte
	)
	if err := row.Scan(
		&item.ID, &item.TrayID, &kind, &serviceID, &partID, &item.InstrumentID, &item.DepartmentID,
		&item.TechnicianID, &item.Pipeline, &item.Qty, &attrs, &item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return domain.LineItem{}, err
	}

	item.Ref = domain.ReferenceFromColumns(domain.Kind(kind), serviceID, partID)
	decoded, err := domain.DecodeAttributes(attrs)
	if err != nil {
		return domain.LineItem{}, err
	}
	item.Attrs = decoded
	return item, nil
}

// ListItems returns the tray's line items in creation order.
func (r *Repo) ListItems(ctx context.Context, trayID uuid.UUID) ([]domain.LineItem, error) {
	query := `SELECT ` + itemColumns + ` FROM tray_items WHERE tray_id = $1 ORDER BY created_at, id`

	rows, err := r.q.Query(ctx, query, trayID)
	if err != nil {
		return nil, fmt.Errorf("list tray items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.LineItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tray item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tray items: %w", err)
	}
	return items, nil
}

// CreateItem inserts a line item.
func (r *Repo) CreateItem(ctx context.Context, params CreateItemParams) (domain.LineItem, error) {
	attrs, err := params.Attrs.Encode()
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("encode attributes: %w", err)
	}
	serviceID, partID := domain.ReferenceIDs(params.Ref)

	query := `
		INSERT INTO tray_items (tray_id, item_type, service_id, part_id, instrument_id, department_id,
			technician_id, pipeline, qty, attributes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + itemColumns

	item, err := scanItem(r.q.QueryRow(ctx, query,
		params.TrayID, string(domain.KindOf(params.Ref)), serviceID, partID, params.InstrumentID,
		params.DepartmentID, params.TechnicianID, params.Pipeline, params.Qty, attrs,
	))
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("create tray item: %w", err)
	}
	return item, nil
}

// UpdateItem applies a minimal patch. Attribute keys are merged into the
// stored record so keys written by other clients survive.
func (r *Repo) UpdateItem(ctx context.Context, trayID, itemID uuid.UUID, patch domain.Patch) error {
	if patch.IsEmpty() {
		return nil
	}

	builder := psql.Update("tray_items").
		Where(sq.Eq{"id": itemID, "tray_id": trayID}).
		Set("updated_at", sq.Expr("now()"))

	if patch.Ref != nil {
		serviceID, partID := domain.ReferenceIDs(patch.Ref)
		builder = builder.
			Set("item_type", string(patch.Ref.Kind())).
			Set("service_id", serviceID).
			Set("part_id", partID)
	}
	if patch.InstrumentID != nil {
		builder = builder.Set("instrument_id", *patch.InstrumentID)
	}
	if patch.DepartmentID != nil {
		builder = builder.Set("department_id", *patch.DepartmentID)
	}
	if patch.Qty != nil {
		builder = builder.Set("qty", *patch.Qty)
	}
	if patch.Pipeline != nil {
		builder = builder.Set("pipeline", *patch.Pipeline)
	}
	if patch.Technician.Set {
		builder = builder.Set("technician_id", patch.Technician.Value)
	}
	if !patch.Attrs.IsEmpty() {
		merge, remove, err := attributeMerge(patch.Attrs)
		if err != nil {
			return err
		}
		builder = builder.Set("attributes", sq.Expr("(attributes - ?::text[]) || ?::jsonb", remove, merge))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build tray item update: %w", err)
	}
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update tray item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(itemNotFoundMessage)
	}
	return nil
}

// attributeMerge turns a patch into the JSON object to merge and the keys to drop.
func attributeMerge(p domain.AttributesPatch) ([]byte, []string, error) {
	set := map[string]any{"v": domain.AttributesVersion}
	remove := []string{}

	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.UnitPrice != nil {
		set["unitPrice"] = *p.UnitPrice
	}
	if p.DiscountPct != nil {
		set["discountPct"] = *p.DiscountPct
	}
	if p.Urgent != nil {
		set["urgent"] = *p.Urgent
	}
	if p.Warranty != nil {
		set["warranty"] = *p.Warranty
	}
	for key, value := range map[string]*string{"brand": p.Brand, "serial": p.Serial} {
		if value == nil {
			continue
		}
		if *value == "" {
			remove = append(remove, key)
			continue
		}
		set[key] = *value
	}

	data, err := json.Marshal(set)
	if err != nil {
		return nil, nil, fmt.Errorf("encode attribute patch: %w", err)
	}
	return data, remove, nil
}

// DeleteItem removes one line item of the tray.
func (r *Repo) DeleteItem(ctx context.Context, trayID, itemID uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM tray_items WHERE id = $1 AND tray_id = $2`, itemID, trayID)
	if err != nil {
		return fmt.Errorf("delete tray item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(itemNotFoundMessage)
	}
	return nil
}
