package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"mercabridge/internal/model"
)

// SnapshotRepository keeps the latest normalized detail of each product per
// warehouse.
type SnapshotRepository struct {
	DB *sql.DB
}

func (r *SnapshotRepository) Save(ctx context.Context, warehouse string, item model.DetailItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO product_snapshot
		(id, product_id, warehouse, name, brand, category, unit_price, payload, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (product_id, warehouse) DO UPDATE
		SET name = EXCLUDED.name, brand = EXCLUDED.brand, category = EXCLUDED.category,
		    unit_price = EXCLUDED.unit_price, payload = EXCLUDED.payload, fetched_at = now()
	`, uuid.NewString(), item.ID, warehouse, item.Name, item.Brand, item.Category, item.UnitPrice, string(payload))
	return err
}

// Get returns the stored snapshot and whether one exists.
func (r *SnapshotRepository) Get(ctx context.Context, productID, warehouse string) (model.DetailItem, bool, error) {
	var payload []byte
	err := r.DB.QueryRowContext(ctx, `
		SELECT payload
		FROM product_snapshot
		WHERE product_id = $1 AND warehouse = $2
	`, productID, warehouse).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DetailItem{}, false, nil
	}
	if err != nil {
		return model.DetailItem{}, false, err
	}

	var item model.DetailItem
	if err := json.Unmarshal(payload, &item); err != nil {
		return model.DetailItem{}, false, err
	}
	return item, true, nil
}

// Tracked lists every stored product, least recently fetched first.
func (r *SnapshotRepository) Tracked(ctx context.Context) ([]model.TrackedProduct, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT product_id, warehouse
		FROM product_snapshot
		ORDER BY fetched_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.TrackedProduct
	for rows.Next() {
		var p model.TrackedProduct
		if err := rows.Scan(&p.ProductID, &p.Warehouse); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
