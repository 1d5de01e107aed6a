package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mercabridge/internal/model"
)

// PriceRepository appends price observations and reads them back newest
// first.
type PriceRepository struct {
	DB *pgxpool.Pool
}

func (r *PriceRepository) Append(ctx context.Context, points []model.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(`
			INSERT INTO price_observation
			(id, product_id, warehouse, unit_price, bulk_price, previous_price, is_discounted, observed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		`, uuid.New(), p.ProductID, p.Warehouse, p.UnitPrice, p.BulkPrice, p.PreviousPrice, p.IsDiscounted)
	}
	return r.DB.SendBatch(ctx, batch).Close()
}

func (r *PriceRepository) History(ctx context.Context, productID, warehouse string, limit int) ([]model.PricePoint, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT product_id, warehouse, unit_price, bulk_price, previous_price, is_discounted, observed_at
		FROM price_observation
		WHERE product_id = $1 AND warehouse = $2
		ORDER BY observed_at DESC
		LIMIT $3
	`, productID, warehouse, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PricePoint, error) {
		var (
			p  model.PricePoint
			at time.Time
		)
		err := row.Scan(&p.ProductID, &p.Warehouse, &p.UnitPrice, &p.BulkPrice, &p.PreviousPrice, &p.IsDiscounted, &at)
		p.ObservedAt = at.UTC().Format(time.RFC3339)
		return p, err
	})
}
