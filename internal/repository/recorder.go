package repository

import (
	"context"
	"errors"

	"mercabridge/internal/model"
	"mercabridge/internal/normalizer"
)

// Recorder persists what the bridge returns: detail snapshots and price
// observations. Either repository may be nil.
type Recorder struct {
	Snapshots *SnapshotRepository
	Prices    *PriceRepository
}

func (r *Recorder) RecordDetail(ctx context.Context, warehouse string, item model.DetailItem) error {
	if item.ID == normalizer.UnknownID {
		return nil
	}

	var errs []error
	if r.Snapshots != nil {
		errs = append(errs, r.Snapshots.Save(ctx, warehouse, item))
	}
	if r.Prices != nil {
		errs = append(errs, r.Prices.Append(ctx, []model.PricePoint{detailPoint(warehouse, item)}))
	}
	return errors.Join(errs...)
}

func (r *Recorder) RecordPrices(ctx context.Context, warehouse string, items []model.SearchItem) error {
	if r.Prices == nil {
		return nil
	}
	return r.Prices.Append(ctx, searchPoints(warehouse, items))
}

func (r *Recorder) History(ctx context.Context, productID, warehouse string, limit int) ([]model.PricePoint, error) {
	if r.Prices == nil {
		return nil, errors.New("price repository not configured")
	}
	return r.Prices.History(ctx, productID, warehouse, limit)
}

func searchPoints(warehouse string, items []model.SearchItem) []model.PricePoint {
	points := make([]model.PricePoint, 0, len(items))
	for _, it := range items {
		if it.ID == normalizer.UnknownID {
			continue
		}
		points = append(points, model.PricePoint{
			ProductID:     it.ID,
			Warehouse:     warehouse,
			UnitPrice:     it.UnitPrice,
			BulkPrice:     it.BulkPrice,
			PreviousPrice: it.PreviousPrice,
			IsDiscounted:  it.IsDiscounted,
		})
	}
	return points
}

func detailPoint(warehouse string, item model.DetailItem) model.PricePoint {
	return model.PricePoint{
		ProductID:     item.ID,
		Warehouse:     warehouse,
		UnitPrice:     item.UnitPrice,
		BulkPrice:     item.BulkPrice,
		PreviousPrice: item.PreviousPrice,
		IsDiscounted:  item.IsDiscounted,
	}
}
