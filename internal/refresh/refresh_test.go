package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercabridge/internal/model"
)

type staticSource struct {
	products []model.TrackedProduct
	err      error
}

func (s staticSource) Tracked(context.Context) ([]model.TrackedProduct, error) {
	return s.products, s.err
}

type mapFetcher map[string]model.SourceRecord

func (m mapFetcher) Product(_ context.Context, _ string, id string) (model.SourceRecord, error) {
	rec, ok := m[id]
	if !ok {
		return model.SourceRecord{}, errors.New("connection refused")
	}
	return rec, nil
}

type memRecorder struct {
	mu    sync.Mutex
	items map[string]model.DetailItem
}

func (m *memRecorder) RecordDetail(_ context.Context, warehouse string, item model.DetailItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[warehouse+"/"+item.ID] = item
	return nil
}

func TestRun(t *testing.T) {
	src := staticSource{products: []model.TrackedProduct{
		{ProductID: "1", Warehouse: "mad1"},
		{ProductID: "2", Warehouse: "mad1"},
		{ProductID: "3", Warehouse: "bcn1"},
		{ProductID: "4", Warehouse: "bcn1"},
	}}
	fetcher := mapFetcher{
		"1": model.NewSourceRecord(map[string]any{"id": "1", "unit_price": "1.10"}),
		"2": model.NotFoundRecord("2"),
		"3": model.NewSourceRecord(map[string]any{"id": "3", "unit_price": 2.5}),
	}
	rec := &memRecorder{items: map[string]model.DetailItem{}}

	res, err := New(src, fetcher, rec, 2, zerolog.Nop()).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Result{Refreshed: 2, Missing: 1, Failed: 1}, res)
	assert.Equal(t, 1.10, rec.items["mad1/1"].UnitPrice)
	assert.Equal(t, 2.5, rec.items["bcn1/3"].UnitPrice)
}

func TestRun_SourceError(t *testing.T) {
	_, err := New(staticSource{err: errors.New("db down")}, mapFetcher{}, &memRecorder{}, 0, zerolog.Nop()).
		Run(context.Background())

	assert.ErrorContains(t, err, "db down")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := staticSource{products: []model.TrackedProduct{{ProductID: "1", Warehouse: "mad1"}}}

	_, err := New(src, mapFetcher{}, &memRecorder{items: map[string]model.DetailItem{}}, 1, zerolog.Nop()).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
