package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercabridge/internal/envelope"
	"mercabridge/internal/model"
)

type fakeSupplier struct {
	warehouse    string
	warehouseErr error
	records      []model.SourceRecord
	product      model.SourceRecord
	err          error
	panicOn      string

	calls       int
	lastWH      string
	lastQuery   string
	lastProduct string
}

func (f *fakeSupplier) Warehouse(_ context.Context, postcode string) (string, error) {
	f.calls++
	return f.warehouse, f.warehouseErr
}

func (f *fakeSupplier) Search(_ context.Context, wh, query string) ([]model.SourceRecord, error) {
	f.calls++
	if f.panicOn == "search" {
		panic("supplier exploded")
	}
	f.lastWH, f.lastQuery = wh, query
	return f.records, f.err
}

func (f *fakeSupplier) NewArrivals(_ context.Context, wh string) ([]model.SourceRecord, error) {
	f.calls++
	f.lastWH = wh
	return f.records, f.err
}

func (f *fakeSupplier) Product(_ context.Context, wh, id string) (model.SourceRecord, error) {
	f.calls++
	f.lastWH, f.lastProduct = wh, id
	return f.product, f.err
}

type memCache struct {
	data   map[string][]byte
	getErr error
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

type fakeRecorder struct {
	details []model.DetailItem
	prices  []model.SearchItem
	err     error
}

func (f *fakeRecorder) RecordDetail(_ context.Context, _ string, item model.DetailItem) error {
	f.details = append(f.details, item)
	return f.err
}

func (f *fakeRecorder) RecordPrices(_ context.Context, _ string, items []model.SearchItem) error {
	f.prices = append(f.prices, items...)
	return f.err
}

type fakeHistory struct {
	points []model.PricePoint
	err    error
}

func (f *fakeHistory) History(context.Context, string, string, int) ([]model.PricePoint, error) {
	return f.points, f.err
}

func product(id string) model.SourceRecord {
	return model.NewSourceRecord(map[string]any{
		"id":         id,
		"name":       "Leche " + id,
		"unit_price": "0.95",
		"category":   []any{map[string]any{"name": "Lácteos"}},
	})
}

func newService(sup Supplier, opts Options) *Service {
	return NewService(sup, zerolog.Nop(), opts)
}

func encode(t *testing.T, env envelope.Envelope) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(env.MarshalIndent(), &m))
	return m
}

func TestSearch_SkipsNotFound(t *testing.T) {
	sup := &fakeSupplier{
		warehouse: "mad1",
		records:   []model.SourceRecord{product("1"), model.NotFoundRecord("2"), product("3")},
	}
	svc := newService(sup, Options{})

	env := svc.Search(context.Background(), Request{Query: "milk", Postcode: "28001"})

	require.True(t, env.Success)
	items, ok := env.Data.([]model.SearchItem)
	require.True(t, ok)
	assert.Len(t, items, 2)
	assert.Equal(t, "milk", sup.lastQuery)
}

func TestSearch_MissingQueryDoesNotCallSupplier(t *testing.T) {
	sup := &fakeSupplier{}
	svc := newService(sup, Options{})

	env := svc.Search(context.Background(), Request{Query: "   "})

	assert.False(t, env.Success)
	assert.Equal(t, ErrMissingQuery.Error(), env.Error)
	assert.Zero(t, sup.calls)
}

func TestSearch_AppliesDefaults(t *testing.T) {
	records := make([]model.SourceRecord, 30)
	for i := range records {
		records[i] = product(fmt.Sprint(i))
	}
	sup := &fakeSupplier{warehouse: "mad1", records: records}
	svc := newService(sup, Options{DefaultLimit: 5})

	env := svc.Search(context.Background(), Request{Query: "pan"})

	require.True(t, env.Success)
	assert.Len(t, env.Data, 5)
}

func TestSearch_SupplierFailure(t *testing.T) {
	sup := &fakeSupplier{warehouse: "mad1", err: fmt.Errorf("search: %w", errors.New("connection refused"))}
	svc := newService(sup, Options{})

	env := svc.Search(context.Background(), Request{Query: "pan"})

	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "connection refused")
	assert.NotEmpty(t, env.Details)
}

func TestSearch_PanicBecomesFailure(t *testing.T) {
	sup := &fakeSupplier{warehouse: "mad1", panicOn: "search"}
	svc := newService(sup, Options{})

	env := svc.Search(context.Background(), Request{Query: "pan"})

	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "supplier exploded")
	assert.NotEmpty(t, env.Details)
}

func TestWarehouseFallback(t *testing.T) {
	sup := &fakeSupplier{warehouseErr: errors.New("timeout"), records: []model.SourceRecord{product("1")}}
	svc := newService(sup, Options{FallbackWarehouse: "mad1"})

	env := svc.NewArrivals(context.Background(), Request{Postcode: "99999"})

	require.True(t, env.Success)
	assert.Equal(t, "mad1", sup.lastWH)
}

func TestWarehouseFallback_EmptyAnswer(t *testing.T) {
	sup := &fakeSupplier{warehouse: " ", product: product("1")}
	svc := newService(sup, Options{FallbackWarehouse: "svq1"})

	env := svc.Detail(context.Background(), Request{Query: "1"})

	require.True(t, env.Success)
	assert.Equal(t, "svq1", sup.lastWH)
}

func TestDetail(t *testing.T) {
	rec := &fakeRecorder{}
	sup := &fakeSupplier{warehouse: "bcn1", product: product("4241")}
	svc := newService(sup, Options{Recorder: rec})

	env := svc.Detail(context.Background(), Request{Query: " 4241 ", Postcode: "08001"})

	require.True(t, env.Success)
	item, ok := env.Data.(model.DetailItem)
	require.True(t, ok)
	assert.Equal(t, "4241", item.ID)
	assert.Equal(t, "4241", sup.lastProduct)
	assert.Equal(t, "bcn1", sup.lastWH)
	assert.Len(t, rec.details, 1)
}

func TestDetail_NotFound(t *testing.T) {
	sup := &fakeSupplier{warehouse: "mad1", product: model.NotFoundRecord("42")}
	svc := newService(sup, Options{})

	env := svc.Detail(context.Background(), Request{Query: "42"})

	assert.Equal(t, map[string]any{"success": false, "error": ErrNotFound.Error()}, encode(t, env))
}

func TestDetail_MissingID(t *testing.T) {
	sup := &fakeSupplier{}
	svc := newService(sup, Options{})

	env := svc.Detail(context.Background(), Request{})

	assert.Equal(t, ErrMissingID.Error(), env.Error)
	assert.Zero(t, sup.calls)
}

func TestDetail_RecorderErrorIgnored(t *testing.T) {
	sup := &fakeSupplier{warehouse: "mad1", product: product("1")}
	svc := newService(sup, Options{Recorder: &fakeRecorder{err: errors.New("db down")}})

	env := svc.Detail(context.Background(), Request{Query: "1"})

	assert.True(t, env.Success)
}

func TestNewArrivals_AlwaysNew(t *testing.T) {
	sup := &fakeSupplier{warehouse: "mad1", records: []model.SourceRecord{product("1"), product("2")}}
	svc := newService(sup, Options{})

	env := svc.NewArrivals(context.Background(), Request{Limit: 1})

	require.True(t, env.Success)
	items := env.Data.([]model.NewArrivalItem)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsNew)
}

func TestSearch_ServedFromCache(t *testing.T) {
	cache := newMemCache()
	rec := &fakeRecorder{}
	sup := &fakeSupplier{warehouse: "mad1", records: []model.SourceRecord{product("1")}}
	svc := newService(sup, Options{Cache: cache, Recorder: rec})
	ctx := context.Background()

	first := svc.Search(ctx, Request{Query: "Leche", Postcode: "28001", Limit: 10})
	require.True(t, first.Success)
	callsAfterFirst := sup.calls

	second := svc.Search(ctx, Request{Query: "leche ", Postcode: "28001", Limit: 10})
	require.True(t, second.Success)

	assert.Equal(t, callsAfterFirst, sup.calls)
	assert.JSONEq(t, string(first.MarshalIndent()), string(second.MarshalIndent()))
	assert.Len(t, rec.prices, 1)
	assert.Contains(t, cache.data, "search:leche:28001:10")
	assert.Equal(t, "mad1", string(cache.data["warehouse:28001"]))
}

func TestSearch_CacheErrorFallsThrough(t *testing.T) {
	cache := newMemCache()
	cache.getErr = errors.New("redis down")
	sup := &fakeSupplier{warehouse: "mad1", records: []model.SourceRecord{product("1")}}
	svc := newService(sup, Options{Cache: cache})

	env := svc.Search(context.Background(), Request{Query: "pan"})

	assert.True(t, env.Success)
	assert.Len(t, env.Data, 1)
}

func TestPriceHistory(t *testing.T) {
	sup := &fakeSupplier{warehouse: "mad1"}

	env := newService(sup, Options{}).PriceHistory(context.Background(), Request{Query: "1"})
	assert.Equal(t, ErrHistoryUnavailable.Error(), env.Error)

	svc := newService(sup, Options{History: &fakeHistory{}})
	env = svc.PriceHistory(context.Background(), Request{Query: "1"})
	require.True(t, env.Success)
	assert.Equal(t, []any{}, encode(t, env)["data"])

	env = svc.PriceHistory(context.Background(), Request{})
	assert.Equal(t, ErrMissingID.Error(), env.Error)
}

func TestHandle_Dispatch(t *testing.T) {
	sup := &fakeSupplier{warehouse: "mad1", records: []model.SourceRecord{product("1")}, product: product("1")}
	svc := newService(sup, Options{})
	ctx := context.Background()

	assert.True(t, svc.Handle(ctx, Request{Action: ActionSearch, Query: "x"}).Success)
	assert.True(t, svc.Handle(ctx, Request{Action: ActionDetail, Query: "1"}).Success)
	assert.True(t, svc.Handle(ctx, Request{Action: ActionNew}).Success)

	env := svc.Handle(ctx, Request{Action: "basket"})
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, ErrUnknownAction.Error())
}
