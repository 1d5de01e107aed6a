// Package catalog runs one bridge request end to end: warehouse
// resolution, the supplier call, normalization and the response envelope.
// Both the CLI and the HTTP server go through Service.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"mercabridge/internal/envelope"
	"mercabridge/internal/model"
	"mercabridge/internal/normalizer"
	"mercabridge/internal/observability"
)

type Action string

const (
	ActionSearch  Action = "search"
	ActionDetail  Action = "detail"
	ActionNew     Action = "new"
	ActionHistory Action = "prices"
)

var (
	ErrMissingQuery       = errors.New("query is required for search")
	ErrMissingID          = errors.New("product id is required")
	ErrNotFound           = errors.New("product not found")
	ErrUnknownAction      = errors.New("unknown action")
	ErrHistoryUnavailable = errors.New("price history is not configured")
)

// Supplier is the store the bridge reads from.
type Supplier interface {
	Warehouse(ctx context.Context, postcode string) (string, error)
	Search(ctx context.Context, warehouse, query string) ([]model.SourceRecord, error)
	NewArrivals(ctx context.Context, warehouse string) ([]model.SourceRecord, error)
	Product(ctx context.Context, warehouse, id string) (model.SourceRecord, error)
}

// Cache stores encoded results between requests.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Recorder persists what the bridge has seen.
type Recorder interface {
	RecordDetail(ctx context.Context, warehouse string, item model.DetailItem) error
	RecordPrices(ctx context.Context, warehouse string, items []model.SearchItem) error
}

// History reads recorded price observations.
type History interface {
	History(ctx context.Context, productID, warehouse string, limit int) ([]model.PricePoint, error)
}

type Request struct {
	Action   Action
	Query    string
	Postcode string
	Limit    int
}

type Options struct {
	DefaultPostcode   string
	DefaultLimit      int
	FallbackWarehouse string

	// Optional collaborators; nil disables the feature.
	Cache    Cache
	Recorder Recorder
	History  History
}

type Service struct {
	supplier Supplier
	norm     *normalizer.Normalizer
	opts     Options
	log      zerolog.Logger
}

func NewService(supplier Supplier, log zerolog.Logger, opts Options) *Service {
	if opts.DefaultPostcode == "" {
		opts.DefaultPostcode = "28001"
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 20
	}
	if opts.FallbackWarehouse == "" {
		opts.FallbackWarehouse = "mad1"
	}
	return &Service{
		supplier: supplier,
		norm:     normalizer.New(log),
		opts:     opts,
		log:      log,
	}
}

// Handle dispatches req by action.
func (s *Service) Handle(ctx context.Context, req Request) envelope.Envelope {
	switch req.Action {
	case ActionSearch:
		return s.Search(ctx, req)
	case ActionDetail:
		return s.Detail(ctx, req)
	case ActionNew:
		return s.NewArrivals(ctx, req)
	case ActionHistory:
		return s.PriceHistory(ctx, req)
	}
	return envelope.Failure(fmt.Sprintf("%s: %q", ErrUnknownAction, req.Action), "")
}

func (s *Service) Search(ctx context.Context, req Request) envelope.Envelope {
	return s.guard(ActionSearch, func() envelope.Envelope { return s.search(ctx, s.withDefaults(req)) })
}

// Detail looks up a single product; req.Query carries the product id.
func (s *Service) Detail(ctx context.Context, req Request) envelope.Envelope {
	return s.guard(ActionDetail, func() envelope.Envelope { return s.detail(ctx, s.withDefaults(req)) })
}

func (s *Service) NewArrivals(ctx context.Context, req Request) envelope.Envelope {
	return s.guard(ActionNew, func() envelope.Envelope { return s.newArrivals(ctx, s.withDefaults(req)) })
}

// PriceHistory lists recorded prices of the product in req.Query.
func (s *Service) PriceHistory(ctx context.Context, req Request) envelope.Envelope {
	return s.guard(ActionHistory, func() envelope.Envelope { return s.priceHistory(ctx, s.withDefaults(req)) })
}

// guard turns a panic anywhere in the pipeline into a failure envelope.
func (s *Service) guard(action Action, fn func() envelope.Envelope) (env envelope.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error().Str("action", string(action)).Interface("panic", rec).Msg("request aborted")
			env = envelope.FromPanic(rec)
		}
		outcome := "success"
		if !env.Success {
			outcome = "failure"
		}
		observability.RequestsTotal.WithLabelValues(string(action), outcome).Inc()
	}()
	return fn()
}

func (s *Service) withDefaults(req Request) Request {
	req.Query = strings.TrimSpace(req.Query)
	req.Postcode = strings.TrimSpace(req.Postcode)
	if req.Postcode == "" {
		req.Postcode = s.opts.DefaultPostcode
	}
	if req.Limit <= 0 {
		req.Limit = s.opts.DefaultLimit
	}
	return req
}

func (s *Service) search(ctx context.Context, req Request) envelope.Envelope {
	if req.Query == "" {
		s.log.Warn().Msg(ErrMissingQuery.Error())
		return envelope.Failure(ErrMissingQuery.Error(), "")
	}

	key := cacheKey(ActionSearch, strings.ToLower(req.Query), req.Postcode, strconv.Itoa(req.Limit))
	if data, ok := s.cached(ctx, key); ok {
		return envelope.Success(data)
	}

	s.log.Info().Str("query", req.Query).Str("postcode", req.Postcode).Msg("searching products")
	wh := s.warehouse(ctx, req.Postcode)

	records, err := s.supplier.Search(ctx, wh, req.Query)
	if err != nil {
		s.log.Error().Err(err).Str("query", req.Query).Msg("search failed")
		return envelope.FromError(err)
	}

	items := s.norm.Search(records, req.Limit)
	s.log.Info().Int("found", len(records)).Int("valid", len(items)).Msg("search done")

	s.store(ctx, key, items)
	if s.opts.Recorder != nil {
		if err := s.opts.Recorder.RecordPrices(ctx, wh, items); err != nil {
			s.log.Warn().Err(err).Msg("recording prices failed")
		}
	}
	return envelope.Success(items)
}

func (s *Service) detail(ctx context.Context, req Request) envelope.Envelope {
	if req.Query == "" {
		s.log.Warn().Msg(ErrMissingID.Error())
		return envelope.Failure(ErrMissingID.Error(), "")
	}

	s.log.Info().Str("id", req.Query).Str("postcode", req.Postcode).Msg("fetching product")
	wh := s.warehouse(ctx, req.Postcode)

	rec, err := s.supplier.Product(ctx, wh, req.Query)
	if err != nil {
		s.log.Error().Err(err).Str("id", req.Query).Msg("product lookup failed")
		return envelope.FromError(err)
	}
	if rec.IsNotFound() {
		s.log.Warn().Str("id", req.Query).Msg(ErrNotFound.Error())
		return envelope.Failure(ErrNotFound.Error(), "")
	}

	item, ok := s.norm.Detail(rec)
	if !ok {
		return envelope.Failure(fmt.Sprintf("could not process product %s", req.Query), "")
	}

	if s.opts.Recorder != nil {
		if err := s.opts.Recorder.RecordDetail(ctx, wh, item); err != nil {
			s.log.Warn().Err(err).Str("id", item.ID).Msg("recording product failed")
		}
	}
	return envelope.Success(item)
}

func (s *Service) newArrivals(ctx context.Context, req Request) envelope.Envelope {
	key := cacheKey(ActionNew, req.Postcode, strconv.Itoa(req.Limit))
	if data, ok := s.cached(ctx, key); ok {
		return envelope.Success(data)
	}

	s.log.Info().Str("postcode", req.Postcode).Msg("fetching new arrivals")
	wh := s.warehouse(ctx, req.Postcode)

	records, err := s.supplier.NewArrivals(ctx, wh)
	if err != nil {
		s.log.Error().Err(err).Msg("new arrivals failed")
		return envelope.FromError(err)
	}

	items := s.norm.NewArrivals(records, req.Limit)
	s.log.Info().Int("found", len(records)).Int("valid", len(items)).Msg("new arrivals done")

	s.store(ctx, key, items)
	return envelope.Success(items)
}

func (s *Service) priceHistory(ctx context.Context, req Request) envelope.Envelope {
	if s.opts.History == nil {
		return envelope.Failure(ErrHistoryUnavailable.Error(), "")
	}
	if req.Query == "" {
		return envelope.Failure(ErrMissingID.Error(), "")
	}

	wh := s.warehouse(ctx, req.Postcode)
	points, err := s.opts.History.History(ctx, req.Query, wh, req.Limit)
	if err != nil {
		s.log.Error().Err(err).Str("id", req.Query).Msg("price history failed")
		return envelope.FromError(err)
	}
	if points == nil {
		points = []model.PricePoint{}
	}
	return envelope.Success(points)
}

// warehouse resolves postcode, falling back to the configured code on any
// failure. Resolutions are cached like results.
func (s *Service) warehouse(ctx context.Context, postcode string) string {
	key := cacheKey("warehouse", postcode)
	if s.opts.Cache != nil {
		if b, ok, err := s.opts.Cache.Get(ctx, key); err == nil && ok && len(b) > 0 {
			return string(b)
		}
	}

	wh, err := s.supplier.Warehouse(ctx, postcode)
	if err != nil || strings.TrimSpace(wh) == "" {
		s.log.Warn().Err(err).Str("postcode", postcode).Str("fallback", s.opts.FallbackWarehouse).
			Msg("warehouse resolution failed, using fallback")
		return s.opts.FallbackWarehouse
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.Set(ctx, key, []byte(wh)); err != nil {
			s.log.Warn().Err(err).Msg("caching warehouse failed")
		}
	}
	return wh
}

func (s *Service) cached(ctx context.Context, key string) (json.RawMessage, bool) {
	if s.opts.Cache == nil {
		return nil, false
	}
	b, ok, err := s.opts.Cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache lookup failed")
		observability.CacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	if !ok || !json.Valid(b) {
		observability.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	observability.CacheLookups.WithLabelValues("hit").Inc()
	s.log.Debug().Str("key", key).Msg("served from cache")
	return json.RawMessage(b), true
}

func (s *Service) store(ctx context.Context, key string, v any) {
	if s.opts.Cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("encoding result for cache failed")
		return
	}
	if err := s.opts.Cache.Set(ctx, key, b); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func cacheKey[T ~string](kind T, parts ...string) string {
	return string(kind) + ":" + strings.Join(parts, ":")
}
