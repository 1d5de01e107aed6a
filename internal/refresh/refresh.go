// Package refresh re-reads every tracked product from the store so its
// snapshot and price history stay current.
package refresh

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"mercabridge/internal/model"
	"mercabridge/internal/normalizer"
)

const defaultWorkers = 4

type Source interface {
	Tracked(ctx context.Context) ([]model.TrackedProduct, error)
}

type Fetcher interface {
	Product(ctx context.Context, warehouse, id string) (model.SourceRecord, error)
}

type Recorder interface {
	RecordDetail(ctx context.Context, warehouse string, item model.DetailItem) error
}

// Result counts the outcome of one run.
type Result struct {
	Refreshed int
	Missing   int
	Failed    int
}

type Job struct {
	Source   Source
	Fetcher  Fetcher
	Recorder Recorder
	Workers  int

	norm *normalizer.Normalizer
	log  zerolog.Logger
}

func New(src Source, fetcher Fetcher, rec Recorder, workers int, log zerolog.Logger) *Job {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Job{
		Source:   src,
		Fetcher:  fetcher,
		Recorder: rec,
		Workers:  workers,
		norm:     normalizer.New(log),
		log:      log,
	}
}

// Run refreshes all tracked products. Per-product failures are counted and
// logged; only failing to list products is returned as an error.
func (j *Job) Run(ctx context.Context) (Result, error) {
	products, err := j.Source.Tracked(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list tracked products: %w", err)
	}
	j.log.Info().Int("products", len(products)).Int("workers", j.Workers).Msg("refresh started")

	var (
		res  Result
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan model.TrackedProduct)
	)

	for w := 0; w < j.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				outcome := j.refresh(ctx, p)

				mu.Lock()
				switch outcome {
				case outcomeRefreshed:
					res.Refreshed++
				case outcomeMissing:
					res.Missing++
				default:
					res.Failed++
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, p := range products {
		select {
		case jobs <- p:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	j.log.Info().Int("refreshed", res.Refreshed).Int("missing", res.Missing).Int("failed", res.Failed).
		Msg("refresh finished")
	return res, ctx.Err()
}

type outcome int

const (
	outcomeRefreshed outcome = iota
	outcomeMissing
	outcomeFailed
)

func (j *Job) refresh(ctx context.Context, p model.TrackedProduct) outcome {
	log := j.log.With().Str("id", p.ProductID).Str("warehouse", p.Warehouse).Logger()

	rec, err := j.Fetcher.Product(ctx, p.Warehouse, p.ProductID)
	if err != nil {
		log.Warn().Err(err).Msg("fetch failed")
		return outcomeFailed
	}
	if rec.IsNotFound() {
		log.Debug().Msg("no longer listed")
		return outcomeMissing
	}

	item, ok := j.norm.Detail(rec)
	if !ok {
		return outcomeFailed
	}
	if err := j.Recorder.RecordDetail(ctx, p.Warehouse, item); err != nil {
		log.Warn().Err(err).Msg("recording failed")
		return outcomeFailed
	}
	return outcomeRefreshed
}
