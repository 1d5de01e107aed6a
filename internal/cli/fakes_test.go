package cli

import (
	"context"

	"github.com/rs/zerolog"

	"mercabridge/internal/model"
)

// countingSupplier answers with empty results and counts calls.
type countingSupplier struct {
	calls int
}

func (s *countingSupplier) Warehouse(context.Context, string) (string, error) {
	s.calls++
	return "mad1", nil
}

func (s *countingSupplier) Search(context.Context, string, string) ([]model.SourceRecord, error) {
	s.calls++
	return nil, nil
}

func (s *countingSupplier) NewArrivals(context.Context, string) ([]model.SourceRecord, error) {
	s.calls++
	return nil, nil
}

func (s *countingSupplier) Product(context.Context, string, string) (model.SourceRecord, error) {
	s.calls++
	return model.SourceRecord{}, nil
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }
