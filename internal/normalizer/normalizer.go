package normalizer

import (
	"github.com/rs/zerolog"

	"mercabridge/internal/model"
	"mercabridge/internal/observability"
)

// Schema selects the output shape of a normalization.
type Schema string

const (
	SchemaSearch     Schema = "search"
	SchemaDetail     Schema = "detail"
	SchemaNewArrival Schema = "new"
)

// Normalizer turns supplier records into the fixed output shapes.
type Normalizer struct {
	ex  *Extractor
	log zerolog.Logger
}

func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{ex: NewExtractor(log), log: log}
}

// Normalize converts records to the items of schema, keeping at most limit
// input records (limit <= 0 keeps all). Records flagged as not found are
// skipped and so is any record whose assembly panics. The result is never nil.
func (n *Normalizer) Normalize(records []model.SourceRecord, schema Schema, limit int) []any {
	switch schema {
	case SchemaSearch:
		return toAny(n.Search(records, limit))
	case SchemaDetail:
		return toAny(collect(n, records, limit, n.detailItem))
	case SchemaNewArrival:
		return toAny(n.NewArrivals(records, limit))
	}
	n.log.Warn().Str("schema", string(schema)).Msg("unknown schema")
	return []any{}
}

func (n *Normalizer) Search(records []model.SourceRecord, limit int) []model.SearchItem {
	return collect(n, records, limit, n.searchItem)
}

func (n *Normalizer) NewArrivals(records []model.SourceRecord, limit int) []model.NewArrivalItem {
	return collect(n, records, limit, n.newArrivalItem)
}

// Detail assembles a single detail item. ok is false when the record is
// flagged as not found or could not be assembled.
func (n *Normalizer) Detail(r model.SourceRecord) (item model.DetailItem, ok bool) {
	if r.IsNotFound() {
		return model.DetailItem{}, false
	}
	return assemble(n, 0, r, n.detailItem)
}

func collect[T any](n *Normalizer, records []model.SourceRecord, limit int, build func(model.SourceRecord) T) []T {
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	out := make([]T, 0, len(records))
	for i, r := range records {
		if r.IsNotFound() {
			observability.RecordsDropped.WithLabelValues("not_found").Inc()
			continue
		}
		if item, ok := assemble(n, i, r, build); ok {
			out = append(out, item)
		}
	}
	return out
}

func assemble[T any](n *Normalizer, index int, r model.SourceRecord, build func(model.SourceRecord) T) (item T, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			observability.RecordsDropped.WithLabelValues("assembly").Inc()
			n.log.Warn().Int("index", index).Interface("panic", rec).Msg("dropping record")
			var zero T
			item, ok = zero, false
		}
	}()
	return build(r), true
}

func toAny[T any](items []T) []any {
	out := make([]any, len(items))
	for i := range items {
		out[i] = items[i]
	}
	return out
}

func (n *Normalizer) searchItem(r model.SourceRecord) model.SearchItem {
	ex := n.ex
	return model.SearchItem{
		ID:            ex.Text(r, FieldID),
		Name:          ex.Text(r, FieldName),
		Brand:         ex.Text(r, FieldBrand),
		Category:      ex.Text(r, FieldCategory),
		UnitPrice:     ex.Float(r, FieldUnitPrice),
		BulkPrice:     ex.OptionalFloat(r, FieldBulkPrice),
		IsDiscounted:  ex.Bool(r, FieldIsDiscounted),
		PreviousPrice: ex.OptionalFloat(r, FieldPreviousPrice),
		IVA:           ex.Int(r, FieldIVA),
		IsNew:         ex.Bool(r, FieldIsNew),
		IsPack:        ex.Bool(r, FieldIsPack),
		Weight:        ex.OptionalFloat(r, FieldWeight),
		Description:   ex.Text(r, FieldDescription),
		Origin:        ex.Text(r, FieldOrigin),
		Supplier:      ex.Text(r, FieldSupplier),
	}
}

func (n *Normalizer) detailItem(r model.SourceRecord) model.DetailItem {
	ex := n.ex
	return model.DetailItem{
		ID:            ex.Text(r, FieldID),
		Name:          ex.Text(r, FieldName),
		Brand:         ex.Text(r, FieldBrand),
		Category:      ex.Text(r, FieldCategory),
		UnitPrice:     ex.Float(r, FieldUnitPrice),
		BulkPrice:     ex.OptionalFloat(r, FieldBulkPrice),
		IsDiscounted:  ex.Bool(r, FieldIsDiscounted),
		PreviousPrice: ex.OptionalFloat(r, FieldPreviousPrice),
		IVA:           ex.Int(r, FieldIVA),
		IsNew:         ex.Bool(r, FieldIsNew),
		IsPack:        ex.Bool(r, FieldIsPack),
		PackSize:      ex.OptionalInt(r, FieldPackSize),
		TotalUnits:    ex.OptionalInt(r, FieldTotalUnits),
		Weight:        ex.OptionalFloat(r, FieldWeight),
		Description:   ex.Text(r, FieldDescription),
		LegalName:     ex.Text(r, FieldLegalName),
		Origin:        ex.Text(r, FieldOrigin),
		Supplier:      ex.Text(r, FieldSupplier),
		EAN:           ex.Text(r, FieldEAN),
		Slug:          ex.Text(r, FieldSlug),
		AgeCheck:      ex.Bool(r, FieldAgeCheck),
		MinimumAmount: ex.Int(r, FieldMinimumAmount),
	}
}

func (n *Normalizer) newArrivalItem(r model.SourceRecord) model.NewArrivalItem {
	ex := n.ex
	return model.NewArrivalItem{
		ID:        ex.Text(r, FieldID),
		Name:      ex.Text(r, FieldName),
		Brand:     ex.Text(r, FieldBrand),
		Category:  ex.Text(r, FieldCategory),
		UnitPrice: ex.Float(r, FieldUnitPrice),
		IsNew:     true,
	}
}
