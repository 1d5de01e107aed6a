package supplier

import "mercabridge/internal/model"

// path addresses a value inside decoded JSON: string steps index objects,
// int steps index arrays.
type path []any

// attributePaths maps each record attribute to the places the store puts
// it, tried in order.
var attributePaths = map[string][]path{
	"id":             {{"id"}},
	"name":           {{"display_name"}},
	"brand":          {{"brand"}, {"details", "brand"}},
	"category":       {{"categories"}},
	"unit_price":     {{"price_instructions", "unit_price"}},
	"bulk_price":     {{"price_instructions", "bulk_price"}},
	"is_discounted":  {{"price_instructions", "price_decreased"}},
	"previous_price": {{"price_instructions", "previous_unit_price"}},
	"iva":            {{"price_instructions", "iva"}},
	"is_new":         {{"price_instructions", "is_new"}},
	"is_pack":        {{"price_instructions", "is_pack"}},
	"weight":         {{"price_instructions", "unit_size"}},
	"pack_size":      {{"price_instructions", "pack_size"}},
	"total_units":    {{"price_instructions", "total_units"}},
	"minimum_amount": {{"price_instructions", "min_bunch_amount"}},
	"description":    {{"details", "description"}},
	"origin":         {{"details", "origin"}},
	"supplier":       {{"details", "suppliers", 0, "name"}},
	"legal_name":     {{"details", "legal_name"}},
	"ean":            {{"ean"}},
	"slug":           {{"slug"}},
	"age_check":      {{"badges", "requires_age_check"}},
}

func toRecords(raw []map[string]any) []model.SourceRecord {
	out := make([]model.SourceRecord, 0, len(raw))
	for _, r := range raw {
		out = append(out, toRecord(r))
	}
	return out
}

// toRecord flattens one store product. The first alternative carrying a
// non-null value wins; an explicit null is kept so that the attribute
// still counts as present.
func toRecord(raw map[string]any) model.SourceRecord {
	fields := make(map[string]any, len(attributePaths))
	for attr, alternatives := range attributePaths {
		for _, p := range alternatives {
			v, ok := lookup(raw, p)
			if !ok {
				continue
			}
			fields[attr] = v
			if v != nil {
				break
			}
		}
	}

	rec := model.NewSourceRecord(fields)
	if published, ok := raw["published"].(bool); ok && !published {
		rec.NotFound = true
	}
	return rec
}

func lookup(v any, p path) (any, bool) {
	cur := v
	for _, step := range p {
		switch s := step.(type) {
		case string:
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			next, ok := obj[s]
			if !ok {
				return nil, false
			}
			cur = next
		case int:
			arr, ok := cur.([]any)
			if !ok || s < 0 || s >= len(arr) {
				return nil, false
			}
			cur = arr[s]
		default:
			return nil, false
		}
	}
	return cur, true
}
