package model

// SourceRecord is one product as handed over by the supplier. Attributes are
// kept untyped: any of them may be missing, nil or carry an unexpected shape.
type SourceRecord struct {
	Fields   map[string]any
	NotFound bool
}

// NewSourceRecord wraps an attribute map.
func NewSourceRecord(fields map[string]any) SourceRecord {
	return SourceRecord{Fields: fields}
}

// NotFoundRecord is what the supplier returns for an id it does not know.
func NotFoundRecord(id string) SourceRecord {
	return SourceRecord{Fields: map[string]any{"id": id}, NotFound: true}
}

// Lookup reports the raw attribute value and whether it was present at all.
func (r SourceRecord) Lookup(name string) (any, bool) {
	if r.Fields == nil {
		return nil, false
	}
	v, ok := r.Fields[name]
	return v, ok
}

func (r SourceRecord) IsNotFound() bool {
	return r.NotFound
}

// SearchItem is the shape returned by product searches.
type SearchItem struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Brand         string   `json:"brand"`
	Category      string   `json:"category"`
	UnitPrice     float64  `json:"unit_price"`
	BulkPrice     *float64 `json:"bulk_price"`
	IsDiscounted  bool     `json:"is_discounted"`
	PreviousPrice *float64 `json:"previous_price"`
	IVA           int      `json:"iva"`
	IsNew         bool     `json:"is_new"`
	IsPack        bool     `json:"is_pack"`
	Weight        *float64 `json:"weight"`
	Description   string   `json:"description"`
	Origin        string   `json:"origin"`
	Supplier      string   `json:"supplier"`
}

// DetailItem is the shape returned by a single product lookup.
type DetailItem struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Brand         string   `json:"brand"`
	Category      string   `json:"category"`
	UnitPrice     float64  `json:"unit_price"`
	BulkPrice     *float64 `json:"bulk_price"`
	IsDiscounted  bool     `json:"is_discounted"`
	PreviousPrice *float64 `json:"previous_price"`
	IVA           int      `json:"iva"`
	IsNew         bool     `json:"is_new"`
	IsPack        bool     `json:"is_pack"`
	PackSize      *int     `json:"pack_size"`
	TotalUnits    *int     `json:"total_units"`
	Weight        *float64 `json:"weight"`
	Description   string   `json:"description"`
	LegalName     string   `json:"legal_name"`
	Origin        string   `json:"origin"`
	Supplier      string   `json:"supplier"`
	EAN           string   `json:"ean"`
	Slug          string   `json:"slug"`
	AgeCheck      bool     `json:"age_check"`
	MinimumAmount int      `json:"minimum_amount"`
}

// NewArrivalItem is the reduced shape used for the new arrivals listing.
type NewArrivalItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Brand     string  `json:"brand"`
	Category  string  `json:"category"`
	UnitPrice float64 `json:"unit_price"`
	IsNew     bool    `json:"is_new"`
}

// PricePoint is one recorded observation of a product price in a warehouse.
type PricePoint struct {
	ProductID     string   `json:"product_id"`
	Warehouse     string   `json:"warehouse"`
	UnitPrice     float64  `json:"unit_price"`
	BulkPrice     *float64 `json:"bulk_price"`
	PreviousPrice *float64 `json:"previous_price"`
	IsDiscounted  bool     `json:"is_discounted"`
	ObservedAt    string   `json:"observed_at"`
}

// TrackedProduct identifies a stored snapshot due for refresh.
type TrackedProduct struct {
	ProductID string
	Warehouse string
}
