package normalizer

// Field names a product attribute as exposed by the supplier.
type Field string

const (
	FieldID            Field = "id"
	FieldName          Field = "name"
	FieldBrand         Field = "brand"
	FieldCategory      Field = "category"
	FieldUnitPrice     Field = "unit_price"
	FieldBulkPrice     Field = "bulk_price"
	FieldIsDiscounted  Field = "is_discounted"
	FieldPreviousPrice Field = "previous_price"
	FieldIVA           Field = "iva"
	FieldIsNew         Field = "is_new"
	FieldIsPack        Field = "is_pack"
	FieldWeight        Field = "weight"
	FieldDescription   Field = "description"
	FieldOrigin        Field = "origin"
	FieldSupplier      Field = "supplier"
	FieldPackSize      Field = "pack_size"
	FieldTotalUnits    Field = "total_units"
	FieldLegalName     Field = "legal_name"
	FieldEAN           Field = "ean"
	FieldSlug          Field = "slug"
	FieldAgeCheck      Field = "age_check"
	FieldMinimumAmount Field = "minimum_amount"
)

const (
	// HouseBrand is reported when a product carries no brand.
	HouseBrand = "Mercadona"
	// CategoryFallback is reported when no category name can be resolved.
	CategoryFallback = "Sin categoría"
	// NamePlaceholder replaces a product name that cannot be read as text.
	NamePlaceholder = "Producto"
	// UnknownID replaces an id that cannot be turned into a string.
	UnknownID = "unknown"
	// DefaultIVA is the general VAT rate applied when the supplier omits it.
	DefaultIVA = 21
)

// Kind selects the coercion applied to a field.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindBool
	KindText
	KindName
	KindCategory
	KindID
)

// Policy is the fallback rule of one field. Default is used when the
// attribute is absent or nil, Invalid when a present value fails coercion.
// A nil Default marks an optional field that serializes as null.
type Policy struct {
	Kind      Kind
	Default   any
	Invalid   any
	PlainText bool
}

func (p Policy) onInvalid() any {
	if p.Invalid != nil {
		return p.Invalid
	}
	return p.Default
}

// Policies is the complete fallback table.
var Policies = map[Field]Policy{
	FieldID:            {Kind: KindID, Default: UnknownID},
	FieldName:          {Kind: KindName, Default: "", Invalid: NamePlaceholder},
	FieldBrand:         {Kind: KindText, Default: HouseBrand},
	FieldCategory:      {Kind: KindCategory, Default: CategoryFallback},
	FieldUnitPrice:     {Kind: KindFloat, Default: 0.0},
	FieldBulkPrice:     {Kind: KindFloat},
	FieldIsDiscounted:  {Kind: KindBool, Default: false},
	FieldPreviousPrice: {Kind: KindFloat},
	FieldIVA:           {Kind: KindInt, Default: DefaultIVA},
	FieldIsNew:         {Kind: KindBool, Default: false},
	FieldIsPack:        {Kind: KindBool, Default: false},
	FieldWeight:        {Kind: KindFloat},
	FieldDescription:   {Kind: KindText, Default: "", PlainText: true},
	FieldOrigin:        {Kind: KindText, Default: ""},
	FieldSupplier:      {Kind: KindText, Default: ""},
	FieldPackSize:      {Kind: KindInt},
	FieldTotalUnits:    {Kind: KindInt},
	FieldLegalName:     {Kind: KindText, Default: "", PlainText: true},
	FieldEAN:           {Kind: KindText, Default: ""},
	FieldSlug:          {Kind: KindText, Default: ""},
	FieldAgeCheck:      {Kind: KindBool, Default: false},
	FieldMinimumAmount: {Kind: KindInt, Default: 1},
}
