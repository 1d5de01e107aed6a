package normalizer

import (
	"fmt"

	"github.com/rs/zerolog"

	"mercabridge/internal/model"
	"mercabridge/internal/observability"
)

// Extractor reads single fields out of a SourceRecord. Every call returns a
// value of the field's declared type: it never panics and never fails.
type Extractor struct {
	log zerolog.Logger
}

func NewExtractor(log zerolog.Logger) *Extractor {
	return &Extractor{log: log}
}

// Extract returns the coerced value of field f. The dynamic type is float64,
// int, bool or string according to the field kind, or nil for an optional
// field without a usable value. Unknown fields yield nil.
func (e *Extractor) Extract(r model.SourceRecord, f Field) (v any) {
	p, ok := Policies[f]
	if !ok {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			e.fallback(f, fmt.Errorf("%w: panic: %v", ErrCoercion, rec))
			v = p.onInvalid()
		}
	}()

	raw, present := r.Lookup(string(f))
	if !present || raw == nil {
		return p.Default
	}

	out, err := coerce(p, raw)
	if err != nil {
		e.fallback(f, err)
		return p.onInvalid()
	}
	if s, isText := out.(string); isText && s == "" && p.Default != nil {
		return p.Default
	}
	return out
}

func (e *Extractor) fallback(f Field, err error) {
	observability.FieldFallbacks.WithLabelValues(string(f)).Inc()
	e.log.Debug().Str("field", string(f)).Err(err).Msg("field replaced by default")
}

func (e *Extractor) Text(r model.SourceRecord, f Field) string {
	s, _ := e.Extract(r, f).(string)
	return s
}

func (e *Extractor) Float(r model.SourceRecord, f Field) float64 {
	n, _ := e.Extract(r, f).(float64)
	return n
}

// OptionalFloat returns nil when the field has no usable value.
func (e *Extractor) OptionalFloat(r model.SourceRecord, f Field) *float64 {
	n, ok := e.Extract(r, f).(float64)
	if !ok {
		return nil
	}
	return &n
}

func (e *Extractor) Int(r model.SourceRecord, f Field) int {
	n, _ := e.Extract(r, f).(int)
	return n
}

// OptionalInt returns nil when the field has no usable value.
func (e *Extractor) OptionalInt(r model.SourceRecord, f Field) *int {
	n, ok := e.Extract(r, f).(int)
	if !ok {
		return nil
	}
	return &n
}

func (e *Extractor) Bool(r model.SourceRecord, f Field) bool {
	b, _ := e.Extract(r, f).(bool)
	return b
}
