package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ErrCoercion is returned when a raw attribute cannot be converted to the
// type of its field.
var ErrCoercion = errors.New("coercion failed")

func coercionError(want string, v any) error {
	return fmt.Errorf("%w: cannot read %T as %s", ErrCoercion, v, want)
}

func coerce(p Policy, v any) (any, error) {
	switch p.Kind {
	case KindFloat:
		return toFloat(v)
	case KindInt:
		return toInt(v)
	case KindBool:
		return toBool(v)
	case KindText:
		s, err := toText(v)
		if err != nil {
			return nil, err
		}
		if p.PlainText {
			s = plainText(s)
		}
		return s, nil
	case KindName:
		return toName(v)
	case KindCategory:
		return toCategory(v)
	case KindID:
		return toID(v)
	}
	return nil, fmt.Errorf("%w: unknown kind %d", ErrCoercion, p.Kind)
}

// number reads any Go integer or float kind as a float64.
func number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func toFloat(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrCoercion, err)
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrCoercion, err)
		}
		f = parsed
	default:
		parsed, ok := number(v)
		if !ok {
			return 0, coercionError("float", v)
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: non-finite number", ErrCoercion)
	}
	return f, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, nil
		}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if rv.Uint() > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d out of range", ErrCoercion, rv.Uint())
		}
		return int(rv.Uint()), nil
	}

	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %g out of range", ErrCoercion, f)
	}
	return int(f), nil
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrCoercion, err)
		}
		return parsed, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return false, coercionError("bool", v)
	}
	return f != 0, nil
}

func toText(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return strings.ToValidUTF8(string(s), ""), nil
	case json.Number:
		return s.String(), nil
	case bool:
		return strconv.FormatBool(s), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("%w: non-finite number", ErrCoercion)
		}
		return strconv.FormatFloat(f, 'f', -1, rv.Type().Bits()), nil
	}
	return "", coercionError("text", v)
}

// toName drops byte sequences that are not valid UTF-8; valid text is kept
// as sent. Only string-like values are accepted.
func toName(v any) (string, error) {
	var s string
	switch n := v.(type) {
	case string:
		s = n
	case []byte:
		s = string(n)
	default:
		return "", coercionError("name", v)
	}
	return strings.ToValidUTF8(s, ""), nil
}

func toID(v any) (string, error) {
	s, err := toText(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}
