// Package signals holds lenient coercions applied to third-party signal values
// before they reach the feature vector.
package signals

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// PrivacyPrivate is the privacy status value flagged by PrivacyIsPrivate.
const PrivacyPrivate = "private"

var truthyStrings = map[string]bool{
	"1":    true,
	"true": true,
	"yes":  true,
	"y":    true,
	"t":    true,
}

// SafeBool normalizes nil, booleans, numbers and strings to 0 or 1.
//
// Strings are truthy only when they are one of 1/true/yes/y/t (case and
// surrounding whitespace ignored). Any other value is truthy when it is
// non-zero and, for containers, non-empty.
func SafeBool(v any) int {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		return boolToInt(x)
	case int:
		return boolToInt(x != 0)
	case int8:
		return boolToInt(x != 0)
	case int16:
		return boolToInt(x != 0)
	case int32:
		return boolToInt(x != 0)
	case int64:
		return boolToInt(x != 0)
	case uint:
		return boolToInt(x != 0)
	case uint8:
		return boolToInt(x != 0)
	case uint16:
		return boolToInt(x != 0)
	case uint32:
		return boolToInt(x != 0)
	case uint64:
		return boolToInt(x != 0)
	case float32:
		return boolToInt(x != 0)
	case float64:
		return boolToInt(x != 0)
	case json.Number:
		f, err := x.Float64()
		return boolToInt(err == nil && f != 0)
	case string:
		return boolToInt(truthyStrings[strings.ToLower(strings.TrimSpace(x))])
	}
	return truthiness(v)
}

// SafeFloat converts an indicator value to a number. Missing and
// unparseable values are 0; strings that are not numbers go through SafeBool.
func SafeFloat(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		return float64(boolToInt(x))
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
		return float64(SafeBool(x))
	}
	return float64(SafeBool(v))
}

// HasInformation is 1 when the value is present.
func HasInformation(v any) int {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return 0
	}
	return 1
}

// PromoCodeUsed is 1 when a promo code identifier was supplied. An empty
// string still counts as supplied.
func PromoCodeUsed(promoCodeID *string) int {
	return boolToInt(promoCodeID != nil)
}

// PrivacyIsPrivate is 1 iff status is exactly "private".
func PrivacyIsPrivate(status *string) int {
	return boolToInt(status != nil && *status == PrivacyPrivate)
}

func truthiness(v any) int {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String, reflect.Chan:
		return boolToInt(rv.Len() > 0)
	case reflect.Pointer, reflect.Interface, reflect.Func:
		return boolToInt(!rv.IsNil())
	}
	return boolToInt(!rv.IsZero())
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
