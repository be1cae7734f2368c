package repository

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"
)

// toJSONable recursively converts a value into strictly JSON-native types so
// the persisted payload can never fail to serialize: nil, bool, string and
// numbers pass through (non-finite floats as their text form); json.Number
// becomes a float (string when the parse fails); timestamps become ISO-8601
// strings; sequences become sanitized
// lists; mappings become string-keyed sanitized maps; everything else
// becomes its string representation.
func toJSONable(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case bool, string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return v
	case float64:
		return finiteFloat(v)
	case float32:
		return finiteFloat(float64(v))
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case time.Time:
		return v.Format(time.RFC3339)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = toJSONable(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = toJSONable(e)
		}
		return out
	}

	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return toJSONable(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = toJSONable(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = toJSONable(iter.Value().Interface())
		}
		return out
	}

	return fmt.Sprintf("%v", val)
}

// finiteFloat keeps floats JSON-encodable: encoding/json rejects NaN and the
// infinities, so those fold to their text form.
func finiteFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Sprint(f)
	}
	return f
}

// sanitizeMap applies toJSONable to a payload map, tolerating nil.
func sanitizeMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return toJSONable(m).(map[string]any)
}
