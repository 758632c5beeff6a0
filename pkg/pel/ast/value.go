package ast

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the dynamic type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
	KindTime
	KindDuration
)

// String returns the lowercase name of the kind, as used in error messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindTime:
		return "timestamp"
	case KindDuration:
		return "duration"
	default:
		return "unknown"
	}
}

// Value is the tagged variant PEL evaluates over. Numbers are float64
// internally; integers from decoded JSON/YAML documents are widened on
// conversion. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []Value
	m    map[string]Value
	t    time.Time
	d    time.Duration
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List returns a list value. The slice is not copied; callers must not
// mutate it after construction.
func List(elems []Value) Value { return Value{kind: KindList, list: elems} }

// Map returns a map value. The map is not copied; callers must not mutate
// it after construction.
func Map(fields map[string]Value) Value { return Value{kind: KindMap, m: fields} }

// Time returns a timestamp value.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Duration returns a duration value.
func Duration(d time.Duration) Value { return Value{kind: KindDuration, d: d} }

// FromGo converts a decoded Go value (the shapes produced by encoding/json
// and yaml.v3) into a Value. Unsupported types convert to their string
// representation rather than failing, so arbitrary response documents can
// always be bound into an evaluation environment.
func FromGo(v interface{}) Value {
	switch val := v.(type) {
	case nil:
		return Null()
	case Value:
		return val
	case bool:
		return Bool(val)
	case float64:
		return Number(val)
	case float32:
		return Number(float64(val))
	case int:
		return Number(float64(val))
	case int32:
		return Number(float64(val))
	case int64:
		return Number(float64(val))
	case uint:
		return Number(float64(val))
	case uint64:
		return Number(float64(val))
	case string:
		return String(val)
	case time.Time:
		return Time(val)
	case time.Duration:
		return Duration(val)
	case []interface{}:
		elems := make([]Value, len(val))
		for i, e := range val {
			elems[i] = FromGo(e)
		}
		return List(elems)
	case []string:
		elems := make([]Value, len(val))
		for i, e := range val {
			elems[i] = String(e)
		}
		return List(elems)
	case map[string]interface{}:
		fields := make(map[string]Value, len(val))
		for k, e := range val {
			fields[k] = FromGo(e)
		}
		return Map(fields)
	default:
		return String(fmt.Sprint(val))
	}
}

// Kind returns the dynamic type of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload. The second result is false when the
// value is not a bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsNumber returns the numeric payload. The second result is false when the
// value is not a number.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.n, true
}

// AsString returns the string payload. The second result is false when the
// value is not a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsList returns the list payload. The second result is false when the value
// is not a list. Callers must treat the returned slice as read-only.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// AsMap returns the map payload. The second result is false when the value is
// not a map. Callers must treat the returned map as read-only.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// AsTime returns the timestamp payload. The second result is false when the
// value is not a timestamp.
func (v Value) AsTime() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.t, true
}

// AsDuration returns the duration payload. The second result is false when
// the value is not a duration.
func (v Value) AsDuration() (time.Duration, bool) {
	if v.kind != KindDuration {
		return 0, false
	}
	return v.d, true
}

// Field returns the named field of a map value. Missing fields and non-map
// receivers yield null; dynamic resolution never raises for absent names.
func (v Value) Field(name string) Value {
	if v.kind != KindMap {
		return Null()
	}
	f, ok := v.m[name]
	if !ok {
		return Null()
	}
	return f
}

// Equal reports structural equality. Values of different kinds are unequal
// rather than an error; null equals only null.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindTime:
		return v.t.Equal(o.t)
	case KindDuration:
		return v.d == o.d
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, e := range v.m {
			oe, ok := o.m[k]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare orders two values of the same comparable kind (number, string,
// timestamp, duration). It returns a negative, zero, or positive result and
// an error for null or incomparable operands.
func (v Value) Compare(o Value) (int, error) {
	if v.kind != o.kind {
		return 0, fmt.Errorf("cannot compare %s with %s", v.kind, o.kind)
	}
	switch v.kind {
	case KindNumber:
		switch {
		case v.n < o.n:
			return -1, nil
		case v.n > o.n:
			return 1, nil
		default:
			return 0, nil
		}
	case KindString:
		return strings.Compare(v.s, o.s), nil
	case KindTime:
		return v.t.Compare(o.t), nil
	case KindDuration:
		switch {
		case v.d < o.d:
			return -1, nil
		case v.d > o.d:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("values of kind %s are not ordered", v.kind)
	}
}

// ToGo converts the value back into plain Go types (the encoding/json
// shapes). Whole numbers become float64, matching decoded JSON.
func (v Value) ToGo() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindTime:
		return v.t
	case KindDuration:
		return v.d
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, e := range v.list {
			out[i] = e.ToGo()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.m))
		for k, e := range v.m {
			out[k] = e.ToGo()
		}
		return out
	default:
		return nil
	}
}

// String renders the value in PEL literal syntax, primarily for error
// messages and the eval CLI.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		if v.n == math.Trunc(v.n) && math.Abs(v.n) < 1e15 {
			return strconv.FormatInt(int64(v.n), 10)
		}
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindTime:
		return v.t.Format(time.RFC3339)
	case KindDuration:
		return v.d.String()
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.m[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "unknown"
	}
}
