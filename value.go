package cfbridge

import (
	"fmt"
	"github.com/pkg/errors"
	"math"
	"reflect"
	"sort"
)

// Value is a Go value with a native counterpart. The set of implementations is closed: the
// scalar kinds below, String, Bytes, List, Map, and existing native references (*Object,
// Borrowed).
type Value interface {
	value()
}

type Bool bool
type Int8 int8
type Int16 int16
type Int32 int32
type Int64 int64
type Float32 float32
type Float64 float64
type String string
type Bytes []byte
type List []Value

// Map is an ordered mapping. Keys are expected to be unique.
type Map []Entry

type Entry struct {
	Key   Value
	Value Value
}

func (Bool) value()     {}
func (Int8) value()     {}
func (Int16) value()    {}
func (Int32) value()    {}
func (Int64) value()    {}
func (Float32) value()  {}
func (Float64) value()  {}
func (String) value()   {}
func (Bytes) value()    {}
func (List) value()     {}
func (Map) value()      {}
func (*Object) value()  {}
func (Borrowed) value() {}

// ValueOf converts a plain Go value, such as one decoded from YAML or JSON, into a Value. Maps
// with non-Value keys are ordered by the formatted key.
func ValueOf(v interface{}) (Value, error) {
	switch v := v.(type) {
	case Value:
		if o, ok := v.(*Object); ok && o == nil {
			return nil, &UnsupportedTypeError{Type: reflect.TypeOf(v)}
		}
		return v, nil
	case bool:
		return Bool(v), nil
	case int8:
		return Int8(v), nil
	case int16:
		return Int16(v), nil
	case int32:
		return Int32(v), nil
	case int64:
		return Int64(v), nil
	case int:
		return Int64(v), nil
	case uint8:
		return Int16(v), nil
	case uint16:
		return Int32(v), nil
	case uint32:
		return Int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, errors.Wrapf(ErrInvalidArgument, "value [%d] overflows SInt64", v)
		}
		return Int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return nil, errors.Wrapf(ErrInvalidArgument, "value [%d] overflows SInt64", v)
		}
		return Int64(v), nil
	case float32:
		return Float32(v), nil
	case float64:
		return Float64(v), nil
	case string:
		return String(v), nil
	case []byte:
		return Bytes(v), nil
	case []interface{}:
		l := make(List, 0, len(v))
		for i, e := range v {
			ev, err := ValueOf(e)
			if err != nil {
				return nil, errors.Wrapf(err, "element [%d]", i)
			}
			l = append(l, ev)
		}
		return l, nil
	case []Value:
		return List(v), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := make(Map, 0, len(v))
		for _, k := range keys {
			ev, err := ValueOf(v[k])
			if err != nil {
				return nil, errors.Wrapf(err, "key '%s'", k)
			}
			m = append(m, Entry{Key: String(k), Value: ev})
		}
		return m, nil
	case map[interface{}]interface{}:
		keys := make([]interface{}, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		// keys printing alike are ordered by type name
		sort.Slice(keys, func(i, j int) bool {
			a, b := fmt.Sprint(keys[i]), fmt.Sprint(keys[j])
			if a != b {
				return a < b
			}
			return fmt.Sprintf("%T", keys[i]) < fmt.Sprintf("%T", keys[j])
		})
		m := make(Map, 0, len(v))
		for _, k := range keys {
			kv, err := ValueOf(k)
			if err != nil {
				return nil, errors.Wrapf(err, "key '%v'", k)
			}
			ev, err := ValueOf(v[k])
			if err != nil {
				return nil, errors.Wrapf(err, "key '%v'", k)
			}
			m = append(m, Entry{Key: kv, Value: ev})
		}
		return m, nil
	default:
		return nil, &UnsupportedTypeError{Type: reflect.TypeOf(v)}
	}
}

// Interface converts v back into plain Go values. Native references are returned as is.
func Interface(v Value) interface{} {
	switch v := v.(type) {
	case Bool:
		return bool(v)
	case Int8:
		return int8(v)
	case Int16:
		return int16(v)
	case Int32:
		return int32(v)
	case Int64:
		return int64(v)
	case Float32:
		return float32(v)
	case Float64:
		return float64(v)
	case String:
		return string(v)
	case Bytes:
		return []byte(v)
	case List:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = Interface(e)
		}
		return out
	case Map:
		out := make(map[interface{}]interface{}, len(v))
		for _, e := range v {
			out[mapKey(Interface(e.Key))] = Interface(e.Value)
		}
		return out
	default:
		return v
	}
}

func mapKey(k interface{}) interface{} {
	switch k := k.(type) {
	case []byte:
		return string(k)
	case []interface{}, map[interface{}]interface{}:
		return fmt.Sprint(k)
	default:
		return k
	}
}
