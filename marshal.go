package cfbridge

import (
	"github.com/pkg/errors"
	"reflect"
	"runtime"
)

// MaxVariadicObjects is the largest array built with a single NewArray call. Larger arrays are
// accumulated in a mutable array instead.
const MaxVariadicObjects = 100

// ToNative converts v into a managed reference to its native counterpart.
func ToNative(rt Runtime, v Value) (*Object, error) {
	o, err := toOwned(rt, v)
	if err != nil {
		return nil, err
	}
	return BridgeTransfer(o, o.class.immutable())
}

// NewString creates a native immutable string.
func NewString(rt Runtime, s string) (*Object, error) {
	return ToNative(rt, String(s))
}

// ToDictionary converts m into a native mutable dictionary holding every entry boxed.
func ToDictionary(rt Runtime, m Map) (*Object, error) {
	o, err := toDictionary(rt, m)
	if err != nil {
		return nil, err
	}
	return BridgeTransfer(o, o.class.immutable())
}

// ToArray converts l into a native array preserving order.
func ToArray(rt Runtime, l List) (*Object, error) {
	o, err := toArray(rt, l)
	if err != nil {
		return nil, err
	}
	return BridgeTransfer(o, o.class.immutable())
}

func adopt(rt Runtime, ref Ref, class Class, err error) (*Owned, error) {
	if err != nil {
		return nil, errors.Wrapf(err, "create [%s]", class)
	}
	return Adopt(rt, ref, class), nil
}

func toOwned(rt Runtime, v Value) (*Owned, error) {
	switch v := v.(type) {
	case Bool:
		ref, err := rt.NewBool(bool(v))
		return adopt(rt, ref, ClassBoolean, err)
	case Int8:
		ref, err := rt.NewNumber(IntNumber(Int8Number, int64(v)))
		return adopt(rt, ref, ClassNumber, err)
	case Int16:
		ref, err := rt.NewNumber(IntNumber(Int16Number, int64(v)))
		return adopt(rt, ref, ClassNumber, err)
	case Int32:
		ref, err := rt.NewNumber(IntNumber(Int32Number, int64(v)))
		return adopt(rt, ref, ClassNumber, err)
	case Int64:
		ref, err := rt.NewNumber(IntNumber(Int64Number, int64(v)))
		return adopt(rt, ref, ClassNumber, err)
	case Float32:
		ref, err := rt.NewNumber(FloatNumber(Float32Number, float64(v)))
		return adopt(rt, ref, ClassNumber, err)
	case Float64:
		ref, err := rt.NewNumber(FloatNumber(Float64Number, float64(v)))
		return adopt(rt, ref, ClassNumber, err)
	case String:
		ref, err := rt.NewString(string(v))
		return adopt(rt, ref, ClassString, err)
	case Bytes:
		ref, err := rt.NewData([]byte(v))
		return adopt(rt, ref, ClassData, err)
	case List:
		return toArray(rt, v)
	case Map:
		return toDictionary(rt, v)
	case *Object:
		if v == nil {
			break
		}
		if v.rt != rt {
			return nil, errors.Wrapf(ErrInvalidArgument, "object [%s] belongs to another runtime", v.ref)
		}
		return BridgeRetained(v, v.class)
	case Borrowed:
		if v.rt != rt {
			return nil, errors.Wrapf(ErrInvalidArgument, "reference [%s] belongs to another runtime", v.ref)
		}
		return v.Retain()
	}
	return nil, &UnsupportedTypeError{Type: reflect.TypeOf(v)}
}

func toDictionary(rt Runtime, m Map) (*Owned, error) {
	ref, err := rt.NewMutableDictionary(len(m))
	dict, err := adopt(rt, ref, ClassMutableDictionary, err)
	if err != nil {
		return nil, err
	}
	for _, e := range m {
		// keys and values must be native objects themselves
		k, err := toOwned(rt, e.Key)
		if err != nil {
			releaseAll(dict)
			return nil, errors.Wrap(err, "dictionary key")
		}
		v, err := toOwned(rt, e.Value)
		if err != nil {
			releaseAll(k, dict)
			return nil, errors.Wrap(err, "dictionary value")
		}
		err = rt.SetValue(dict.ref, k.ref, v.ref)
		releaseAll(k, v)
		if err != nil {
			releaseAll(dict)
			return nil, errors.Wrapf(err, "set value in [%s]", dict.ref)
		}
	}
	return dict, nil
}

func toArray(rt Runtime, l List) (*Owned, error) {
	switch {
	case len(l) == 0:
		ref, err := rt.NewArray()
		return adopt(rt, ref, ClassArray, err)

	case len(l) == 1:
		first, err := toOwned(rt, l[0])
		if err != nil {
			return nil, errors.Wrap(err, "element [0]")
		}
		ref, err := rt.NewArray(first.ref)
		releaseAll(first)
		return adopt(rt, ref, ClassArray, err)

	case len(l) > MaxVariadicObjects:
		ref, err := rt.NewMutableArray(len(l))
		array, err := adopt(rt, ref, ClassMutableArray, err)
		if err != nil {
			return nil, err
		}
		for i, e := range l {
			o, err := toOwned(rt, e)
			if err != nil {
				releaseAll(array)
				return nil, errors.Wrapf(err, "element [%d]", i)
			}
			err = rt.AppendValue(array.ref, o.ref)
			releaseAll(o)
			if err != nil {
				releaseAll(array)
				return nil, errors.Wrapf(err, "append to [%s]", array.ref)
			}
		}
		return array, nil

	default:
		elements := make([]*Owned, 0, len(l))
		refs := make([]Ref, 0, len(l))
		for i, e := range l {
			o, err := toOwned(rt, e)
			if err != nil {
				releaseAll(elements...)
				return nil, errors.Wrapf(err, "element [%d]", i)
			}
			elements = append(elements, o)
			refs = append(refs, o.ref)
		}
		ref, err := rt.NewArray(refs...)
		releaseAll(elements...)
		return adopt(rt, ref, ClassArray, err)
	}
}

// FromNative decodes the native value behind obj into a Value tree.
func FromNative(obj *Object) (Value, error) {
	if obj == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "decode nil object")
	}
	defer runtime.KeepAlive(obj)
	return fromRef(obj.rt, obj.ref)
}

func fromRef(rt Runtime, ref Ref) (Value, error) {
	class, err := rt.ClassOf(ref)
	if err != nil {
		return nil, errors.Wrapf(err, "class of [%s]", ref)
	}
	switch {
	case class.KindOf(ClassBoolean):
		v, err := rt.BoolValue(ref)
		return Bool(v), err

	case class.KindOf(ClassNumber):
		n, err := rt.NumberValue(ref)
		if err != nil {
			return nil, err
		}
		switch n.Kind {
		case Int8Number:
			return Int8(n.Int), nil
		case Int16Number:
			return Int16(n.Int), nil
		case Int32Number:
			return Int32(n.Int), nil
		case Float32Number:
			return Float32(n.Float), nil
		case Float64Number:
			return Float64(n.Float), nil
		default:
			return Int64(n.Int), nil
		}

	case class.KindOf(ClassString):
		s, err := rt.StringValue(ref)
		return String(s), err

	case class.KindOf(ClassData):
		length, err := rt.DataLength(ref)
		if err != nil {
			return nil, err
		}
		data, err := rt.DataBytes(ref, 0, length)
		return Bytes(data), err

	case class.KindOf(ClassArray):
		count, err := rt.Count(ref)
		if err != nil {
			return nil, err
		}
		l := make(List, 0, count)
		for i := 0; i < count; i++ {
			e, err := rt.ValueAt(ref, i)
			if err != nil {
				return nil, errors.Wrapf(err, "element [%d] of [%s]", i, ref)
			}
			v, err := fromRef(rt, e)
			if err != nil {
				return nil, err
			}
			l = append(l, v)
		}
		return l, nil

	case class.KindOf(ClassDictionary):
		keys, err := rt.Keys(ref)
		if err != nil {
			return nil, err
		}
		m := make(Map, 0, len(keys))
		for _, key := range keys {
			value, found, err := rt.ValueFor(ref, key)
			if err != nil {
				return nil, errors.Wrapf(err, "value for [%s] in [%s]", key, ref)
			}
			if !found {
				continue
			}
			k, err := fromRef(rt, key)
			if err != nil {
				return nil, err
			}
			v, err := fromRef(rt, value)
			if err != nil {
				return nil, err
			}
			m = append(m, Entry{Key: k, Value: v})
		}
		return m, nil
	}
	return nil, errors.Wrapf(ErrInvalidArgument, "no value for [%s] of class [%s]", ref, class)
}
