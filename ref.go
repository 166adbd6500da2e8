package cfbridge

import "fmt"

// Ref is an opaque handle to an object owned by the native reference-counted runtime.
type Ref uintptr

const NilRef Ref = 0

func (r Ref) String() string {
	return fmt.Sprintf("0x%x", uintptr(r))
}

type Class uint8

const (
	ClassAny Class = iota
	ClassString
	ClassData
	ClassNumber
	ClassBoolean
	ClassArray
	ClassMutableArray
	ClassDictionary
	ClassMutableDictionary
)

func (c Class) String() string {
	switch c {
	case ClassAny:
		return "CFType"
	case ClassString:
		return "CFString"
	case ClassData:
		return "CFData"
	case ClassNumber:
		return "CFNumber"
	case ClassBoolean:
		return "CFBoolean"
	case ClassArray:
		return "CFArray"
	case ClassMutableArray:
		return "CFMutableArray"
	case ClassDictionary:
		return "CFDictionary"
	case ClassMutableDictionary:
		return "CFMutableDictionary"
	default:
		return fmt.Sprintf("Class(%d)", uint8(c))
	}
}

func (c Class) parent() Class {
	switch c {
	case ClassBoolean:
		return ClassNumber
	case ClassMutableArray:
		return ClassArray
	case ClassMutableDictionary:
		return ClassDictionary
	default:
		return ClassAny
	}
}

// immutable maps mutable container classes to the class they refine. Backends are not required
// to report mutability.
func (c Class) immutable() Class {
	switch c {
	case ClassMutableArray:
		return ClassArray
	case ClassMutableDictionary:
		return ClassDictionary
	default:
		return c
	}
}

// KindOf reports whether an instance of c can be used where want is expected.
func (c Class) KindOf(want Class) bool {
	for {
		if c == want {
			return true
		}
		if c == ClassAny {
			return false
		}
		c = c.parent()
	}
}

type NumberKind uint8

const (
	Int8Number NumberKind = iota
	Int16Number
	Int32Number
	Int64Number
	Float32Number
	Float64Number
)

func (k NumberKind) String() string {
	switch k {
	case Int8Number:
		return "SInt8"
	case Int16Number:
		return "SInt16"
	case Int32Number:
		return "SInt32"
	case Int64Number:
		return "SInt64"
	case Float32Number:
		return "Float32"
	case Float64Number:
		return "Float64"
	default:
		return fmt.Sprintf("NumberKind(%d)", uint8(k))
	}
}

func (k NumberKind) IsFloat() bool {
	return k == Float32Number || k == Float64Number
}

// Number is the payload of a native number box. Int is used by the integer kinds, Float by the
// floating point kinds.
type Number struct {
	Kind  NumberKind
	Int   int64
	Float float64
}

func IntNumber(kind NumberKind, v int64) Number {
	return Number{Kind: kind, Int: v}
}

func FloatNumber(kind NumberKind, v float64) Number {
	return Number{Kind: kind, Float: v}
}

func (n Number) String() string {
	if n.Kind.IsFloat() {
		return fmt.Sprintf("%v(%s)", n.Float, n.Kind)
	}
	return fmt.Sprintf("%d(%s)", n.Int, n.Kind)
}
