package cfbridge

import (
	"github.com/pkg/errors"
	"runtime"
)

// BytesData copies data into a native immutable data object.
func BytesData(rt Runtime, data []byte) (*Object, error) {
	return ToNative(rt, Bytes(data))
}

// StringData encodes s with enc into a native data object.
func StringData(rt Runtime, s string, enc Encoding) (*Object, error) {
	data, err := enc.Encode(s)
	if err != nil {
		return nil, err
	}
	return BytesData(rt, data)
}

// DataBytes copies the full content of a native data object.
func DataBytes(obj *Object) ([]byte, error) {
	if obj == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "read nil object")
	}
	defer runtime.KeepAlive(obj)
	if _, err := checkClass(obj.rt, obj.ref, ClassData); err != nil {
		return nil, err
	}
	length, err := obj.rt.DataLength(obj.ref)
	if err != nil {
		return nil, errors.Wrapf(err, "length of [%s]", obj.ref)
	}
	return readData(obj, 0, length)
}

// DataBytesRange copies length bytes starting at offset. Negative arguments are rejected before
// the native object is touched.
func DataBytesRange(obj *Object, offset, length int) ([]byte, error) {
	if offset < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "negative offset [%d]", offset)
	}
	if length < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "negative length [%d]", length)
	}
	if obj == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "read nil object")
	}
	defer runtime.KeepAlive(obj)
	if _, err := checkClass(obj.rt, obj.ref, ClassData); err != nil {
		return nil, err
	}
	total, err := obj.rt.DataLength(obj.ref)
	if err != nil {
		return nil, errors.Wrapf(err, "length of [%s]", obj.ref)
	}
	if offset > total || length > total-offset {
		return nil, errors.Wrapf(ErrInvalidArgument, "range [%d:%d] exceeds length [%d]", offset, offset+length, total)
	}
	return readData(obj, offset, length)
}

func readData(obj *Object, offset, length int) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	data, err := obj.rt.DataBytes(obj.ref, offset, length)
	if err != nil {
		return nil, errors.Wrapf(err, "bytes [%d:%d] of [%s]", offset, offset+length, obj.ref)
	}
	return data, nil
}

// DataString decodes the content of a native data object with enc.
func DataString(obj *Object, enc Encoding) (string, error) {
	data, err := DataBytes(obj)
	if err != nil {
		return "", err
	}
	return enc.Decode(data)
}

// StringValue copies a native string into Go.
func StringValue(obj *Object) (string, error) {
	if obj == nil {
		return "", errors.Wrap(ErrInvalidArgument, "read nil object")
	}
	defer runtime.KeepAlive(obj)
	if _, err := checkClass(obj.rt, obj.ref, ClassString); err != nil {
		return "", err
	}
	s, err := obj.rt.StringValue(obj.ref)
	if err != nil {
		return "", errors.Wrapf(err, "string value of [%s]", obj.ref)
	}
	return s, nil
}
