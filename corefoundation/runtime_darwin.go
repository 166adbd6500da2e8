//go:build darwin && cgo

package corefoundation

/*
#cgo LDFLAGS: -framework CoreFoundation -lobjc
#include <stdlib.h>
#include <CoreFoundation/CoreFoundation.h>

extern void *objc_autoreleasePoolPush(void);
extern void objc_autoreleasePoolPop(void *pool);
extern void *objc_autorelease(void *obj);

static uintptr_t cfbridge_pool_push(void) {
	return (uintptr_t)objc_autoreleasePoolPush();
}

static void cfbridge_pool_pop(uintptr_t pool) {
	objc_autoreleasePoolPop((void *)pool);
}

static void cfbridge_autorelease(CFTypeRef obj) {
	objc_autorelease((void *)obj);
}

static CFBooleanRef cfbridge_bool(Boolean v) {
	return (CFBooleanRef)CFRetain(v ? kCFBooleanTrue : kCFBooleanFalse);
}

static CFArrayRef cfbridge_array_create(CFTypeRef *values, CFIndex count) {
	return CFArrayCreate(NULL, (const void **)values, count, &kCFTypeArrayCallBacks);
}

static CFMutableArrayRef cfbridge_mutable_array_create(CFIndex capacity) {
	return CFArrayCreateMutable(NULL, capacity, &kCFTypeArrayCallBacks);
}

static void cfbridge_array_append(CFMutableArrayRef array, CFTypeRef value) {
	CFArrayAppendValue(array, value);
}

static CFTypeRef cfbridge_array_get(CFArrayRef array, CFIndex i) {
	return CFArrayGetValueAtIndex(array, i);
}

static CFMutableDictionaryRef cfbridge_mutable_dictionary_create(CFIndex capacity) {
	return CFDictionaryCreateMutable(NULL, capacity, &kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
}

static void cfbridge_dictionary_set(CFMutableDictionaryRef dictionary, CFTypeRef key, CFTypeRef value) {
	CFDictionarySetValue(dictionary, key, value);
}

static CFTypeRef cfbridge_dictionary_get(CFDictionaryRef dictionary, CFTypeRef key, Boolean *found) {
	const void *value = NULL;
	*found = CFDictionaryGetValueIfPresent(dictionary, key, &value);
	return value;
}

static void cfbridge_dictionary_keys(CFDictionaryRef dictionary, CFTypeRef *keys) {
	CFDictionaryGetKeysAndValues(dictionary, (const void **)keys, NULL);
}

static char *cfbridge_string_utf8(CFStringRef s, CFIndex *used) {
	CFIndex length = CFStringGetLength(s);
	CFIndex max = CFStringGetMaximumSizeForEncoding(length, kCFStringEncodingUTF8);
	char *buf = malloc(max + 1);
	*used = 0;
	CFStringGetBytes(s, CFRangeMake(0, length), kCFStringEncodingUTF8, 0, false, (UInt8 *)buf, max, used);
	return buf;
}
*/
import "C"

import (
	"github.com/openziti/cfbridge"
	"github.com/pkg/errors"
	"unsafe"
)

var (
	ErrNullReference = errors.New("null reference")
	ErrCreateFailed  = errors.New("native constructor returned null")
	ErrWrongClass    = errors.New("operation not supported by class")
	ErrOutOfRange    = errors.New("index out of range")
)

func init() {
	cfbridge.RegisterRuntime("corefoundation", func(map[string]interface{}) (cfbridge.Runtime, error) {
		return New(), nil
	})
}

// Runtime implements cfbridge.Runtime with CoreFoundation. Mutable containers report their
// immutable class, CoreFoundation does not distinguish them at runtime.
type Runtime struct{}

var _ cfbridge.Runtime = (*Runtime)(nil)

func New() *Runtime {
	return &Runtime{}
}

func cf(ref cfbridge.Ref) C.CFTypeRef {
	return C.CFTypeRef(ref)
}

func created(ref C.CFTypeRef, what string) (cfbridge.Ref, error) {
	if ref == 0 {
		return cfbridge.NilRef, errors.Wrap(ErrCreateFailed, what)
	}
	return cfbridge.Ref(ref), nil
}

func bytesPtr(data []byte) *C.UInt8 {
	if len(data) == 0 {
		return nil
	}
	return (*C.UInt8)(unsafe.Pointer(&data[0]))
}

func (self *Runtime) Retain(ref cfbridge.Ref) error {
	if ref == cfbridge.NilRef {
		return errors.Wrap(ErrNullReference, "retain")
	}
	C.CFRetain(cf(ref))
	return nil
}

func (self *Runtime) Release(ref cfbridge.Ref) error {
	if ref == cfbridge.NilRef {
		return errors.Wrap(ErrNullReference, "release")
	}
	C.CFRelease(cf(ref))
	return nil
}

func (self *Runtime) RetainCount(ref cfbridge.Ref) (int, error) {
	if ref == cfbridge.NilRef {
		return 0, errors.Wrap(ErrNullReference, "retain count")
	}
	return int(C.CFGetRetainCount(cf(ref))), nil
}

func (self *Runtime) ClassOf(ref cfbridge.Ref) (cfbridge.Class, error) {
	if ref == cfbridge.NilRef {
		return cfbridge.ClassAny, errors.Wrap(ErrNullReference, "class of")
	}
	switch C.CFGetTypeID(cf(ref)) {
	case C.CFStringGetTypeID():
		return cfbridge.ClassString, nil
	case C.CFDataGetTypeID():
		return cfbridge.ClassData, nil
	case C.CFBooleanGetTypeID():
		return cfbridge.ClassBoolean, nil
	case C.CFNumberGetTypeID():
		return cfbridge.ClassNumber, nil
	case C.CFArrayGetTypeID():
		return cfbridge.ClassArray, nil
	case C.CFDictionaryGetTypeID():
		return cfbridge.ClassDictionary, nil
	default:
		return cfbridge.ClassAny, nil
	}
}

/*
 * pools
 */

// PushPool ignores parent: objc keeps one pool stack per thread, which LockedPoolStack pins.
func (self *Runtime) PushPool(cfbridge.PoolHandle) (cfbridge.PoolHandle, error) {
	return cfbridge.PoolHandle(C.cfbridge_pool_push()), nil
}

func (self *Runtime) PopPool(pool cfbridge.PoolHandle) error {
	if pool == 0 {
		return errors.Wrap(ErrNullReference, "pop pool")
	}
	C.cfbridge_pool_pop(C.uintptr_t(pool))
	return nil
}

// Autorelease always targets the innermost pool of the calling thread.
func (self *Runtime) Autorelease(_ cfbridge.PoolHandle, ref cfbridge.Ref) error {
	if ref == cfbridge.NilRef {
		return errors.Wrap(ErrNullReference, "autorelease")
	}
	C.cfbridge_autorelease(cf(ref))
	return nil
}

/*
 * constructors
 */

func (self *Runtime) NewBool(v bool) (cfbridge.Ref, error) {
	var b C.Boolean
	if v {
		b = 1
	}
	return created(C.CFTypeRef(C.cfbridge_bool(b)), "boolean")
}

func (self *Runtime) NewNumber(n cfbridge.Number) (cfbridge.Ref, error) {
	var ref C.CFNumberRef
	switch n.Kind {
	case cfbridge.Int8Number:
		v := C.SInt8(n.Int)
		ref = C.CFNumberCreate(0, C.CFNumberType(C.kCFNumberSInt8Type), unsafe.Pointer(&v))
	case cfbridge.Int16Number:
		v := C.SInt16(n.Int)
		ref = C.CFNumberCreate(0, C.CFNumberType(C.kCFNumberSInt16Type), unsafe.Pointer(&v))
	case cfbridge.Int32Number:
		v := C.SInt32(n.Int)
		ref = C.CFNumberCreate(0, C.CFNumberType(C.kCFNumberSInt32Type), unsafe.Pointer(&v))
	case cfbridge.Int64Number:
		v := C.SInt64(n.Int)
		ref = C.CFNumberCreate(0, C.CFNumberType(C.kCFNumberSInt64Type), unsafe.Pointer(&v))
	case cfbridge.Float32Number:
		v := C.Float32(n.Float)
		ref = C.CFNumberCreate(0, C.CFNumberType(C.kCFNumberFloat32Type), unsafe.Pointer(&v))
	case cfbridge.Float64Number:
		v := C.Float64(n.Float)
		ref = C.CFNumberCreate(0, C.CFNumberType(C.kCFNumberFloat64Type), unsafe.Pointer(&v))
	default:
		return cfbridge.NilRef, errors.Errorf("unknown number kind [%s]", n.Kind)
	}
	return created(C.CFTypeRef(ref), "number")
}

func (self *Runtime) NewString(s string) (cfbridge.Ref, error) {
	data := []byte(s)
	ref := C.CFStringCreateWithBytes(0, bytesPtr(data), C.CFIndex(len(data)), C.CFStringEncoding(C.kCFStringEncodingUTF8), C.Boolean(0))
	return created(C.CFTypeRef(ref), "string")
}

func (self *Runtime) NewData(data []byte) (cfbridge.Ref, error) {
	ref := C.CFDataCreate(0, bytesPtr(data), C.CFIndex(len(data)))
	return created(C.CFTypeRef(ref), "data")
}

func (self *Runtime) NewArray(objects ...cfbridge.Ref) (cfbridge.Ref, error) {
	values := make([]C.CFTypeRef, len(objects))
	for i, ref := range objects {
		if ref == cfbridge.NilRef {
			return cfbridge.NilRef, errors.Wrapf(ErrNullReference, "array element [%d]", i)
		}
		values[i] = cf(ref)
	}
	var ptr *C.CFTypeRef
	if len(values) > 0 {
		ptr = &values[0]
	}
	return created(C.CFTypeRef(C.cfbridge_array_create(ptr, C.CFIndex(len(values)))), "array")
}

func (self *Runtime) NewMutableArray(capacity int) (cfbridge.Ref, error) {
	if capacity < 0 {
		return cfbridge.NilRef, errors.Errorf("invalid capacity [%d]", capacity)
	}
	return created(C.CFTypeRef(C.cfbridge_mutable_array_create(C.CFIndex(capacity))), "mutable array")
}

func (self *Runtime) AppendValue(array, value cfbridge.Ref) error {
	if array == cfbridge.NilRef || value == cfbridge.NilRef {
		return errors.Wrap(ErrNullReference, "append value")
	}
	C.cfbridge_array_append(C.CFMutableArrayRef(array), cf(value))
	return nil
}

func (self *Runtime) NewMutableDictionary(capacity int) (cfbridge.Ref, error) {
	if capacity < 0 {
		return cfbridge.NilRef, errors.Errorf("invalid capacity [%d]", capacity)
	}
	return created(C.CFTypeRef(C.cfbridge_mutable_dictionary_create(C.CFIndex(capacity))), "mutable dictionary")
}

func (self *Runtime) SetValue(dictionary, key, value cfbridge.Ref) error {
	if dictionary == cfbridge.NilRef || key == cfbridge.NilRef || value == cfbridge.NilRef {
		return errors.Wrap(ErrNullReference, "set value")
	}
	C.cfbridge_dictionary_set(C.CFMutableDictionaryRef(dictionary), cf(key), cf(value))
	return nil
}

/*
 * accessors
 */

func (self *Runtime) expect(ref cfbridge.Ref, class cfbridge.Class) error {
	got, err := self.ClassOf(ref)
	if err != nil {
		return err
	}
	if !got.KindOf(class) {
		return errors.Wrapf(ErrWrongClass, "[%s] is [%s], not [%s]", ref, got, class)
	}
	return nil
}

func (self *Runtime) Count(container cfbridge.Ref) (int, error) {
	class, err := self.ClassOf(container)
	if err != nil {
		return 0, err
	}
	switch class {
	case cfbridge.ClassArray:
		return int(C.CFArrayGetCount(C.CFArrayRef(container))), nil
	case cfbridge.ClassDictionary:
		return int(C.CFDictionaryGetCount(C.CFDictionaryRef(container))), nil
	default:
		return 0, errors.Wrapf(ErrWrongClass, "count of [%s] of class [%s]", container, class)
	}
}

func (self *Runtime) ValueAt(array cfbridge.Ref, i int) (cfbridge.Ref, error) {
	count, err := self.Count(array)
	if err != nil {
		return cfbridge.NilRef, err
	}
	if err := self.expect(array, cfbridge.ClassArray); err != nil {
		return cfbridge.NilRef, err
	}
	if i < 0 || i >= count {
		return cfbridge.NilRef, errors.Wrapf(ErrOutOfRange, "[%d] of [%d]", i, count)
	}
	return cfbridge.Ref(C.cfbridge_array_get(C.CFArrayRef(array), C.CFIndex(i))), nil
}

func (self *Runtime) ValueFor(dictionary, key cfbridge.Ref) (cfbridge.Ref, bool, error) {
	if err := self.expect(dictionary, cfbridge.ClassDictionary); err != nil {
		return cfbridge.NilRef, false, err
	}
	if key == cfbridge.NilRef {
		return cfbridge.NilRef, false, errors.Wrap(ErrNullReference, "value for")
	}
	var found C.Boolean
	value := C.cfbridge_dictionary_get(C.CFDictionaryRef(dictionary), cf(key), &found)
	return cfbridge.Ref(value), found != 0, nil
}

func (self *Runtime) Keys(dictionary cfbridge.Ref) ([]cfbridge.Ref, error) {
	count, err := self.Count(dictionary)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	keys := make([]C.CFTypeRef, count)
	C.cfbridge_dictionary_keys(C.CFDictionaryRef(dictionary), &keys[0])
	out := make([]cfbridge.Ref, count)
	for i, k := range keys {
		out[i] = cfbridge.Ref(k)
	}
	return out, nil
}

func (self *Runtime) BoolValue(ref cfbridge.Ref) (bool, error) {
	if err := self.expect(ref, cfbridge.ClassBoolean); err != nil {
		return false, err
	}
	return C.CFBooleanGetValue(C.CFBooleanRef(ref)) != 0, nil
}

func (self *Runtime) NumberValue(ref cfbridge.Ref) (cfbridge.Number, error) {
	if err := self.expect(ref, cfbridge.ClassNumber); err != nil {
		return cfbridge.Number{}, err
	}
	number := C.CFNumberRef(ref)
	var kind cfbridge.NumberKind
	switch C.CFNumberGetType(number) {
	case C.CFNumberType(C.kCFNumberSInt8Type), C.CFNumberType(C.kCFNumberCharType):
		kind = cfbridge.Int8Number
	case C.CFNumberType(C.kCFNumberSInt16Type), C.CFNumberType(C.kCFNumberShortType):
		kind = cfbridge.Int16Number
	case C.CFNumberType(C.kCFNumberSInt32Type), C.CFNumberType(C.kCFNumberIntType):
		kind = cfbridge.Int32Number
	case C.CFNumberType(C.kCFNumberFloat32Type), C.CFNumberType(C.kCFNumberFloatType):
		kind = cfbridge.Float32Number
	case C.CFNumberType(C.kCFNumberFloat64Type), C.CFNumberType(C.kCFNumberDoubleType), C.CFNumberType(C.kCFNumberCGFloatType):
		kind = cfbridge.Float64Number
	default:
		kind = cfbridge.Int64Number
	}
	if kind.IsFloat() {
		var v C.Float64
		C.CFNumberGetValue(number, C.CFNumberType(C.kCFNumberFloat64Type), unsafe.Pointer(&v))
		return cfbridge.FloatNumber(kind, float64(v)), nil
	}
	var v C.SInt64
	C.CFNumberGetValue(number, C.CFNumberType(C.kCFNumberSInt64Type), unsafe.Pointer(&v))
	return cfbridge.IntNumber(kind, int64(v)), nil
}

func (self *Runtime) StringValue(ref cfbridge.Ref) (string, error) {
	if err := self.expect(ref, cfbridge.ClassString); err != nil {
		return "", err
	}
	var used C.CFIndex
	buf := C.cfbridge_string_utf8(C.CFStringRef(ref), &used)
	defer C.free(unsafe.Pointer(buf))
	return C.GoStringN(buf, C.int(used)), nil
}

func (self *Runtime) DataLength(ref cfbridge.Ref) (int, error) {
	if err := self.expect(ref, cfbridge.ClassData); err != nil {
		return 0, err
	}
	return int(C.CFDataGetLength(C.CFDataRef(ref))), nil
}

func (self *Runtime) DataBytes(ref cfbridge.Ref, offset, length int) ([]byte, error) {
	total, err := self.DataLength(ref)
	if err != nil {
		return nil, err
	}
	if offset < 0 || length < 0 || offset > total || length > total-offset {
		return nil, errors.Wrapf(ErrOutOfRange, "range [%d:%d] of [%d]", offset, offset+length, total)
	}
	out := make([]byte, length)
	if length == 0 {
		return out, nil
	}
	C.CFDataGetBytes(C.CFDataRef(ref), C.CFRange{location: C.CFIndex(offset), length: C.CFIndex(length)}, bytesPtr(out))
	return out, nil
}
