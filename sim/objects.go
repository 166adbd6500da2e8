package sim

import (
	"encoding/hex"
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/openziti/cfbridge"
	"github.com/pkg/errors"
	"math"
	"strconv"
)

type object struct {
	ref   cfbridge.Ref
	class cfbridge.Class
	count int
	value interface{}
}

type dictionaryEntry struct {
	key   cfbridge.Ref
	value cfbridge.Ref
}

func (self *object) children() []cfbridge.Ref {
	switch v := self.value.(type) {
	case []cfbridge.Ref:
		return v
	case *linkedhashmap.Map:
		var refs []cfbridge.Ref
		for _, e := range v.Values() {
			entry := e.(*dictionaryEntry)
			refs = append(refs, entry.key, entry.value)
		}
		return refs
	default:
		return nil
	}
}

// hashKey identifies objects that compare equal as dictionary keys. Strings, data, numbers and
// booleans compare by value, everything else by identity.
func (self *object) hashKey() string {
	switch v := self.value.(type) {
	case string:
		return "s:" + v
	case []byte:
		return "d:" + hex.EncodeToString(v)
	case bool:
		return "b:" + strconv.FormatBool(v)
	case cfbridge.Number:
		if !v.Kind.IsFloat() {
			return "n:" + strconv.FormatInt(v.Int, 10)
		}
		if v.Float == math.Trunc(v.Float) && math.Abs(v.Float) < 1<<63 {
			return "n:" + strconv.FormatInt(int64(v.Float), 10)
		}
		return "n:" + strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return "r:" + self.ref.String()
	}
}

func (self *object) expect(class cfbridge.Class) error {
	if !self.class.KindOf(class) {
		return errors.Wrapf(ErrWrongClass, "[%s] is [%s], not [%s]", self.ref, self.class, class)
	}
	return nil
}

/*
 * constructors
 */

func (self *Runtime) NewBool(v bool) (cfbridge.Ref, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.allocate(cfbridge.ClassBoolean, v), nil
}

func (self *Runtime) NewNumber(n cfbridge.Number) (cfbridge.Ref, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	switch n.Kind {
	case cfbridge.Int8Number:
		n.Int = int64(int8(n.Int))
	case cfbridge.Int16Number:
		n.Int = int64(int16(n.Int))
	case cfbridge.Int32Number:
		n.Int = int64(int32(n.Int))
	case cfbridge.Float32Number:
		n.Float = float64(float32(n.Float))
	case cfbridge.Int64Number, cfbridge.Float64Number:
	default:
		return cfbridge.NilRef, errors.Errorf("unknown number kind [%s]", n.Kind)
	}
	return self.allocate(cfbridge.ClassNumber, n), nil
}

func (self *Runtime) NewString(s string) (cfbridge.Ref, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.allocate(cfbridge.ClassString, s), nil
}

func (self *Runtime) NewData(data []byte) (cfbridge.Ref, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	return self.allocate(cfbridge.ClassData, copied), nil
}

// NewArray fails with ErrTooManyArguments above Config.MaxArguments objects.
func (self *Runtime) NewArray(objects ...cfbridge.Ref) (cfbridge.Ref, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	if len(objects) > self.cfg.MaxArguments {
		return cfbridge.NilRef, errors.Wrapf(ErrTooManyArguments, "[%d > %d]", len(objects), self.cfg.MaxArguments)
	}
	for _, ref := range objects {
		if _, err := self.lookup(ref); err != nil {
			return cfbridge.NilRef, err
		}
	}
	elements := make([]cfbridge.Ref, len(objects))
	copy(elements, objects)
	for _, ref := range elements {
		_ = self.retainLocked(ref)
	}
	return self.allocate(cfbridge.ClassArray, elements), nil
}

func (self *Runtime) NewMutableArray(capacity int) (cfbridge.Ref, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	if capacity < 0 {
		return cfbridge.NilRef, errors.Wrapf(ErrInvalidCapacity, "[%d]", capacity)
	}
	return self.allocate(cfbridge.ClassMutableArray, make([]cfbridge.Ref, 0, capacity)), nil
}

func (self *Runtime) AppendValue(array, value cfbridge.Ref) error {
	self.lock.Lock()
	defer self.lock.Unlock()
	obj, err := self.lookup(array)
	if err != nil {
		return err
	}
	if obj.class != cfbridge.ClassMutableArray {
		return errors.Wrapf(ErrImmutable, "append to [%s] of class [%s]", array, obj.class)
	}
	if err := self.retainLocked(value); err != nil {
		return err
	}
	obj.value = append(obj.value.([]cfbridge.Ref), value)
	return nil
}

func (self *Runtime) NewMutableDictionary(capacity int) (cfbridge.Ref, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	if capacity < 0 {
		return cfbridge.NilRef, errors.Wrapf(ErrInvalidCapacity, "[%d]", capacity)
	}
	return self.allocate(cfbridge.ClassMutableDictionary, linkedhashmap.New()), nil
}

// SetValue retains key and value. Replacing an existing entry keeps its key and releases the old
// value.
func (self *Runtime) SetValue(dictionary, key, value cfbridge.Ref) error {
	self.lock.Lock()
	defer self.lock.Unlock()
	dict, err := self.lookup(dictionary)
	if err != nil {
		return err
	}
	if dict.class != cfbridge.ClassMutableDictionary {
		return errors.Wrapf(ErrImmutable, "set value in [%s] of class [%s]", dictionary, dict.class)
	}
	k, err := self.lookup(key)
	if err != nil {
		return err
	}
	if err := self.retainLocked(value); err != nil {
		return err
	}
	m := dict.value.(*linkedhashmap.Map)
	hk := k.hashKey()
	if existing, found := m.Get(hk); found {
		entry := existing.(*dictionaryEntry)
		old := entry.value
		entry.value = value
		return self.releaseLocked(old)
	}
	_ = self.retainLocked(key)
	m.Put(hk, &dictionaryEntry{key: key, value: value})
	return nil
}

/*
 * accessors
 */

func (self *Runtime) Count(container cfbridge.Ref) (int, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	obj, err := self.lookup(container)
	if err != nil {
		return 0, err
	}
	switch v := obj.value.(type) {
	case []cfbridge.Ref:
		return len(v), nil
	case *linkedhashmap.Map:
		return v.Size(), nil
	default:
		return 0, errors.Wrapf(ErrWrongClass, "count of [%s] of class [%s]", container, obj.class)
	}
}

func (self *Runtime) ValueAt(array cfbridge.Ref, i int) (cfbridge.Ref, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	obj, err := self.lookup(array)
	if err != nil {
		return cfbridge.NilRef, err
	}
	if err := obj.expect(cfbridge.ClassArray); err != nil {
		return cfbridge.NilRef, err
	}
	elements := obj.value.([]cfbridge.Ref)
	if i < 0 || i >= len(elements) {
		return cfbridge.NilRef, errors.Wrapf(ErrOutOfRange, "[%d] of [%d]", i, len(elements))
	}
	return elements[i], nil
}

func (self *Runtime) ValueFor(dictionary, key cfbridge.Ref) (cfbridge.Ref, bool, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	dict, err := self.lookup(dictionary)
	if err != nil {
		return cfbridge.NilRef, false, err
	}
	if err := dict.expect(cfbridge.ClassDictionary); err != nil {
		return cfbridge.NilRef, false, err
	}
	k, err := self.lookup(key)
	if err != nil {
		return cfbridge.NilRef, false, err
	}
	e, found := dict.value.(*linkedhashmap.Map).Get(k.hashKey())
	if !found {
		return cfbridge.NilRef, false, nil
	}
	return e.(*dictionaryEntry).value, true, nil
}

// Keys returns the keys of a dictionary in insertion order.
func (self *Runtime) Keys(dictionary cfbridge.Ref) ([]cfbridge.Ref, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	dict, err := self.lookup(dictionary)
	if err != nil {
		return nil, err
	}
	if err := dict.expect(cfbridge.ClassDictionary); err != nil {
		return nil, err
	}
	var keys []cfbridge.Ref
	for _, e := range dict.value.(*linkedhashmap.Map).Values() {
		keys = append(keys, e.(*dictionaryEntry).key)
	}
	return keys, nil
}

func (self *Runtime) BoolValue(ref cfbridge.Ref) (bool, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	obj, err := self.lookup(ref)
	if err != nil {
		return false, err
	}
	if err := obj.expect(cfbridge.ClassBoolean); err != nil {
		return false, err
	}
	return obj.value.(bool), nil
}

func (self *Runtime) NumberValue(ref cfbridge.Ref) (cfbridge.Number, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	obj, err := self.lookup(ref)
	if err != nil {
		return cfbridge.Number{}, err
	}
	switch v := obj.value.(type) {
	case cfbridge.Number:
		return v, nil
	case bool:
		if v {
			return cfbridge.IntNumber(cfbridge.Int8Number, 1), nil
		}
		return cfbridge.IntNumber(cfbridge.Int8Number, 0), nil
	default:
		return cfbridge.Number{}, errors.Wrapf(ErrWrongClass, "[%s] is [%s], not [%s]", ref, obj.class, cfbridge.ClassNumber)
	}
}

func (self *Runtime) StringValue(ref cfbridge.Ref) (string, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	obj, err := self.lookup(ref)
	if err != nil {
		return "", err
	}
	if err := obj.expect(cfbridge.ClassString); err != nil {
		return "", err
	}
	return obj.value.(string), nil
}

func (self *Runtime) DataLength(ref cfbridge.Ref) (int, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	obj, err := self.lookup(ref)
	if err != nil {
		return 0, err
	}
	if err := obj.expect(cfbridge.ClassData); err != nil {
		return 0, err
	}
	return len(obj.value.([]byte)), nil
}

func (self *Runtime) DataBytes(ref cfbridge.Ref, offset, length int) ([]byte, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	obj, err := self.lookup(ref)
	if err != nil {
		return nil, err
	}
	if err := obj.expect(cfbridge.ClassData); err != nil {
		return nil, err
	}
	data := obj.value.([]byte)
	if offset < 0 || length < 0 || offset > len(data) || length > len(data)-offset {
		return nil, errors.Wrapf(ErrOutOfRange, "range [%d:%d] of [%d]", offset, offset+length, len(data))
	}
	out := make([]byte, length)
	copy(out, data[offset:offset+length])
	return out, nil
}
