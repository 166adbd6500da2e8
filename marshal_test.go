package cfbridge_test

import (
	"github.com/openziti/cfbridge"
	"github.com/openziti/cfbridge/sim"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"runtime"
	"testing"
)

func nativeClass(t *testing.T, rt *sim.Runtime, obj *cfbridge.Object) cfbridge.Class {
	class, err := rt.ClassOf(obj.Ref())
	assert.NoError(t, err)
	return class
}

func numbers(n int) cfbridge.List {
	l := make(cfbridge.List, n)
	for i := range l {
		l[i] = cfbridge.Int64(i)
	}
	return l
}

func TestToDictionary(t *testing.T) {
	rt := sim.NewDefault()
	v, err := cfbridge.ValueOf(map[string]interface{}{"a": 1, "b": 2})
	assert.NoError(t, err)

	obj, err := cfbridge.ToDictionary(rt, v.(cfbridge.Map))
	assert.NoError(t, err)
	assert.Equal(t, cfbridge.ClassDictionary, obj.Class())
	assert.Equal(t, cfbridge.ClassMutableDictionary, nativeClass(t, rt, obj))

	count, err := rt.Count(obj.Ref())
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	for key, want := range map[string]int64{"a": 1, "b": 2} {
		k, err := rt.NewString(key)
		assert.NoError(t, err)
		value, found, err := rt.ValueFor(obj.Ref(), k)
		assert.NoError(t, err)
		assert.True(t, found, key)
		n, err := rt.NumberValue(value)
		assert.NoError(t, err)
		assert.Equal(t, want, n.Int, key)
		assert.NoError(t, rt.Release(k))
	}
	missing, err := rt.NewString("c")
	assert.NoError(t, err)
	_, found, err := rt.ValueFor(obj.Ref(), missing)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, rt.Release(missing))

	back, err := cfbridge.FromNative(obj)
	assert.NoError(t, err)
	assert.Equal(t, cfbridge.Map{
		{Key: cfbridge.String("a"), Value: cfbridge.Int64(1)},
		{Key: cfbridge.String("b"), Value: cfbridge.Int64(2)},
	}, back)
}

func TestToDictionaryEmpty(t *testing.T) {
	rt := sim.NewDefault()
	obj, err := cfbridge.ToDictionary(rt, cfbridge.Map{})
	assert.NoError(t, err)
	back, err := cfbridge.FromNative(obj)
	assert.NoError(t, err)
	assert.Equal(t, cfbridge.Map{}, back)
}

func TestToArrayStrategies(t *testing.T) {
	cases := []struct {
		size  int
		class cfbridge.Class
	}{
		{0, cfbridge.ClassArray},
		{1, cfbridge.ClassArray},
		{2, cfbridge.ClassArray},
		{cfbridge.MaxVariadicObjects, cfbridge.ClassArray},
		{cfbridge.MaxVariadicObjects + 1, cfbridge.ClassMutableArray},
		{250, cfbridge.ClassMutableArray},
	}
	for _, c := range cases {
		rt := sim.NewDefault()
		in := numbers(c.size)
		obj, err := cfbridge.ToArray(rt, in)
		assert.NoError(t, err)
		assert.Equal(t, cfbridge.ClassArray, obj.Class())
		assert.Equal(t, c.class, nativeClass(t, rt, obj), "size %d", c.size)

		back, err := cfbridge.FromNative(obj)
		assert.NoError(t, err)
		assert.Equal(t, in, back, "size %d", c.size)

		// the array and its elements, nothing else
		assert.Equal(t, c.size+1, rt.Stats().Live, "size %d", c.size)
		runtime.KeepAlive(obj)
	}
}

func TestToArrayReleasesOnFailure(t *testing.T) {
	for _, size := range []int{1, 3, 150} {
		rt := sim.NewDefault()
		in := numbers(size)
		in[size-1] = nil
		_, err := cfbridge.ToArray(rt, in)
		assert.True(t, errors.Is(err, cfbridge.ErrInvalidArgument), "size %d", size)
		assert.Equal(t, 0, rt.Stats().Live, "size %d", size)
	}
}

func TestToDictionaryReleasesOnFailure(t *testing.T) {
	rt := sim.NewDefault()
	_, err := cfbridge.ToDictionary(rt, cfbridge.Map{
		{Key: cfbridge.String("a"), Value: cfbridge.Int8(1)},
		{Key: cfbridge.String("b"), Value: nil},
	})
	assert.True(t, errors.Is(err, cfbridge.ErrInvalidArgument))
	assert.Equal(t, 0, rt.Stats().Live)
}

func TestToNativeNested(t *testing.T) {
	rt := sim.NewDefault()
	in := cfbridge.Map{
		{Key: cfbridge.String("name"), Value: cfbridge.String("bridge")},
		{Key: cfbridge.String("ok"), Value: cfbridge.Bool(true)},
		{Key: cfbridge.String("ratio"), Value: cfbridge.Float32(0.5)},
		{Key: cfbridge.String("raw"), Value: cfbridge.Bytes{0, 1, 2}},
		{Key: cfbridge.Int16(7), Value: cfbridge.List{cfbridge.Int8(-1), cfbridge.Float64(2.25), cfbridge.List{}}},
	}
	obj, err := cfbridge.ToNative(rt, in)
	assert.NoError(t, err)
	back, err := cfbridge.FromNative(obj)
	assert.NoError(t, err)
	assert.Equal(t, in, back)
}

func TestToNativeExistingObjects(t *testing.T) {
	rt := sim.NewDefault()
	s, err := cfbridge.NewString(rt, "shared")
	assert.NoError(t, err)
	b, err := cfbridge.Bridge(s, cfbridge.ClassString)
	assert.NoError(t, err)

	array, err := cfbridge.ToArray(rt, cfbridge.List{s, b})
	assert.NoError(t, err)
	// one for s, one per array slot
	assert.Equal(t, 3, retainCount(t, rt, s.Ref()))
	first, err := rt.ValueAt(array.Ref(), 0)
	assert.NoError(t, err)
	assert.Equal(t, s.Ref(), first)

	other := sim.NewDefault()
	_, err = cfbridge.ToArray(other, cfbridge.List{s})
	assert.True(t, errors.Is(err, cfbridge.ErrInvalidArgument))
	assert.Equal(t, 0, other.Stats().Live)
	runtime.KeepAlive(s)
	runtime.KeepAlive(array)
}

func TestNewStringHello(t *testing.T) {
	rt := sim.NewDefault()
	obj, err := cfbridge.NewString(rt, "hello")
	assert.NoError(t, err)
	assert.Equal(t, cfbridge.ClassString, obj.Class())
	s, err := cfbridge.StringValue(obj)
	assert.NoError(t, err)
	assert.Equal(t, "hello", s)

	_, err = cfbridge.StringValue(nil)
	assert.True(t, errors.Is(err, cfbridge.ErrInvalidArgument))
}

func TestNumbersKeepWidth(t *testing.T) {
	rt := sim.NewDefault()
	in := cfbridge.List{
		cfbridge.Int8(-8), cfbridge.Int16(-16), cfbridge.Int32(-32), cfbridge.Int64(-64),
		cfbridge.Float32(1.5), cfbridge.Float64(-2.5),
	}
	obj, err := cfbridge.ToNative(rt, in)
	assert.NoError(t, err)
	for i, kind := range []cfbridge.NumberKind{
		cfbridge.Int8Number, cfbridge.Int16Number, cfbridge.Int32Number, cfbridge.Int64Number,
		cfbridge.Float32Number, cfbridge.Float64Number,
	} {
		ref, err := rt.ValueAt(obj.Ref(), i)
		assert.NoError(t, err)
		n, err := rt.NumberValue(ref)
		assert.NoError(t, err)
		assert.Equal(t, kind, n.Kind)
	}
	runtime.KeepAlive(obj)
}

func TestFromNativeNil(t *testing.T) {
	_, err := cfbridge.FromNative(nil)
	assert.True(t, errors.Is(err, cfbridge.ErrInvalidArgument))
}
