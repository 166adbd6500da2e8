package sim

import (
	"github.com/openziti/cfbridge"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestRetainRelease(t *testing.T) {
	rt := NewDefault()
	ref, err := rt.NewString("hello")
	assert.NoError(t, err)

	assert.NoError(t, rt.Retain(ref))
	count, err := rt.RetainCount(ref)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.NoError(t, rt.Release(ref))
	assert.NoError(t, rt.Release(ref))
	_, err = rt.RetainCount(ref)
	assert.True(t, errors.Is(err, ErrDeallocated))
	assert.Equal(t, Stats{Allocations: 1, Deallocations: 1, Live: 0}, rt.Stats())
}

func TestContainersRetainElements(t *testing.T) {
	rt := NewDefault()
	s, _ := rt.NewString("a")
	n, _ := rt.NewNumber(cfbridge.IntNumber(cfbridge.Int32Number, 7))

	array, err := rt.NewArray(s, n)
	assert.NoError(t, err)
	count, _ := rt.RetainCount(s)
	assert.Equal(t, 2, count)

	assert.NoError(t, rt.Release(s))
	assert.NoError(t, rt.Release(n))
	v, err := rt.ValueAt(array, 0)
	assert.NoError(t, err)
	str, err := rt.StringValue(v)
	assert.NoError(t, err)
	assert.Equal(t, "a", str)

	assert.NoError(t, rt.Release(array))
	assert.Equal(t, 0, len(rt.Live()))
}

func TestNewArrayArgumentLimit(t *testing.T) {
	rt, err := New(&Config{MaxArguments: 2, HeapOrder: 3})
	assert.NoError(t, err)
	a, _ := rt.NewBool(true)
	_, err = rt.NewArray(a, a, a)
	assert.True(t, errors.Is(err, ErrTooManyArguments))

	array, err := rt.NewArray(a, a)
	assert.NoError(t, err)
	count, _ := rt.RetainCount(a)
	assert.Equal(t, 3, count)
	assert.NoError(t, rt.Release(array))
	count, _ = rt.RetainCount(a)
	assert.Equal(t, 1, count)
}

func TestMutableArray(t *testing.T) {
	rt := NewDefault()
	array, err := rt.NewMutableArray(2)
	assert.NoError(t, err)
	class, _ := rt.ClassOf(array)
	assert.Equal(t, cfbridge.ClassMutableArray, class)

	for i := 0; i < 3; i++ {
		n, _ := rt.NewNumber(cfbridge.IntNumber(cfbridge.Int64Number, int64(i)))
		assert.NoError(t, rt.AppendValue(array, n))
		assert.NoError(t, rt.Release(n))
	}
	count, err := rt.Count(array)
	assert.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = rt.ValueAt(array, 3)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	immutable, _ := rt.NewArray()
	n, _ := rt.NewBool(false)
	assert.True(t, errors.Is(rt.AppendValue(immutable, n), ErrImmutable))
}

func TestDictionaryKeysByValue(t *testing.T) {
	rt := NewDefault()
	dict, err := rt.NewMutableDictionary(2)
	assert.NoError(t, err)

	k1, _ := rt.NewString("a")
	k2, _ := rt.NewString("a")
	v1, _ := rt.NewNumber(cfbridge.IntNumber(cfbridge.Int64Number, 1))
	v2, _ := rt.NewNumber(cfbridge.IntNumber(cfbridge.Int64Number, 2))

	assert.NoError(t, rt.SetValue(dict, k1, v1))
	assert.NoError(t, rt.SetValue(dict, k2, v2))
	count, _ := rt.Count(dict)
	assert.Equal(t, 1, count)

	v, found, err := rt.ValueFor(dict, k2)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, v2, v)

	// the replaced value is released by the dictionary
	rc, _ := rt.RetainCount(v1)
	assert.Equal(t, 1, rc)

	keys, err := rt.Keys(dict)
	assert.NoError(t, err)
	assert.Equal(t, []cfbridge.Ref{k1}, keys)

	missing, _ := rt.NewString("b")
	_, found, err = rt.ValueFor(dict, missing)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestNumberKeysCompareNumerically(t *testing.T) {
	rt := NewDefault()
	dict, _ := rt.NewMutableDictionary(0)
	i, _ := rt.NewNumber(cfbridge.IntNumber(cfbridge.Int8Number, 3))
	f, _ := rt.NewNumber(cfbridge.FloatNumber(cfbridge.Float64Number, 3.0))
	v, _ := rt.NewBool(true)
	assert.NoError(t, rt.SetValue(dict, i, v))
	_, found, err := rt.ValueFor(dict, f)
	assert.NoError(t, err)
	assert.True(t, found)
}

func TestNumberTruncation(t *testing.T) {
	rt := NewDefault()
	ref, err := rt.NewNumber(cfbridge.IntNumber(cfbridge.Int8Number, 300))
	assert.NoError(t, err)
	n, err := rt.NumberValue(ref)
	assert.NoError(t, err)
	assert.Equal(t, int64(44), n.Int)

	b, _ := rt.NewBool(true)
	n, err = rt.NumberValue(b)
	assert.NoError(t, err)
	assert.Equal(t, cfbridge.IntNumber(cfbridge.Int8Number, 1), n)
}

func TestDataBytes(t *testing.T) {
	rt := NewDefault()
	in := []byte{1, 2, 3, 4}
	ref, err := rt.NewData(in)
	assert.NoError(t, err)
	in[0] = 9

	out, err := rt.DataBytes(ref, 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, out)

	all, err := rt.DataBytes(ref, 0, 4)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, all)

	_, err = rt.DataBytes(ref, 3, 2)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	s, _ := rt.NewString("x")
	_, err = rt.DataLength(s)
	assert.True(t, errors.Is(err, ErrWrongClass))
}

func TestPoolsDrainInnermostFirst(t *testing.T) {
	rt := NewDefault()
	s, _ := rt.NewString("pooled")
	assert.True(t, errors.Is(rt.Autorelease(0, 0x1), ErrDeallocated))
	assert.True(t, errors.Is(rt.Autorelease(0, s), cfbridge.ErrNoPool))

	outer, err := rt.PushPool(0)
	assert.NoError(t, err)
	inner, err := rt.PushPool(outer)
	assert.NoError(t, err)
	assert.Equal(t, 2, rt.PoolDepth())

	_, err = rt.PushPool(outer)
	assert.True(t, errors.Is(err, ErrNotInnermost))
	assert.True(t, errors.Is(rt.Autorelease(outer, s), ErrNotInnermost))

	assert.NoError(t, rt.Retain(s))
	assert.NoError(t, rt.Autorelease(inner, s))
	assert.NoError(t, rt.Autorelease(inner, s))

	// popping the outer pool drains the inner one too
	assert.NoError(t, rt.PopPool(outer))
	assert.Equal(t, 0, rt.PoolDepth())
	_, err = rt.RetainCount(s)
	assert.True(t, errors.Is(err, ErrDeallocated))

	assert.True(t, errors.Is(rt.PopPool(inner), ErrUnknownPool))
	live, _ := rt.NewString("live")
	assert.True(t, errors.Is(rt.Autorelease(inner, live), ErrUnknownPool))
}

func TestPoolChainsAreIndependent(t *testing.T) {
	rt := NewDefault()
	a, err := rt.PushPool(0)
	assert.NoError(t, err)
	b, err := rt.PushPool(0)
	assert.NoError(t, err)

	s, _ := rt.NewString("in a")
	assert.NoError(t, rt.Autorelease(a, s))

	assert.NoError(t, rt.PopPool(b))
	count, err := rt.RetainCount(s)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.NoError(t, rt.PopPool(a))
	assert.Equal(t, 0, rt.Stats().Live)
}

func TestPopInnerKeepsOuter(t *testing.T) {
	rt := NewDefault()
	outer, _ := rt.PushPool(0)
	inner, _ := rt.PushPool(outer)
	assert.NoError(t, rt.PopPool(inner))
	assert.Equal(t, 1, rt.PoolDepth())

	again, err := rt.PushPool(outer)
	assert.NoError(t, err)
	assert.NoError(t, rt.PopPool(outer))
	assert.True(t, errors.Is(rt.PopPool(again), ErrUnknownPool))
}

func TestRegisteredFactory(t *testing.T) {
	rt, err := cfbridge.NewRuntime("sim", map[string]interface{}{"max_arguments": 4})
	assert.NoError(t, err)
	assert.Equal(t, 4, rt.(*Runtime).cfg.MaxArguments)

	_, err = cfbridge.NewRuntime("sim", map[string]interface{}{"max_arguments": "many"})
	assert.Error(t, err)

	_, err = cfbridge.NewRuntime("sim", map[string]interface{}{"max_arguments": 0})
	assert.Error(t, err)
}
