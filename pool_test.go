package cfbridge_test

import (
	"github.com/openziti/cfbridge"
	"github.com/openziti/cfbridge/sim"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestAutoreleasepoolDrains(t *testing.T) {
	rt := sim.NewDefault()
	stack := cfbridge.NewPoolStack(rt)

	var ref cfbridge.Ref
	err := cfbridge.Autoreleasepool(stack, func() error {
		created, err := rt.NewString("pooled")
		if err != nil {
			return err
		}
		b, err := stack.Autorelease(cfbridge.Adopt(rt, created, cfbridge.ClassString))
		if err != nil {
			return err
		}
		ref = b.Ref()
		pool, found := stack.Innermost()
		assert.True(t, found)
		assert.Equal(t, 1, pool.Pending())
		assert.Equal(t, 1, retainCount(t, rt, ref))
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 0, stack.Depth())
	_, err = rt.RetainCount(ref)
	assert.True(t, errors.Is(err, sim.ErrDeallocated))
}

func TestPoolDoubleRelease(t *testing.T) {
	rt := sim.NewDefault()
	stack := cfbridge.NewPoolStack(rt)
	pool, err := stack.Open()
	assert.NoError(t, err)
	assert.False(t, pool.Released())

	assert.NoError(t, pool.Release())
	assert.True(t, pool.Released())
	err = pool.Close()
	assert.True(t, errors.Is(err, cfbridge.ErrPoolReleased))
	assert.Equal(t, "pool was already released", errors.Cause(err).Error())
}

func TestPoolReleaseOrder(t *testing.T) {
	rt := sim.NewDefault()
	stack := cfbridge.NewPoolStack(rt)
	outer, err := stack.Open()
	assert.NoError(t, err)
	inner, err := stack.Open()
	assert.NoError(t, err)
	assert.Equal(t, 1, outer.Depth())
	assert.Equal(t, 2, inner.Depth())

	assert.True(t, errors.Is(outer.Release(), cfbridge.ErrPoolOrder))
	assert.False(t, outer.Released())
	assert.Equal(t, 2, rt.PoolDepth())

	assert.NoError(t, inner.Release())
	assert.NoError(t, outer.Release())
	assert.Equal(t, 0, rt.PoolDepth())
}

func TestAutoreleaseWithoutPool(t *testing.T) {
	rt := sim.NewDefault()
	stack := cfbridge.NewPoolStack(rt)
	created, err := rt.NewBool(true)
	assert.NoError(t, err)
	o := cfbridge.Adopt(rt, created, cfbridge.ClassBoolean)

	_, err = stack.Autorelease(o)
	assert.True(t, errors.Is(err, cfbridge.ErrNoPool))
	assert.False(t, o.Spent())
	assert.NoError(t, o.Release())
}

func TestAutoreleaseSpent(t *testing.T) {
	rt := sim.NewDefault()
	stack := cfbridge.NewPoolStack(rt)
	created, err := rt.NewBool(true)
	assert.NoError(t, err)
	o := cfbridge.Adopt(rt, created, cfbridge.ClassBoolean)
	assert.NoError(t, o.Release())

	err = cfbridge.Autoreleasepool(stack, func() error {
		_, err := stack.Autorelease(o)
		return err
	})
	assert.True(t, errors.Is(err, cfbridge.ErrAlreadyReleased))
}

func TestAutoreleasepoolValueReleasesOnError(t *testing.T) {
	rt := sim.NewDefault()
	stack, unlock := cfbridge.LockedPoolStack(rt)
	defer unlock()

	failure := errors.New("failed")
	_, err := cfbridge.AutoreleasepoolValue(stack, func() (int, error) {
		return 0, failure
	})
	assert.Equal(t, failure, err)
	assert.Equal(t, 0, stack.Depth())
	assert.Equal(t, 0, rt.PoolDepth())

	v, err := cfbridge.AutoreleasepoolValue(stack, func() (string, error) {
		obj, err := cfbridge.NewString(rt, "inside")
		if err != nil {
			return "", err
		}
		o, err := cfbridge.BridgeRetained(obj, cfbridge.ClassString)
		if err != nil {
			return "", err
		}
		b, err := stack.Autorelease(o)
		if err != nil {
			return "", err
		}
		return rt.StringValue(b.Ref())
	})
	assert.NoError(t, err)
	assert.Equal(t, "inside", v)
}

func TestNestedAutoreleasepools(t *testing.T) {
	rt := sim.NewDefault()
	stack := cfbridge.NewPoolStack(rt)
	err := cfbridge.Autoreleasepool(stack, func() error {
		return cfbridge.Autoreleasepool(stack, func() error {
			assert.Equal(t, 2, stack.Depth())
			return nil
		})
	})
	assert.NoError(t, err)
	assert.Equal(t, 0, stack.Depth())
}

func TestAutoreleasepoolUnwindsPoolsLeftOpen(t *testing.T) {
	rt := sim.NewDefault()
	stack := cfbridge.NewPoolStack(rt)

	failure := errors.New("action failed")
	err := cfbridge.Autoreleasepool(stack, func() error {
		created, err := rt.NewString("leaked?")
		if err != nil {
			return err
		}
		if _, err := stack.Autorelease(cfbridge.Adopt(rt, created, cfbridge.ClassString)); err != nil {
			return err
		}
		if _, err := stack.Open(); err != nil {
			return err
		}
		return failure
	})
	assert.True(t, errors.Is(err, cfbridge.ErrPoolOrder))
	assert.Contains(t, err.Error(), "action failed")
	assert.Equal(t, 0, stack.Depth())
	assert.Equal(t, 0, rt.PoolDepth())
	assert.Equal(t, 0, rt.Stats().Live)

	err = cfbridge.Autoreleasepool(stack, func() error {
		_, err := stack.Open()
		return err
	})
	assert.True(t, errors.Is(err, cfbridge.ErrPoolOrder))
	assert.Equal(t, 0, stack.Depth())
	assert.Equal(t, 0, rt.PoolDepth())

	v, err := cfbridge.AutoreleasepoolValue(stack, func() (int, error) {
		if _, err := stack.Open(); err != nil {
			return 0, err
		}
		_, err := stack.Open()
		return 7, err
	})
	assert.Equal(t, 7, v)
	assert.True(t, errors.Is(err, cfbridge.ErrPoolOrder))
	assert.Contains(t, err.Error(), "[2] pools left open")
	assert.Equal(t, 0, stack.Depth())
	assert.Equal(t, 0, rt.PoolDepth())
}

func TestPoolStacksShareRuntime(t *testing.T) {
	rt := sim.NewDefault()
	first := cfbridge.NewPoolStack(rt)
	second := cfbridge.NewPoolStack(rt)

	a, err := first.Open()
	assert.NoError(t, err)
	b, err := second.Open()
	assert.NoError(t, err)

	created, err := rt.NewString("first")
	assert.NoError(t, err)
	borrowed, err := first.Autorelease(cfbridge.Adopt(rt, created, cfbridge.ClassString))
	assert.NoError(t, err)

	assert.NoError(t, b.Release())
	assert.Equal(t, 1, retainCount(t, rt, borrowed.Ref()))

	// a pool opened on the second stack nests under its own chain only
	inner, err := second.Open()
	assert.NoError(t, err)
	assert.Equal(t, 1, inner.Depth())
	assert.NoError(t, inner.Release())

	assert.NoError(t, a.Release())
	_, err = rt.RetainCount(borrowed.Ref())
	assert.True(t, errors.Is(err, sim.ErrDeallocated))
	assert.Equal(t, 0, rt.PoolDepth())
}

func TestFailedAutoreleaseKeepsObligation(t *testing.T) {
	rt := sim.NewDefault()
	stack := cfbridge.NewPoolStack(rt)
	bogus := cfbridge.Adopt(rt, 0x1, cfbridge.ClassString)

	err := cfbridge.Autoreleasepool(stack, func() error {
		_, err := stack.Autorelease(bogus)
		return err
	})
	assert.True(t, errors.Is(err, sim.ErrDeallocated))
	assert.False(t, bogus.Spent())
}
