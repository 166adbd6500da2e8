package cfbridge

import (
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/pkg/errors"
	"runtime"
	"sync/atomic"
)

// Pool is a native autorelease pool. References handed to it are released together when the
// pool is released, which may happen only once.
type Pool struct {
	stack  *PoolStack
	handle atomic.Uintptr
	depth  int
	count  int
}

func (self *Pool) Depth() int { return self.depth }

// Pending returns the number of references handed to the pool so far.
func (self *Pool) Pending() int { return self.count }

func (self *Pool) Released() bool { return self.handle.Load() == 0 }

// Release drains the pool. It fails with ErrPoolReleased on a second call and with ErrPoolOrder
// when a pool opened after this one is still open.
func (self *Pool) Release() error {
	h := self.handle.Load()
	if h == 0 {
		return errors.WithStack(ErrPoolReleased)
	}
	if top, found := self.stack.pools.Peek(); !found || top.(*Pool) != self {
		return errors.Wrapf(ErrPoolOrder, "release pool at depth [%d] of [%d]", self.depth, self.stack.Depth())
	}
	if !self.handle.CompareAndSwap(h, 0) {
		return errors.WithStack(ErrPoolReleased)
	}
	self.stack.pools.Pop()
	if err := self.stack.rt.PopPool(PoolHandle(h)); err != nil {
		return errors.Wrapf(err, "pop pool at depth [%d]", self.depth)
	}
	return nil
}

func (self *Pool) Close() error {
	return self.Release()
}

// closeScope releases the pool after unwinding, innermost first, any pools still open inside
// it. Pools left open are reported as ErrPoolOrder once everything has been drained.
func (self *Pool) closeScope() error {
	if self.Released() {
		return errors.WithStack(ErrPoolReleased)
	}
	leftOpen := 0
	var firstErr error
	for {
		top, found := self.stack.pools.Peek()
		if !found || top.(*Pool) == self {
			break
		}
		if err := top.(*Pool).Release(); err != nil && firstErr == nil {
			firstErr = err
		}
		leftOpen++
	}
	if err := self.Release(); err != nil && firstErr == nil {
		firstErr = err
	}
	if leftOpen > 0 {
		if firstErr != nil {
			return errors.Wrapf(ErrPoolOrder, "[%d] pools left open inside pool at depth [%d] (%v)", leftOpen, self.depth, firstErr)
		}
		return errors.Wrapf(ErrPoolOrder, "[%d] pools left open inside pool at depth [%d]", leftOpen, self.depth)
	}
	return firstErr
}

func (self *Pool) autorelease(o *Owned) error {
	h := self.handle.Load()
	if h == 0 {
		return errors.WithStack(ErrPoolReleased)
	}
	if err := o.consume(); err != nil {
		return err
	}
	if err := self.stack.rt.Autorelease(PoolHandle(h), o.ref); err != nil {
		o.spent.Store(false)
		return errors.Wrapf(err, "autorelease [%s]", o.ref)
	}
	self.count++
	return nil
}

// PoolStack tracks the autorelease pools opened on one thread, innermost last. It is not safe
// for concurrent use; pools must be opened and released on the thread that owns the stack.
type PoolStack struct {
	rt    Runtime
	pools *arraystack.Stack
}

func NewPoolStack(rt Runtime) *PoolStack {
	return &PoolStack{rt: rt, pools: arraystack.New()}
}

// LockedPoolStack locks the calling goroutine to its OS thread and returns a stack bound to it,
// along with the function undoing the lock.
func LockedPoolStack(rt Runtime) (*PoolStack, func()) {
	runtime.LockOSThread()
	return NewPoolStack(rt), runtime.UnlockOSThread
}

func (self *PoolStack) Runtime() Runtime { return self.rt }

func (self *PoolStack) Depth() int { return self.pools.Size() }

// Open pushes a new innermost pool.
func (self *PoolStack) Open() (*Pool, error) {
	var parent PoolHandle
	if inner, found := self.Innermost(); found {
		parent = PoolHandle(inner.handle.Load())
	}
	h, err := self.rt.PushPool(parent)
	if err != nil {
		return nil, errors.Wrap(err, "push pool")
	}
	pool := &Pool{stack: self, depth: self.pools.Size() + 1}
	pool.handle.Store(uintptr(h))
	self.pools.Push(pool)
	return pool, nil
}

// Innermost returns the most recently opened pool still open.
func (self *PoolStack) Innermost() (*Pool, bool) {
	top, found := self.pools.Peek()
	if !found {
		return nil, false
	}
	return top.(*Pool), true
}

// Autorelease hands the obligation of o to the innermost pool and returns the reference, valid
// until that pool is released.
func (self *PoolStack) Autorelease(o *Owned) (Borrowed, error) {
	pool, found := self.Innermost()
	if !found {
		return Borrowed{}, errors.Wrapf(ErrNoPool, "autorelease [%s]", o.ref)
	}
	if err := pool.autorelease(o); err != nil {
		return Borrowed{}, err
	}
	return o.Borrow(), nil
}

// Autoreleasepool runs action inside a new pool, releasing the pool on every exit path. Pools
// the action opened and left open are unwound first and reported with ErrPoolOrder.
func Autoreleasepool(stack *PoolStack, action func() error) (err error) {
	pool, err := stack.Open()
	if err != nil {
		return err
	}
	defer func() {
		err = scopeError(err, pool.closeScope())
	}()
	return action()
}

func AutoreleasepoolValue[R any](stack *PoolStack, action func() (R, error)) (result R, err error) {
	pool, err := stack.Open()
	if err != nil {
		return result, err
	}
	defer func() {
		err = scopeError(err, pool.closeScope())
	}()
	return action()
}

// scopeError merges the action and close results. A nesting violation wins over an action
// failure, which is kept as context.
func scopeError(actionErr, closeErr error) error {
	switch {
	case closeErr == nil:
		return actionErr
	case actionErr == nil:
		return closeErr
	case errors.Is(closeErr, ErrPoolOrder):
		return errors.Wrapf(closeErr, "action failed (%v)", actionErr)
	default:
		return actionErr
	}
}
