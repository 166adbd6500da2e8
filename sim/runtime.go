// Package sim is an in-process native object runtime. Objects live on a reference-counted heap
// outside the garbage collector's view: they are deallocated when their count drops to zero,
// containers retain their elements, and autorelease pools release what they collected when
// popped. Any use of a deallocated reference fails with ErrDeallocated.
package sim

import (
	"github.com/emirpasic/gods/trees/btree"
	"github.com/emirpasic/gods/utils"
	"github.com/openziti/cfbridge"
	"github.com/openziti/cfbridge/cf"
	"github.com/pkg/errors"
	"sync"
)

var (
	ErrDeallocated      = errors.New("unknown or deallocated reference")
	ErrTooManyArguments = errors.New("too many arguments for variadic constructor")
	ErrImmutable        = errors.New("object is immutable")
	ErrWrongClass       = errors.New("operation not supported by class")
	ErrOutOfRange       = errors.New("index out of range")
	ErrUnknownPool      = errors.New("unknown autorelease pool")
	ErrInvalidCapacity  = errors.New("invalid capacity")
	ErrNotInnermost     = errors.New("pool has an open inner pool")
)

func init() {
	cfbridge.RegisterRuntime("sim", func(config map[string]interface{}) (cfbridge.Runtime, error) {
		cfg := DefaultConfig()
		if err := cf.Load(config, cfg); err != nil {
			return nil, errors.Wrap(err, "unable to load sim config")
		}
		return New(cfg)
	})
}

type Config struct {
	MaxArguments int `cf:"max_arguments"`
	HeapOrder    int `cf:"heap_order"`
}

func DefaultConfig() *Config {
	return &Config{
		MaxArguments: cfbridge.MaxVariadicObjects,
		HeapOrder:    32,
	}
}

// Runtime implements cfbridge.Runtime. It is safe for concurrent use. Pools form one chain per
// outermost pool, standing in for the per-thread pool stacks of the native runtime.
type Runtime struct {
	lock     sync.Mutex
	cfg      *Config
	heap     *btree.Tree
	nextRef  uint64
	pools    map[cfbridge.PoolHandle]*pool
	nextPool uint64
	allocs   int64
	deallocs int64
}

type pool struct {
	handle cfbridge.PoolHandle
	parent *pool
	inner  *pool
	refs   []cfbridge.Ref
}

func New(cfg *Config) (*Runtime, error) {
	if cfg.MaxArguments < 1 {
		return nil, errors.Errorf("invalid max_arguments [%d]", cfg.MaxArguments)
	}
	if cfg.HeapOrder < 3 {
		return nil, errors.Errorf("invalid heap_order [%d]", cfg.HeapOrder)
	}
	return &Runtime{
		cfg:      cfg,
		heap:     btree.NewWith(cfg.HeapOrder, utils.UInt64Comparator),
		nextRef:  0x1000,
		pools:    make(map[cfbridge.PoolHandle]*pool),
		nextPool: 1,
	}, nil
}

func NewDefault() *Runtime {
	rt, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return rt
}

func (self *Runtime) lookup(ref cfbridge.Ref) (*object, error) {
	v, found := self.heap.Get(uint64(ref))
	if !found {
		return nil, errors.Wrapf(ErrDeallocated, "[%s]", ref)
	}
	return v.(*object), nil
}

func (self *Runtime) allocate(class cfbridge.Class, value interface{}) cfbridge.Ref {
	ref := cfbridge.Ref(self.nextRef)
	self.nextRef += 0x10
	self.heap.Put(uint64(ref), &object{ref: ref, class: class, count: 1, value: value})
	self.allocs++
	return ref
}

func (self *Runtime) retainLocked(ref cfbridge.Ref) error {
	obj, err := self.lookup(ref)
	if err != nil {
		return err
	}
	obj.count++
	return nil
}

func (self *Runtime) releaseLocked(ref cfbridge.Ref) error {
	obj, err := self.lookup(ref)
	if err != nil {
		return err
	}
	obj.count--
	if obj.count > 0 {
		return nil
	}
	self.heap.Remove(uint64(ref))
	self.deallocs++
	var firstErr error
	for _, child := range obj.children() {
		if err := self.releaseLocked(child); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "release child of [%s]", ref)
		}
	}
	return firstErr
}

func (self *Runtime) Retain(ref cfbridge.Ref) error {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.retainLocked(ref)
}

func (self *Runtime) Release(ref cfbridge.Ref) error {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.releaseLocked(ref)
}

func (self *Runtime) RetainCount(ref cfbridge.Ref) (int, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	obj, err := self.lookup(ref)
	if err != nil {
		return 0, err
	}
	return obj.count, nil
}

func (self *Runtime) ClassOf(ref cfbridge.Ref) (cfbridge.Class, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	obj, err := self.lookup(ref)
	if err != nil {
		return cfbridge.ClassAny, err
	}
	return obj.class, nil
}

/*
 * pools
 */

func (self *Runtime) findPool(handle cfbridge.PoolHandle) (*pool, error) {
	p, found := self.pools[handle]
	if !found {
		return nil, errors.Wrapf(ErrUnknownPool, "pool #%d", handle)
	}
	return p, nil
}

// PushPool opens a pool inside parent, which must be innermost in its chain. A zero parent
// starts a new chain.
func (self *Runtime) PushPool(parent cfbridge.PoolHandle) (cfbridge.PoolHandle, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	p := &pool{handle: cfbridge.PoolHandle(self.nextPool)}
	if parent != 0 {
		outer, err := self.findPool(parent)
		if err != nil {
			return 0, err
		}
		if outer.inner != nil {
			return 0, errors.Wrapf(ErrNotInnermost, "push into pool #%d", parent)
		}
		outer.inner = p
		p.parent = outer
	}
	self.nextPool++
	self.pools[p.handle] = p
	return p.handle, nil
}

// PopPool drains the given pool and every pool nested in it, innermost first.
func (self *Runtime) PopPool(handle cfbridge.PoolHandle) error {
	self.lock.Lock()
	defer self.lock.Unlock()
	p, err := self.findPool(handle)
	if err != nil {
		return err
	}
	innermost := p
	for innermost.inner != nil {
		innermost = innermost.inner
	}
	var firstErr error
	for q := innermost; ; q = q.parent {
		for _, ref := range q.refs {
			if err := self.releaseLocked(ref); err != nil && firstErr == nil {
				firstErr = errors.Wrapf(err, "drain pool #%d", q.handle)
			}
		}
		delete(self.pools, q.handle)
		if q == p {
			break
		}
	}
	if p.parent != nil {
		p.parent.inner = nil
	}
	return firstErr
}

// Autorelease adds ref to the given pool, which must be innermost in its chain.
func (self *Runtime) Autorelease(handle cfbridge.PoolHandle, ref cfbridge.Ref) error {
	self.lock.Lock()
	defer self.lock.Unlock()
	if _, err := self.lookup(ref); err != nil {
		return err
	}
	if handle == 0 {
		return errors.Wrapf(cfbridge.ErrNoPool, "autorelease [%s]", ref)
	}
	p, err := self.findPool(handle)
	if err != nil {
		return err
	}
	if p.inner != nil {
		return errors.Wrapf(ErrNotInnermost, "autorelease [%s] into pool #%d", ref, handle)
	}
	p.refs = append(p.refs, ref)
	return nil
}

// PoolDepth returns the number of pools currently open across all chains.
func (self *Runtime) PoolDepth() int {
	self.lock.Lock()
	defer self.lock.Unlock()
	return len(self.pools)
}

/*
 * inspection
 */

type Info struct {
	Ref   cfbridge.Ref
	Class cfbridge.Class
	Count int
}

// Live lists the objects still allocated, ordered by reference.
func (self *Runtime) Live() []Info {
	self.lock.Lock()
	defer self.lock.Unlock()
	var out []Info
	for _, v := range self.heap.Values() {
		obj := v.(*object)
		out = append(out, Info{Ref: obj.ref, Class: obj.class, Count: obj.count})
	}
	return out
}

type Stats struct {
	Allocations   int64
	Deallocations int64
	Live          int
}

func (self *Runtime) Stats() Stats {
	self.lock.Lock()
	defer self.lock.Unlock()
	return Stats{Allocations: self.allocs, Deallocations: self.deallocs, Live: self.heap.Size()}
}
