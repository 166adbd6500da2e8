package cfbridge

import (
	"fmt"
	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
	"runtime"
	"sync/atomic"
)

// Object is a managed reference. It holds one ownership obligation on its native reference, which
// is released by the garbage collector once the Object becomes unreachable.
type Object struct {
	rt    Runtime
	ref   Ref
	class Class
}

type cleanupTarget struct {
	rt  Runtime
	ref Ref
}

// newObject adopts one obligation on ref. The caller must already hold it.
func newObject(rt Runtime, ref Ref, class Class) *Object {
	obj := &Object{rt: rt, ref: ref, class: class}
	runtime.AddCleanup(obj, releaseOnCleanup, cleanupTarget{rt, ref})
	return obj
}

func releaseOnCleanup(target cleanupTarget) {
	if err := target.rt.Release(target.ref); err != nil {
		pfxlog.Logger().Errorf("error releasing collected object [%s] (%v)", target.ref, err)
	}
}

func (self *Object) Ref() Ref         { return self.ref }
func (self *Object) Class() Class     { return self.class }
func (self *Object) Runtime() Runtime { return self.rt }

func (self *Object) String() string {
	return fmt.Sprintf("<%s %s>", self.class, self.ref)
}

// Borrowed is a native reference carrying no ownership obligation. When bridged from an Object it
// keeps that Object reachable, so the reference stays valid while the Borrowed value is in use.
type Borrowed struct {
	rt    Runtime
	ref   Ref
	class Class
	owner *Object
}

func (self Borrowed) Ref() Ref         { return self.ref }
func (self Borrowed) Class() Class     { return self.class }
func (self Borrowed) Runtime() Runtime { return self.rt }

// Retain takes a new obligation on the borrowed reference.
func (self Borrowed) Retain() (*Owned, error) {
	defer runtime.KeepAlive(self.owner)
	return Retain(self.rt, self.ref, self.class)
}

func (self Borrowed) String() string {
	return fmt.Sprintf("<%s %s borrowed>", self.class, self.ref)
}

// Owned is a native reference carrying exactly one ownership obligation, discharged by Release,
// by handing it to an autorelease pool, or by transferring it to an Object.
type Owned struct {
	rt    Runtime
	ref   Ref
	class Class
	spent atomic.Bool
}

// Adopt takes the obligation on a reference the caller already owns, e.g. the result of a
// Runtime constructor.
func Adopt(rt Runtime, ref Ref, class Class) *Owned {
	return &Owned{rt: rt, ref: ref, class: class}
}

func (self *Owned) Ref() Ref         { return self.ref }
func (self *Owned) Class() Class     { return self.class }
func (self *Owned) Runtime() Runtime { return self.rt }
func (self *Owned) Spent() bool      { return self.spent.Load() }

// Borrow returns the reference without its obligation.
func (self *Owned) Borrow() Borrowed {
	return Borrowed{rt: self.rt, ref: self.ref, class: self.class}
}

// Retain increments the native count and returns the new obligation.
func (self *Owned) Retain() (*Owned, error) {
	if self.spent.Load() {
		return nil, errors.Wrapf(ErrAlreadyReleased, "retain [%s]", self.ref)
	}
	return Retain(self.rt, self.ref, self.class)
}

// Release discharges the obligation. Releasing the same Owned twice fails. When the native
// release fails the obligation is kept.
func (self *Owned) Release() error {
	if !self.spent.CompareAndSwap(false, true) {
		return errors.Wrapf(ErrAlreadyReleased, "release [%s]", self.ref)
	}
	if err := self.rt.Release(self.ref); err != nil {
		self.spent.Store(false)
		return errors.Wrapf(err, "release [%s]", self.ref)
	}
	return nil
}

// consume marks the obligation as handed elsewhere without touching the native count.
func (self *Owned) consume() error {
	if !self.spent.CompareAndSwap(false, true) {
		return errors.Wrapf(ErrAlreadyReleased, "transfer [%s]", self.ref)
	}
	return nil
}

func (self *Owned) String() string {
	if self.spent.Load() {
		return fmt.Sprintf("<%s %s spent>", self.class, self.ref)
	}
	return fmt.Sprintf("<%s %s owned>", self.class, self.ref)
}

func releaseAll(owned ...*Owned) {
	for _, o := range owned {
		if o == nil || o.Spent() {
			continue
		}
		if err := o.Release(); err != nil {
			pfxlog.Logger().Errorf("error releasing [%s] (%v)", o.ref, err)
		}
	}
}
