package cfbridge

import (
	"github.com/pkg/errors"
	"runtime"
)

func checkClass(rt Runtime, ref Ref, want Class) (Class, error) {
	got, err := rt.ClassOf(ref)
	if err != nil {
		return got, errors.Wrapf(err, "class of [%s]", ref)
	}
	if !got.KindOf(want) {
		return got, &TypeMismatchError{Ref: ref, Want: want, Got: got}
	}
	return got, nil
}

// Bridge casts a managed reference to a native one with no transfer of ownership. The result
// must not be released unless separately retained.
func Bridge(obj *Object, class Class) (Borrowed, error) {
	if obj == nil {
		return Borrowed{}, errors.Wrap(ErrInvalidArgument, "bridge nil object")
	}
	defer runtime.KeepAlive(obj)
	if _, err := checkClass(obj.rt, obj.ref, class); err != nil {
		return Borrowed{}, err
	}
	return Borrowed{rt: obj.rt, ref: obj.ref, class: class, owner: obj}, nil
}

// BridgeObject casts a native reference to a managed one with no transfer of ownership. The
// Object takes its own retain; the caller still owes whatever it owed on ref.
func BridgeObject(rt Runtime, ref Ref, class Class) (*Object, error) {
	if _, err := checkClass(rt, ref, class); err != nil {
		return nil, err
	}
	if err := rt.Retain(ref); err != nil {
		return nil, errors.Wrapf(err, "retain [%s]", ref)
	}
	return newObject(rt, ref, class), nil
}

// BridgeRetained casts a managed reference to a native one and transfers one obligation to the
// caller, who must release the result exactly once.
func BridgeRetained(obj *Object, class Class) (*Owned, error) {
	if obj == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "bridge nil object")
	}
	defer runtime.KeepAlive(obj)
	return Retain(obj.rt, obj.ref, class)
}

// BridgeTransfer moves the obligation held by o to a new managed reference. o is spent afterwards.
func BridgeTransfer(o *Owned, class Class) (*Object, error) {
	if o == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "transfer nil reference")
	}
	if o.Spent() {
		return nil, errors.Wrapf(ErrAlreadyReleased, "transfer [%s]", o.ref)
	}
	if _, err := checkClass(o.rt, o.ref, class); err != nil {
		return nil, err
	}
	if err := o.consume(); err != nil {
		return nil, err
	}
	return newObject(o.rt, o.ref, class), nil
}

// BridgeUse retains obj as class for the duration of action.
func BridgeUse(obj *Object, class Class, action func(*Owned) error) error {
	o, err := BridgeRetained(obj, class)
	if err != nil {
		return err
	}
	return Use(o, action)
}

func BridgeUseValue[R any](obj *Object, class Class, action func(*Owned) (R, error)) (R, error) {
	o, err := BridgeRetained(obj, class)
	if err != nil {
		var zero R
		return zero, err
	}
	return UseValue(o, action)
}

// Cast re-types a borrowed reference after checking its runtime class.
func Cast(b Borrowed, class Class) (Borrowed, error) {
	defer runtime.KeepAlive(b.owner)
	if _, err := checkClass(b.rt, b.ref, class); err != nil {
		return Borrowed{}, err
	}
	b.class = class
	return b, nil
}

// Borrow wraps a raw reference the caller keeps alive by other means.
func Borrow(rt Runtime, ref Ref, class Class) (Borrowed, error) {
	if _, err := checkClass(rt, ref, class); err != nil {
		return Borrowed{}, err
	}
	return Borrowed{rt: rt, ref: ref, class: class}, nil
}
