package cfbridge

import (
	"github.com/pkg/errors"
)

// Retain increments the count of ref after checking it is a kind of class, returning the new
// obligation.
func Retain(rt Runtime, ref Ref, class Class) (*Owned, error) {
	if _, err := checkClass(rt, ref, class); err != nil {
		return nil, err
	}
	if err := rt.Retain(ref); err != nil {
		return nil, errors.Wrapf(err, "retain [%s]", ref)
	}
	return Adopt(rt, ref, class), nil
}

// Release decrements the count of a raw reference the caller owns.
func Release(rt Runtime, ref Ref) error {
	if err := rt.Release(ref); err != nil {
		return errors.Wrapf(err, "release [%s]", ref)
	}
	return nil
}

// Use runs action with o and releases o afterwards on every exit path. A value that has to
// escape action must be retained inside it.
func Use(o *Owned, action func(*Owned) error) (err error) {
	if o == nil {
		return errors.Wrap(ErrInvalidArgument, "use nil reference")
	}
	defer func() {
		if rerr := o.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return action(o)
}

// UseValue is Use for actions producing a result.
func UseValue[R any](o *Owned, action func(*Owned) (R, error)) (result R, err error) {
	if o == nil {
		return result, errors.Wrap(ErrInvalidArgument, "use nil reference")
	}
	defer func() {
		if rerr := o.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return action(o)
}
