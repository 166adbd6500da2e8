package cfbridge

import (
	"fmt"
	"github.com/pkg/errors"
	"reflect"
)

var (
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrPoolReleased     = errors.New("pool was already released")
	ErrPoolOrder        = errors.New("pool is not the innermost open pool")
	ErrNoPool           = errors.New("no autorelease pool in place")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrAlreadyReleased  = errors.New("ownership already released")
	ErrUnknownRuntime   = errors.New("unknown runtime")
	ErrNotRepresentable = errors.New("not representable in encoding")
)

// TypeMismatchError is returned when a cast names a class the source reference is not a kind of.
type TypeMismatchError struct {
	Ref  Ref
	Want Class
	Got  Class
}

func (self *TypeMismatchError) Error() string {
	return fmt.Sprintf("cannot cast [%s] of class [%s] to [%s]", self.Ref, self.Got, self.Want)
}

func (self *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// UnsupportedTypeError names a Go type that has no native counterpart.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (self *UnsupportedTypeError) Error() string {
	if self.Type == nil {
		return "unsupported object type: <nil>"
	}
	return fmt.Sprintf("unsupported object type: %s", self.Type)
}

func (self *UnsupportedTypeError) Is(target error) bool {
	return target == ErrInvalidArgument
}
