package cfbridge

import (
	"github.com/pkg/errors"
	"sort"
	"sync"
)

// PoolHandle identifies a native autorelease pool.
type PoolHandle uintptr

// Runtime is the native reference-counted object runtime.
//
// Constructors return references the caller owns (+1). Accessors returning references (ValueAt,
// ValueFor, Keys) return borrowed references that stay valid while their container is alive.
// Containers retain the values stored into them.
type Runtime interface {
	Retain(ref Ref) error
	Release(ref Ref) error
	RetainCount(ref Ref) (int, error)
	ClassOf(ref Ref) (Class, error)

	// PushPool opens a pool nested in parent, or a new outermost pool when parent is zero.
	PushPool(parent PoolHandle) (PoolHandle, error)
	// PopPool drains pool and any pools nested in it, innermost first.
	PopPool(pool PoolHandle) error
	Autorelease(pool PoolHandle, ref Ref) error

	NewBool(v bool) (Ref, error)
	NewNumber(n Number) (Ref, error)
	NewString(s string) (Ref, error)
	NewData(data []byte) (Ref, error)
	NewArray(objects ...Ref) (Ref, error)
	NewMutableArray(capacity int) (Ref, error)
	AppendValue(array, value Ref) error
	NewMutableDictionary(capacity int) (Ref, error)
	SetValue(dictionary, key, value Ref) error

	Count(container Ref) (int, error)
	ValueAt(array Ref, i int) (Ref, error)
	ValueFor(dictionary, key Ref) (Ref, bool, error)
	Keys(dictionary Ref) ([]Ref, error)
	BoolValue(ref Ref) (bool, error)
	NumberValue(ref Ref) (Number, error)
	StringValue(ref Ref) (string, error)
	DataLength(ref Ref) (int, error)
	DataBytes(ref Ref, offset, length int) ([]byte, error)
}

type RuntimeFactory func(config map[string]interface{}) (Runtime, error)

var runtimes = make(map[string]RuntimeFactory)
var runtimesLock sync.Mutex

func RegisterRuntime(name string, factory RuntimeFactory) {
	runtimesLock.Lock()
	defer runtimesLock.Unlock()
	runtimes[name] = factory
}

func NewRuntime(name string, config map[string]interface{}) (Runtime, error) {
	runtimesLock.Lock()
	factory, found := runtimes[name]
	runtimesLock.Unlock()
	if !found {
		return nil, errors.Wrapf(ErrUnknownRuntime, "runtime '%s'", name)
	}
	return factory(config)
}

func RuntimeNames() []string {
	runtimesLock.Lock()
	defer runtimesLock.Unlock()
	var names []string
	for name := range runtimes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
