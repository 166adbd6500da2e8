package cfbridge

import "github.com/pkg/errors"

type Instrument interface {
	NewInstance(id string) InstrumentInstance
}

type InstrumentInstance interface {
	// objects
	Allocated(ref Ref, class Class)
	Retained(ref Ref)
	Released(ref Ref)

	// pools
	PoolPushed(pool PoolHandle)
	PoolPopped(pool PoolHandle)
	Autoreleased(ref Ref)

	// errors
	RuntimeError(op string, err error)

	// instrument lifecycle
	Shutdown()
}

func NewInstrument(name string, config map[string]interface{}) (i Instrument, err error) {
	switch name {
	case "metrics":
		return NewMetricsInstrument(config)
	case "nil", "":
		return NewNilInstrument(), nil
	case "trace":
		return NewTraceInstrument(config)
	default:
		return nil, errors.Errorf("unknown instrument '%s'", name)
	}
}
