package cfbridge

// Instrumented wraps rt so that every reference-count, pool and allocation event is reported
// to ii.
func Instrumented(rt Runtime, ii InstrumentInstance) Runtime {
	if ii == nil {
		return rt
	}
	return &instrumentedRuntime{Runtime: rt, ii: ii}
}

type instrumentedRuntime struct {
	Runtime
	ii InstrumentInstance
}

func (self *instrumentedRuntime) failed(op string, err error) error {
	if err != nil {
		self.ii.RuntimeError(op, err)
	}
	return err
}

func (self *instrumentedRuntime) allocated(op string, ref Ref, class Class, err error) (Ref, error) {
	if err != nil {
		return ref, self.failed(op, err)
	}
	self.ii.Allocated(ref, class)
	return ref, nil
}

func (self *instrumentedRuntime) Retain(ref Ref) error {
	if err := self.Runtime.Retain(ref); err != nil {
		return self.failed("retain", err)
	}
	self.ii.Retained(ref)
	return nil
}

func (self *instrumentedRuntime) Release(ref Ref) error {
	if err := self.Runtime.Release(ref); err != nil {
		return self.failed("release", err)
	}
	self.ii.Released(ref)
	return nil
}

func (self *instrumentedRuntime) PushPool(parent PoolHandle) (PoolHandle, error) {
	pool, err := self.Runtime.PushPool(parent)
	if err != nil {
		return pool, self.failed("push pool", err)
	}
	self.ii.PoolPushed(pool)
	return pool, nil
}

func (self *instrumentedRuntime) PopPool(pool PoolHandle) error {
	if err := self.Runtime.PopPool(pool); err != nil {
		return self.failed("pop pool", err)
	}
	self.ii.PoolPopped(pool)
	return nil
}

func (self *instrumentedRuntime) Autorelease(pool PoolHandle, ref Ref) error {
	if err := self.Runtime.Autorelease(pool, ref); err != nil {
		return self.failed("autorelease", err)
	}
	self.ii.Autoreleased(ref)
	return nil
}

func (self *instrumentedRuntime) NewBool(v bool) (Ref, error) {
	ref, err := self.Runtime.NewBool(v)
	return self.allocated("new bool", ref, ClassBoolean, err)
}

func (self *instrumentedRuntime) NewNumber(n Number) (Ref, error) {
	ref, err := self.Runtime.NewNumber(n)
	return self.allocated("new number", ref, ClassNumber, err)
}

func (self *instrumentedRuntime) NewString(s string) (Ref, error) {
	ref, err := self.Runtime.NewString(s)
	return self.allocated("new string", ref, ClassString, err)
}

func (self *instrumentedRuntime) NewData(data []byte) (Ref, error) {
	ref, err := self.Runtime.NewData(data)
	return self.allocated("new data", ref, ClassData, err)
}

func (self *instrumentedRuntime) NewArray(objects ...Ref) (Ref, error) {
	ref, err := self.Runtime.NewArray(objects...)
	return self.allocated("new array", ref, ClassArray, err)
}

func (self *instrumentedRuntime) NewMutableArray(capacity int) (Ref, error) {
	ref, err := self.Runtime.NewMutableArray(capacity)
	return self.allocated("new mutable array", ref, ClassMutableArray, err)
}

func (self *instrumentedRuntime) NewMutableDictionary(capacity int) (Ref, error) {
	ref, err := self.Runtime.NewMutableDictionary(capacity)
	return self.allocated("new mutable dictionary", ref, ClassMutableDictionary, err)
}

func (self *instrumentedRuntime) AppendValue(array, value Ref) error {
	return self.failed("append value", self.Runtime.AppendValue(array, value))
}

func (self *instrumentedRuntime) SetValue(dictionary, key, value Ref) error {
	return self.failed("set value", self.Runtime.SetValue(dictionary, key, value))
}
