package cfbridge

type nilInstrument struct{}

func NewNilInstrument() Instrument {
	return &nilInstrument{}
}

func (self *nilInstrument) NewInstance(_ string) InstrumentInstance {
	return &NilInstrumentInstance{}
}

type NilInstrumentInstance struct{}

func (n NilInstrumentInstance) Allocated(Ref, Class) {}

func (n NilInstrumentInstance) Retained(Ref) {}

func (n NilInstrumentInstance) Released(Ref) {}

func (n NilInstrumentInstance) PoolPushed(PoolHandle) {}

func (n NilInstrumentInstance) PoolPopped(PoolHandle) {}

func (n NilInstrumentInstance) Autoreleased(Ref) {}

func (n NilInstrumentInstance) RuntimeError(string, error) {}

func (n NilInstrumentInstance) Shutdown() {}
