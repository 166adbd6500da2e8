package cfbridge

import (
	"fmt"
	"github.com/openziti/cfbridge/cf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"io"
	"os"
	"sync"
)

type traceInstrument struct {
	config *traceInstrumentConfig
	out    io.Writer
}

type traceInstrumentConfig struct {
	Objects bool `cf:"objects"`
	Counts  bool `cf:"counts"`
	Pools   bool `cf:"pools"`
	Error   bool `cf:"error"`
}

type traceInstrumentInstance struct {
	id   string
	lock sync.Mutex
	i    *traceInstrument
}

func NewTraceInstrument(config map[string]interface{}) (Instrument, error) {
	return newTraceInstrument(config, os.Stdout)
}

func newTraceInstrument(config map[string]interface{}, out io.Writer) (*traceInstrument, error) {
	i := &traceInstrument{
		config: &traceInstrumentConfig{Objects: true, Counts: true, Pools: true, Error: true},
		out:    out,
	}
	if err := cf.Load(config, i.config); err != nil {
		return nil, errors.Wrap(err, "unable to load config")
	}
	logrus.Debugf(cf.Dump("trace instrument", i.config))
	return i, nil
}

func (self *traceInstrument) NewInstance(id string) InstrumentInstance {
	return &traceInstrumentInstance{
		id: id,
		i:  self,
	}
}

func (self *traceInstrumentInstance) println(format string, args ...interface{}) {
	self.lock.Lock()
	_, _ = fmt.Fprintln(self.i.out, fmt.Sprintf(format, args...))
	self.lock.Unlock()
}

/*
 * objects
 */

func (self *traceInstrumentInstance) Allocated(ref Ref, class Class) {
	if self.i.config.Objects {
		self.println("&& %-24s %-8s %-12s %s", self.id, "ALLOC", ref, class)
	}
}

func (self *traceInstrumentInstance) Retained(ref Ref) {
	if self.i.config.Counts {
		self.println("&& %-24s %-8s %s", self.id, "RETAIN", ref)
	}
}

func (self *traceInstrumentInstance) Released(ref Ref) {
	if self.i.config.Counts {
		self.println("&& %-24s %-8s %s", self.id, "RELEASE", ref)
	}
}

/*
 * pools
 */

func (self *traceInstrumentInstance) PoolPushed(pool PoolHandle) {
	if self.i.config.Pools {
		self.println("!! %-24s POOL PUSH #%d", self.id, pool)
	}
}

func (self *traceInstrumentInstance) PoolPopped(pool PoolHandle) {
	if self.i.config.Pools {
		self.println("!! %-24s POOL POP #%d", self.id, pool)
	}
}

func (self *traceInstrumentInstance) Autoreleased(ref Ref) {
	if self.i.config.Pools {
		self.println("!! %-24s AUTORELEASE %s", self.id, ref)
	}
}

/*
 * errors
 */

func (self *traceInstrumentInstance) RuntimeError(op string, err error) {
	if self.i.config.Error {
		self.println("&& %-24s %s ERROR: %v", self.id, op, err)
	}
}

/*
 * instrument lifecycle
 */

func (self *traceInstrumentInstance) Shutdown() {
	self.println("@@ %-24s SHUTDOWN", self.id)
}
