package cfbridge

import (
	"fmt"
	"github.com/openziti/cfbridge/cf"
	"github.com/openziti/cfbridge/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type MetricsInstrument struct {
	lock      sync.Mutex
	Config    *MetricsInstrumentConfig
	instances []*metricsInstrumentInstance
}

type MetricsInstrumentConfig struct {
	Path       string `cf:"path"`
	SnapshotMs int    `cf:"snapshot_ms"`
	Enabled    bool   `cf:"enabled"`
}

func NewMetricsInstrument(config map[string]interface{}) (Instrument, error) {
	i := &MetricsInstrument{
		Config: &MetricsInstrumentConfig{
			Path:       "metrics",
			SnapshotMs: 1000,
			Enabled:    true,
		},
	}
	if err := cf.Load(config, i.Config); err != nil {
		return nil, errors.Wrap(err, "unable to load config")
	}
	if i.Config.SnapshotMs < 1 {
		return nil, errors.Errorf("invalid snapshot_ms [%d]", i.Config.SnapshotMs)
	}
	logrus.Infof(cf.Dump("metrics instrument", i.Config))
	return i, nil
}

func (self *MetricsInstrument) NewInstance(id string) InstrumentInstance {
	self.lock.Lock()
	defer self.lock.Unlock()
	ii := &metricsInstrumentInstance{
		id:     id,
		config: self.Config,
		close:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	go ii.snapshotter(self.Config.SnapshotMs)
	self.instances = append(self.instances, ii)
	return ii
}

// WriteAllSamples writes every instance's samples into its own directory below Config.Path.
func (self *MetricsInstrument) WriteAllSamples() error {
	self.lock.Lock()
	defer self.lock.Unlock()

	for _, ii := range self.instances {
		prefix := strings.ReplaceAll(fmt.Sprintf("%s_", ii.id), ":", "-")
		if err := os.MkdirAll(self.Config.Path, os.ModePerm); err != nil {
			return err
		}
		outPath, err := os.MkdirTemp(self.Config.Path, prefix)
		if err != nil {
			return err
		}
		logrus.Infof("writing metrics to: %s", outPath)

		if err := util.WriteMetricsId("cfbridge", outPath, map[string]string{"instance": ii.id}); err != nil {
			return err
		}
		ii.lock.Lock()
		samples := map[string][]*util.Sample{
			"allocations":  ii.allocations,
			"retains":      ii.retains,
			"releases":     ii.releases,
			"autoreleases": ii.autoreleases,
			"pools_pushed": ii.poolsPushed,
			"pools_popped": ii.poolsPopped,
			"pool_depth":   ii.poolDepth,
			"errors":       ii.errors,
		}
		ii.lock.Unlock()
		for _, name := range Datasets {
			if err := util.WriteSamples(name, outPath, samples[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Datasets names the sample files written by WriteAllSamples.
var Datasets = []string{
	"allocations",
	"retains",
	"releases",
	"autoreleases",
	"pools_pushed",
	"pools_popped",
	"pool_depth",
	"errors",
}

// Clean drops instances that were shut down.
func (self *MetricsInstrument) Clean() {
	self.lock.Lock()
	defer self.lock.Unlock()

	var open []*metricsInstrumentInstance
	for _, ii := range self.instances {
		if ii.closed.Load() {
			logrus.Infof("removed metricsInstrumentInstance #%p", ii)
			continue
		}
		open = append(open, ii)
	}
	self.instances = open
}

type metricsInstrumentInstance struct {
	id     string
	config *MetricsInstrumentConfig
	close  chan struct{}
	done   chan struct{}
	closed atomic.Bool
	lock   sync.Mutex

	allocations       []*util.Sample
	allocationsAccum  int64
	retains           []*util.Sample
	retainsAccum      int64
	releases          []*util.Sample
	releasesAccum     int64
	autoreleases      []*util.Sample
	autoreleasesAccum int64
	poolsPushed       []*util.Sample
	poolsPushedAccum  int64
	poolsPopped       []*util.Sample
	poolsPoppedAccum  int64
	poolDepth         []*util.Sample
	poolDepthVal      int64
	errors            []*util.Sample
	errorsAccum       int64
}

/*
 * objects
 */
func (self *metricsInstrumentInstance) Allocated(Ref, Class) {
	if self.config.Enabled {
		atomic.AddInt64(&self.allocationsAccum, 1)
	}
}

func (self *metricsInstrumentInstance) Retained(Ref) {
	if self.config.Enabled {
		atomic.AddInt64(&self.retainsAccum, 1)
	}
}

func (self *metricsInstrumentInstance) Released(Ref) {
	if self.config.Enabled {
		atomic.AddInt64(&self.releasesAccum, 1)
	}
}

/*
 * pools
 */
func (self *metricsInstrumentInstance) PoolPushed(PoolHandle) {
	if self.config.Enabled {
		atomic.AddInt64(&self.poolsPushedAccum, 1)
		atomic.AddInt64(&self.poolDepthVal, 1)
	}
}

func (self *metricsInstrumentInstance) PoolPopped(PoolHandle) {
	if self.config.Enabled {
		atomic.AddInt64(&self.poolsPoppedAccum, 1)
		atomic.AddInt64(&self.poolDepthVal, -1)
	}
}

func (self *metricsInstrumentInstance) Autoreleased(Ref) {
	if self.config.Enabled {
		atomic.AddInt64(&self.autoreleasesAccum, 1)
	}
}

/*
 * errors
 */
func (self *metricsInstrumentInstance) RuntimeError(op string, err error) {
	if self.config.Enabled {
		logrus.Errorf("%s error (%v)", op, err)
		atomic.AddInt64(&self.errorsAccum, 1)
	}
}

/*
 * instrument lifecycle
 */
// Shutdown takes a final snapshot and returns once the snapshotter has exited.
func (self *metricsInstrumentInstance) Shutdown() {
	if self.closed.CompareAndSwap(false, true) {
		close(self.close)
	}
	<-self.done
}

func (self *metricsInstrumentInstance) snapshotter(ms int) {
	logrus.Debugf("started")
	defer logrus.Debugf("exited")
	defer close(self.done)
	ticker := time.NewTicker(time.Duration(ms) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if self.config.Enabled {
				self.snapshot()
			}
		case <-self.close:
			self.snapshot()
			return
		}
	}
}

func (self *metricsInstrumentInstance) snapshot() {
	self.lock.Lock()
	defer self.lock.Unlock()
	now := time.Now()
	self.allocations = append(self.allocations, &util.Sample{Ts: now, V: atomic.SwapInt64(&self.allocationsAccum, 0)})
	self.retains = append(self.retains, &util.Sample{Ts: now, V: atomic.SwapInt64(&self.retainsAccum, 0)})
	self.releases = append(self.releases, &util.Sample{Ts: now, V: atomic.SwapInt64(&self.releasesAccum, 0)})
	self.autoreleases = append(self.autoreleases, &util.Sample{Ts: now, V: atomic.SwapInt64(&self.autoreleasesAccum, 0)})
	self.poolsPushed = append(self.poolsPushed, &util.Sample{Ts: now, V: atomic.SwapInt64(&self.poolsPushedAccum, 0)})
	self.poolsPopped = append(self.poolsPopped, &util.Sample{Ts: now, V: atomic.SwapInt64(&self.poolsPoppedAccum, 0)})
	self.poolDepth = append(self.poolDepth, &util.Sample{Ts: now, V: atomic.LoadInt64(&self.poolDepthVal)})
	self.errors = append(self.errors, &util.Sample{Ts: now, V: atomic.SwapInt64(&self.errorsAccum, 0)})
}
