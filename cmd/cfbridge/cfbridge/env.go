package cfbridge

import (
	"github.com/openziti/cfbridge"
	_ "github.com/openziti/cfbridge/corefoundation"
	"github.com/openziti/cfbridge/sim"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// OpenEnv opens the runtime selected by the config file and flags.
func OpenEnv(id string) (*cfbridge.Env, error) {
	cfg := cfbridge.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = cfbridge.LoadConfig(configPath); err != nil {
			return nil, err
		}
	}
	if SelectedRuntime != "" {
		cfg.Runtime = SelectedRuntime
	}
	if configDump {
		logrus.Infof(cfg.Dump())
	}
	env, err := cfg.Open(id)
	if err != nil {
		return nil, errors.Wrapf(err, "open runtime (available %v)", cfbridge.RuntimeNames())
	}
	logrus.Infof("opened runtime [%s] with instrument [%s]", cfg.Runtime, cfg.Instrument)
	return env, nil
}

// CloseEnv shuts the instrument down, writing samples when it collects them.
func CloseEnv(env *cfbridge.Env) {
	env.Close()
	if rt, ok := env.Native.(*sim.Runtime); ok {
		stats := rt.Stats()
		logrus.Infof("sim: [%d] allocations, [%d] deallocations, [%d] live", stats.Allocations, stats.Deallocations, stats.Live)
	}
	if mi, ok := env.Instrument.(*cfbridge.MetricsInstrument); ok {
		if err := mi.WriteAllSamples(); err != nil {
			logrus.Errorf("error writing samples (%v)", err)
		}
		mi.Clean()
	}
}
