package cfbridge

import (
	"github.com/openziti/cfbridge/cf"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"os"
)

type Config struct {
	Runtime          string                 `cf:"runtime"`
	RuntimeConfig    map[string]interface{} `cf:"runtime_config"`
	Instrument       string                 `cf:"instrument"`
	InstrumentConfig map[string]interface{} `cf:"instrument_config"`
	Encoding         string                 `cf:"encoding"`
}

func DefaultConfig() *Config {
	return &Config{
		Runtime:    "sim",
		Instrument: "nil",
		Encoding:   DefaultEncoding.String(),
	}
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config file [%s]", path)
	}
	dataMap := make(map[interface{}]interface{})
	if err := yaml.Unmarshal(data, &dataMap); err != nil {
		return nil, errors.Wrapf(err, "unable to unmarshal config data [%s]", path)
	}
	cfg := DefaultConfig()
	if err := cfg.Load(cf.MapIToMapS(dataMap)); err != nil {
		return nil, errors.Wrapf(err, "unable to load config [%s]", path)
	}
	return cfg, nil
}

func (self *Config) Load(data map[string]interface{}) error {
	if err := cf.Load(data, self); err != nil {
		return err
	}
	if _, err := ParseEncoding(self.Encoding); err != nil {
		return err
	}
	return nil
}

func (self *Config) Dump() string {
	return cf.Dump("config", self)
}

// Env is a runtime opened from a Config, instrumented as configured. Native is the runtime
// underneath the instrumentation.
type Env struct {
	Runtime    Runtime
	Native     Runtime
	Instrument Instrument
	Instance   InstrumentInstance
	Encoding   Encoding
}

func (self *Config) Open(id string) (*Env, error) {
	rt, err := NewRuntime(self.Runtime, self.RuntimeConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create runtime '%s'", self.Runtime)
	}
	i, err := NewInstrument(self.Instrument, self.InstrumentConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create instrument '%s'", self.Instrument)
	}
	enc, err := ParseEncoding(self.Encoding)
	if err != nil {
		return nil, err
	}
	ii := i.NewInstance(id)
	return &Env{
		Runtime:    Instrumented(rt, ii),
		Native:     rt,
		Instrument: i,
		Instance:   ii,
		Encoding:   enc,
	}, nil
}

func (self *Env) Close() {
	self.Instance.Shutdown()
}
