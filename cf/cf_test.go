package cf

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

type testConfig struct {
	Count   int                    `cf:"count"`
	Ratio   float64                `cf:"ratio"`
	Enabled bool                   `cf:"enabled"`
	Name    string
	Extra   map[string]interface{} `cf:"extra"`
	hidden  int
}

func TestLoad(t *testing.T) {
	cfg := &testConfig{Count: 1, Name: "default"}
	err := Load(map[string]interface{}{
		"count":   3,
		"ratio":   2,
		"enabled": true,
		"extra":   map[interface{}]interface{}{"k": []interface{}{map[interface{}]interface{}{1: "v"}}},
		"hidden":  9,
	}, cfg)
	assert.NoError(t, err)
	assert.Equal(t, 3, cfg.Count)
	assert.Equal(t, 2.0, cfg.Ratio)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "default", cfg.Name)
	assert.Equal(t, map[string]interface{}{"k": []interface{}{map[string]interface{}{"1": "v"}}}, cfg.Extra)
	assert.Equal(t, 0, cfg.hidden)
}

func TestLoadUntaggedName(t *testing.T) {
	cfg := &testConfig{}
	assert.NoError(t, Load(map[string]interface{}{"Name": "named"}, cfg))
	assert.Equal(t, "named", cfg.Name)
}

func TestLoadTypeMismatch(t *testing.T) {
	err := Load(map[string]interface{}{"count": "three"}, &testConfig{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "count")

	assert.Error(t, Load(nil, 7))
}

func TestDump(t *testing.T) {
	out := Dump("test", &testConfig{Count: 2, Extra: map[string]interface{}{"b": 1, "a": 2}})
	assert.Contains(t, out, "test {")
	assert.Contains(t, out, "count")
	assert.Contains(t, out, "{a=2, b=1}")
	assert.NotContains(t, out, "hidden")
}
