package cfbridge

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestProfileModes(t *testing.T) {
	assert.Equal(t, []string{"block", "cpu", "goroutine", "memory", "mutex"}, ProfileModes())

	for _, mode := range []string{"cpu", "CPU", "mutex"} {
		option, err := profileOption(mode)
		assert.NoError(t, err, mode)
		assert.NotNil(t, option, mode)
	}

	_, err := profileOption("trace")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "[trace]")
}
