package install

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	assert.Nil(t, Options(false, false, false, nil))
	assert.Equal(t, []string{"-r", "-t", "-g"}, Options(true, true, true, nil))
	assert.Equal(t, []string{"-g", "--abi", "arm64-v8a"}, Options(false, false, true, []string{"--abi", "arm64-v8a"}))
}
