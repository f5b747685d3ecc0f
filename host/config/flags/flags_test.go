package flags

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adbctl/adbctl/host"
)

func TestFlagsFromEnvironment(t *testing.T) {
	t.Setenv("ADBCTL_SERIAL", "emulator-5556")
	t.Setenv("ADBCTL_TIMEOUT", "45s")
	t.Setenv("ADBCTL_LOG_LEVEL", "DEBUG")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var (
		serial   string
		timeout  time.Duration
		port     int
		long     bool
		logLevel = host.LogLevelNotice
	)
	StringVarP(fs, &serial, "serial", "s", "", "Device serial")
	DurationVarP(fs, &timeout, "timeout", "", 30*time.Second, "Timeout")
	IntVarP(fs, &port, "port", "P", 5037, "Port")
	BoolVarP(fs, &long, "long", "l", false, "Long listing")
	FVarP(fs, &logLevel, "log-level", "", "Log level")

	assert.Equal(t, "emulator-5556", serial)
	assert.Equal(t, 45*time.Second, timeout)
	assert.Equal(t, 5037, port)
	assert.False(t, long)
	assert.Equal(t, host.LogLevelDebug, logLevel)
	assert.Equal(t, "emulator-5556", fs.Lookup("serial").DefValue)

	// command line beats the environment
	require.NoError(t, fs.Parse([]string{"-s", "R58M123"}))
	assert.Equal(t, "R58M123", serial)
}

func TestApplyEnvErrors(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var port int
	fs.IntVarP(&port, "port", "P", 5037, "Port")

	t.Setenv("ADBCTL_PORT", "lots")
	err := applyEnv(fs, "port")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADBCTL_PORT")
	assert.Equal(t, 5037, port)

	var timeout time.Duration
	fs.DurationVarP(&timeout, "timeout", "", 30*time.Second, "Timeout")
	t.Setenv("ADBCTL_TIMEOUT", "soon")
	require.Error(t, applyEnv(fs, "timeout"))
	assert.Equal(t, 30*time.Second, timeout)
	assert.False(t, fs.Lookup("timeout").Changed)

	t.Setenv("ADBCTL_MISSING", "1")
	assert.Error(t, applyEnv(fs, "missing"))

	assert.NoError(t, applyEnv(fs, "unset-flag"))
}
