package host

import (
	"context"
	"strings"
	"time"
)

// Global
var (
	// globalConfig for adbctl
	globalConfig = NewConfig()

	// ConfigFileGet reads a value from the config file
	//
	// This is a function pointer to decouple the config
	// implementation from the host package
	ConfigFileGet = func(section, key string) (string, bool) { return "", false }

	// CountError counts an error. If any errors have been
	// counted then the command exits with a non zero error code.
	CountError = func(err error) error { return err }
)

// ConfigInfo is the process wide configuration shared by every ADB
// server session.
type ConfigInfo struct {
	LogLevel        LogLevel
	UseJSONLog      bool
	ConnectTimeout  time.Duration // timeout for dialing the ADB server
	Timeout         time.Duration // timeout for a single host query
	LowLevelRetries int           // retries when dialing the ADB server
	MetricsAddr     string        // address to serve prometheus metrics on
}

// NewConfig creates a new config with everything set to the default
// value. These are the ultimate defaults and are overridden by the
// config module.
func NewConfig() *ConfigInfo {
	c := new(ConfigInfo)

	// Set any values which aren't the zero for the type
	c.LogLevel = LogLevelNotice
	c.ConnectTimeout = 10 * time.Second
	c.Timeout = 30 * time.Second
	c.LowLevelRetries = 5

	return c
}

type configContextKeyType struct{}

// Context key for config
var configContextKey = configContextKeyType{}

// GetConfig returns the global or context sensitive context
func GetConfig(ctx context.Context) *ConfigInfo {
	if ctx == nil {
		return globalConfig
	}
	c := ctx.Value(configContextKey)
	if c == nil {
		return globalConfig
	}
	return c.(*ConfigInfo)
}

// AddConfig returns a mutable config structure based on a shallow
// copy of that found in ctx and returns a new context with that added
// to it.
func AddConfig(ctx context.Context) (context.Context, *ConfigInfo) {
	c := GetConfig(ctx)
	cCopy := new(ConfigInfo)
	*cCopy = *c
	newCtx := context.WithValue(ctx, configContextKey, cCopy)
	return newCtx, cCopy
}

// ConfigToEnv converts a config section and name, e.g. ("emulator",
// "command-timeout") into an environment name
// "ADBCTL_CONFIG_EMULATOR_COMMAND_TIMEOUT"
func ConfigToEnv(section, name string) string {
	return "ADBCTL_CONFIG_" + strings.ToUpper(strings.Replace(section+"_"+name, "-", "_", -1))
}

// OptionToEnv converts an option name, e.g. "log-level" into an
// environment name "ADBCTL_LOG_LEVEL"
func OptionToEnv(name string) string {
	return "ADBCTL_" + strings.ToUpper(strings.Replace(name, "-", "_", -1))
}
