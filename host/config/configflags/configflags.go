// Package configflags defines the global flags used by adbctl. It is
// decoupled into a separate package so it can be replaced.
package configflags

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/host/config"
	"github.com/adbctl/adbctl/host/config/flags"
	"github.com/adbctl/adbctl/host/log"
)

var (
	// these will get interpreted into host.ConfigInfo via SetFlags() below
	verbose int
	quiet   bool
)

// AddFlags adds the global flags to flagSet, storing the values in ci
func AddFlags(ci *host.ConfigInfo, flagSet *pflag.FlagSet) {
	// NB defaults which aren't the zero for the type should be set in host/config.go NewConfig
	flags.CountVarP(flagSet, &verbose, "verbose", "v", "Print lots more stuff (repeat for more)")
	flags.BoolVarP(flagSet, &quiet, "quiet", "q", false, "Print as little stuff as possible")
	flags.FVarP(flagSet, &ci.LogLevel, "log-level", "", "Log level DEBUG|INFO|NOTICE|ERROR")
	flags.BoolVarP(flagSet, &ci.UseJSONLog, "use-json-log", "", ci.UseJSONLog, "Use json log format")
	flags.StringVarP(flagSet, &log.Opt.File, "log-file", "", log.Opt.File, "Log everything to this file")
	flags.StringVarP(flagSet, &log.Opt.Format, "log-format", "", log.Opt.Format, "Comma separated list of log format options")
	flags.DurationVarP(flagSet, &ci.ConnectTimeout, "contimeout", "", ci.ConnectTimeout, "Timeout for connecting to the ADB server")
	flags.DurationVarP(flagSet, &ci.Timeout, "timeout", "", ci.Timeout, "Timeout for a single ADB query")
	flags.IntVarP(flagSet, &ci.LowLevelRetries, "low-level-retries", "", ci.LowLevelRetries, "Number of times to retry connecting to the ADB server")
	flags.StringVarP(flagSet, &ci.MetricsAddr, "metrics-addr", "", ci.MetricsAddr, "Serve prometheus metrics on this address, e.g. localhost:9092")
	flags.StringVarP(flagSet, &config.ConfigPath, "config", "", config.ConfigPath, "Config file")
	flags.StringVarP(flagSet, &config.ServerName, "server", "", config.ServerName, "Name of the ADB server profile in the config file")
}

// SetFlags converts any flags into config which weren't straight forward
func SetFlags(ci *host.ConfigInfo) error {
	if verbose >= 2 {
		ci.LogLevel = host.LogLevelDebug
	} else if verbose >= 1 {
		ci.LogLevel = host.LogLevelInfo
	}
	if quiet {
		if verbose > 0 {
			return errors.New("can't set -v and -q")
		}
		ci.LogLevel = host.LogLevelError
	}
	logLevelFlag := pflag.Lookup("log-level")
	if logLevelFlag != nil && logLevelFlag.Changed {
		if verbose > 0 {
			return errors.New("can't set -v and --log-level")
		}
		if quiet {
			return errors.New("can't set -q and --log-level")
		}
	}

	// Make the config file absolute
	if config.ConfigPath != "" {
		configPath, err := filepath.Abs(config.ConfigPath)
		if err == nil {
			config.ConfigPath = configPath
		}
	}
	return nil
}
