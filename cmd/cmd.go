// Package cmd implements the adbctl command
//
// It is in a sub package so it's internals can be re-used elsewhere
package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/adbctl/adbctl/adb"
	"github.com/adbctl/adbctl/adb/pm"
	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/host/config"
	"github.com/adbctl/adbctl/host/config/configflags"
	"github.com/adbctl/adbctl/host/config/flags"
	hostlog "github.com/adbctl/adbctl/host/log"
	"github.com/adbctl/adbctl/lib/buildinfo"
	"github.com/adbctl/adbctl/lib/exitcode"
)

// Globals
var (
	// Flags
	serverHost  string
	serverPort  int
	serial      string
	transportID int64
	useUSB      bool
	useLocal    bool
	version     bool

	// Errors
	errorNotEnoughArguments = errors.New("not enough arguments")
	errorTooManyArguments   = errors.New("too many arguments")
	errorUsage              = errors.New("usage error")
)

// Root is the main adbctl command
var Root = &cobra.Command{
	Use:   "adbctl",
	Short: "Talk to the ADB server",
	Long: `
adbctl is a command line client for the ADB server host protocol. It
lists and tracks devices, runs commands on them and installs or
uninstalls packages without needing the adb binary, except to start
the server.

The server to talk to is read from the [default] section of the
config file, or the section named with --server.
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	Run: func(cmd *cobra.Command, args []string) {
		if version {
			ShowVersion()
			resolveExitCode(nil)
		}
		_ = cmd.Usage()
		resolveExitCode(errorUsage)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	ci := host.GetConfig(context.Background())
	configflags.AddFlags(ci, Root.PersistentFlags())
	pflags := Root.PersistentFlags()
	flags.StringVarP(pflags, &serverHost, "host", "H", "", "Host of the ADB server, overrides the config file")
	flags.IntVarP(pflags, &serverPort, "port", "P", 0, "Port of the ADB server, overrides the config file")
	flags.StringVarP(pflags, &serial, "serial", "s", "", "Use the device with this serial, overrides $ANDROID_SERIAL")
	pflags.Int64VarP(&transportID, "transport-id", "", 0, "Use the device with this transport id")
	flags.BoolVarP(pflags, &useUSB, "usb", "d", false, "Use the only USB device")
	flags.BoolVarP(pflags, &useLocal, "emulator", "e", false, "Use the only emulator or TCP device")
	flags.BoolVarP(Root.Flags(), &version, "version", "V", false, "Print the version number")
}

// ShowVersion prints the version to stdout
func ShowVersion() {
	osVersion, osKernel := buildinfo.GetOSVersion()
	if osVersion == "" {
		osVersion = "unknown"
	}
	if osKernel == "" {
		osKernel = "unknown"
	}
	linking, tagString := buildinfo.GetLinkingAndTags()
	fmt.Printf("adbctl %s\n", host.Version)
	fmt.Printf("- adb/protocol: %d\n", host.ClientProtocolVersion)
	fmt.Printf("- os/version: %s\n", osVersion)
	fmt.Printf("- os/kernel: %s\n", osKernel)
	fmt.Printf("- os/type: %s\n", runtime.GOOS)
	fmt.Printf("- os/arch: %s\n", runtime.GOARCH)
	fmt.Printf("- go/version: %s\n", runtime.Version())
	fmt.Printf("- go/linking: %s\n", linking)
	fmt.Printf("- go/tags: %s\n", tagString)
}

// Options returns the ADB server options from the config file with
// the command line flags applied
func Options(ctx context.Context) (*adb.Options, error) {
	opt, err := adb.NewOptions(ctx, config.ServerConfig(config.ServerName))
	if err != nil {
		return nil, errors.Wrapf(err, "server %q", config.ServerName)
	}
	if serverHost != "" {
		opt.Host = serverHost
	}
	if serverPort != 0 {
		if serverPort < 0 || serverPort > 65535 {
			return nil, errors.Wrapf(errorUsage, "invalid --port %d", serverPort)
		}
		opt.Port = serverPort
	}
	return opt, nil
}

// NewSession makes a session for the ADB server selected on the
// command line
func NewSession(ctx context.Context) (*adb.Session, error) {
	opt, err := Options(ctx)
	if err != nil {
		return nil, err
	}
	return adb.NewSession(ctx, opt)
}

// Device returns the device selected on the command line, falling
// back to $ANDROID_SERIAL then to any single device.
func Device() (adb.DeviceSelector, error) {
	return deviceSelector(serial, transportID, useUSB, useLocal)
}

func deviceSelector(serial string, transportID int64, usb, local bool) (adb.DeviceSelector, error) {
	n := 0
	for _, set := range []bool{serial != "", transportID != 0, usb, local} {
		if set {
			n++
		}
	}
	if n > 1 {
		return adb.DeviceSelector{}, errors.Wrap(errorUsage, "only one of --serial, --transport-id, --usb and --emulator may be used")
	}
	switch {
	case serial != "":
		return adb.Serial(serial), nil
	case transportID < 0:
		return adb.DeviceSelector{}, errors.Wrapf(errorUsage, "invalid --transport-id %d", transportID)
	case transportID > 0:
		return adb.TransportID(transportID), nil
	case usb:
		return adb.USB(), nil
	case local:
		return adb.Local(), nil
	}
	if s := os.Getenv("ANDROID_SERIAL"); s != "" {
		return adb.Serial(s), nil
	}
	return adb.Any(), nil
}

// Run runs f with a context and exits with the code its error
// maps to
func Run(cmd *cobra.Command, f func(ctx context.Context) error) {
	ctx := context.Background()
	err := f(ctx)
	if err != nil {
		err = host.CountError(err)
		var ie *pm.InstallError
		var status *ExitStatusError
		if errors.As(err, &status) {
			host.Debugf(nil, "Remote command exited with status %d", status.Code)
		} else if errors.As(err, &ie) {
			log.Printf("Failed to %s: %s: %s", cmd.Name(), ie.ErrorCode, ie.ErrorMessage)
		} else {
			log.Printf("Failed to %s: %v", cmd.Name(), err)
		}
	}
	host.Debugf(nil, "%d go routines active", runtime.NumGoroutine())
	resolveExitCode(err)
}

// CheckArgs checks there are enough arguments and prints a message if not
func CheckArgs(MinArgs, MaxArgs int, cmd *cobra.Command, args []string) {
	if len(args) < MinArgs {
		_ = cmd.Usage()
		_, _ = fmt.Fprintf(os.Stderr, "Command %s needs %d arguments minimum: you provided %d non flag arguments: %q\n", cmd.Name(), MinArgs, len(args), args)
		resolveExitCode(errorNotEnoughArguments)
	} else if MaxArgs >= 0 && len(args) > MaxArgs {
		_ = cmd.Usage()
		_, _ = fmt.Fprintf(os.Stderr, "Command %s needs %d arguments maximum: you provided %d non flag arguments: %q\n", cmd.Name(), MaxArgs, len(args), args)
		resolveExitCode(errorTooManyArguments)
	}
}

// initConfig is run by cobra after initialising the flags
func initConfig() error {
	ctx := context.Background()
	ci := host.GetConfig(ctx)

	// Finish parsing any command line flags
	if err := configflags.SetFlags(ci); err != nil {
		return errors.Wrap(errorUsage, err.Error())
	}

	// Start the logger
	if err := hostlog.InitLogging(); err != nil {
		return err
	}

	// Load the config
	if err := config.LoadConfig(); err != nil {
		return errors.Wrap(err, "failed to load config file")
	}

	// Write the args for debug purposes
	host.Debugf("adbctl", "Version %q starting with parameters %q", host.Version, os.Args)

	// Serve the metrics if required
	if ci.MetricsAddr != "" {
		startMetrics(ci.MetricsAddr)
	}
	return nil
}

// startMetrics registers the protocol metrics and serves them on
// addr in the background
func startMetrics(addr string) {
	m := adb.NewMetrics("adbctl")
	for _, c := range m.Collectors() {
		prometheus.MustRegister(c)
	}
	adb.DefaultMetrics = m

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		host.Infof(nil, "Serving metrics on http://%s/metrics", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			host.Errorf(nil, "Metrics server failed: %v", err)
		}
	}()
}

// ExitStatusError makes adbctl exit with Code, eg the exit status of
// a command run on a device
type ExitStatusError struct {
	Code int
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Code)
}

// exitCode returns the exit status err maps to
func exitCode(err error) int {
	var status *ExitStatusError
	switch {
	case err == nil:
		return exitcode.Success
	case errors.As(err, &status):
		return status.Code
	case errors.Is(err, errorNotEnoughArguments),
		errors.Is(err, errorTooManyArguments),
		errors.Is(err, errorUsage):
		return exitcode.UsageError
	case host.IsFatalError(err):
		return exitcode.FatalError
	}
	return exitcode.UncategorizedError
}

func resolveExitCode(err error) {
	os.Exit(exitCode(err))
}

// Main runs adbctl interpreting flags and commands out of os.Args
func Main() {
	if err := Root.Execute(); err != nil {
		if strings.HasPrefix(err.Error(), "unknown command") || strings.HasPrefix(err.Error(), "unknown flag") || strings.HasPrefix(err.Error(), "unknown shorthand flag") {
			_ = Root.Usage()
			log.Printf("Fatal error: %v", err)
			resolveExitCode(errorUsage)
		}
		log.Printf("Fatal error: %v", err)
		resolveExitCode(err)
	}
}
