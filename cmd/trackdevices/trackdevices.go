// Package trackdevices provides the track-devices command.
package trackdevices

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/adbctl/adbctl/adb"
	"github.com/adbctl/adbctl/cmd"
	"github.com/adbctl/adbctl/cmd/devices"
	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/host/config/flags"
)

var (
	long           = false
	reconnect      = false
	reconnectDelay = 2 * time.Second
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	flags.BoolVarP(cmdFlags, &long, "long", "l", false, "Show the device qualifiers")
	flags.BoolVarP(cmdFlags, &reconnect, "reconnect", "", false, "Start tracking again when the server goes away")
	flags.DurationVarP(cmdFlags, &reconnectDelay, "reconnect-delay", "", reconnectDelay, "Minimum time between reconnects")
}

var commandDefinition = &cobra.Command{
	Use:   "track-devices",
	Short: `Print the device list every time it changes.`,
	Long: `Print the device list when started then every time a device is
connected, disconnected or changes state. Each list is preceded by a
line with the time it was received.

It runs until interrupted. If the server goes away it stops unless
--reconnect is given, in which case it connects again no more often
than every --reconnect-delay.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()
			s, err := cmd.NewSession(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			var limiter *rate.Limiter
			if reconnect {
				limiter = rate.NewLimiter(rate.Every(reconnectDelay), 1)
			}
			return Track(ctx, s.HostServices(), devices.Format(long), limiter, os.Stdout)
		})
	},
}

// Track prints every device list snapshot to w until ctx is done.
//
// If limiter is nil it returns when the server closes the channel,
// otherwise it waits on limiter and tracks again.
func Track(ctx context.Context, hs *adb.HostServices, format adb.DeviceFormat, limiter *rate.Limiter, w io.Writer) error {
	for {
		err := trackOnce(ctx, hs, format, w)
		if ctx.Err() != nil {
			return nil
		}
		if limiter == nil {
			return err
		}
		if err != nil {
			host.Errorf(nil, "Tracking devices failed: %v", err)
		} else {
			host.Infof(nil, "Server closed the device tracker")
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
		host.Debugf(nil, "Reconnecting device tracker")
	}
}

func trackOnce(ctx context.Context, hs *adb.HostServices, format adb.DeviceFormat, w io.Writer) error {
	tr := hs.TrackDevices(ctx, format)
	defer func() { _ = tr.Close() }()
	for tr.Next() {
		_, err := fmt.Fprintf(w, "--- %s\n", time.Now().Format(time.RFC3339))
		if err != nil {
			return err
		}
		if err := devices.Write(w, tr.Value(), format); err != nil {
			return err
		}
	}
	return tr.Err()
}
