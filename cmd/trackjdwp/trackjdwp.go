// Package trackjdwp provides the track-jdwp command.
package trackjdwp

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adbctl/adbctl/adb"
	"github.com/adbctl/adbctl/cmd"
	"github.com/adbctl/adbctl/host"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "track-jdwp",
	Short: `Print the debuggable processes of a device as they change.`,
	Long: `Print the process ids of the processes of the selected device which
can be debugged with JDWP, one space separated list per line, every
time one starts or exits. It runs until interrupted or the device
goes away.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()
			device, err := cmd.Device()
			if err != nil {
				return err
			}
			s, err := cmd.NewSession(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			err = Track(ctx, s.DeviceServices(), device, os.Stdout)
			if ctx.Err() != nil {
				return nil
			}
			return err
		})
	},
}

// Track writes the pid list of device to w every time it changes
func Track(ctx context.Context, ds *adb.DeviceServices, device adb.DeviceSelector, w io.Writer) error {
	tr := ds.TrackJdwp(ctx, device)
	defer func() { _ = tr.Close() }()
	for tr.Next() {
		list := tr.Value()
		for _, e := range list.Errors {
			host.Errorf(device, "Ignoring process id line: %v", e)
		}
		pids := make([]string, len(list.PIDs))
		for i, pid := range list.PIDs {
			pids[i] = strconv.Itoa(pid)
		}
		if _, err := fmt.Fprintln(w, strings.Join(pids, " ")); err != nil {
			return err
		}
	}
	return tr.Err()
}
