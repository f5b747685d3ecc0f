// Package shell provides the shell command.
package shell

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adbctl/adbctl/adb"
	"github.com/adbctl/adbctl/cmd"
	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/host/config/flags"
)

var (
	sendStdin = false
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.SetInterspersed(false)
	flags.BoolVarP(cmdFlags, &sendStdin, "stdin", "i", false, "Send standard input to the command")
}

var commandDefinition = &cobra.Command{
	Use:   "shell COMMAND [ARG]...",
	Short: `Run a command on a device.`,
	Long: `Run a command on the selected device and print its output.

If the device supports the shell_v2 feature stdout and stderr are kept
apart and the exit code of the command is returned. Otherwise the
legacy shell is used which merges them and loses the exit code.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, -1, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			device, err := cmd.Device()
			if err != nil {
				return err
			}
			s, err := cmd.NewSession(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			var stdin io.Reader
			if sendStdin {
				stdin = os.Stdin
			}
			return run(ctx, s, device, strings.Join(args, " "), stdin, os.Stdout, os.Stderr)
		})
	},
}

// run is Shell returning a non zero exit status as a
// *cmd.ExitStatusError so adbctl exits with it
func run(ctx context.Context, s *adb.Session, device adb.DeviceSelector, command string, stdin io.Reader, stdout, stderr io.Writer) error {
	code, err := Shell(ctx, s, device, command, stdin, stdout, stderr)
	if err != nil {
		return err
	}
	if code != 0 {
		return &cmd.ExitStatusError{Code: code}
	}
	return nil
}

// Shell runs command on device writing its output to stdout and
// stderr and returns its exit code, which is always 0 with the
// legacy shell
func Shell(ctx context.Context, s *adb.Session, device adb.DeviceSelector, command string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	ds := s.DeviceServices()
	timeout := s.CommandTimeout()
	v2, err := s.HostServices().HasFeature(ctx, device, "shell_v2")
	if err != nil {
		return 0, err
	}
	if !v2 {
		host.Debugf(device, "No shell_v2 - using the legacy shell")
		if stdin != nil {
			out, err := ds.Exec(ctx, device, command, stdin, timeout)
			if err != nil {
				return 0, err
			}
			_, err = stdout.Write(out)
			return 0, err
		}
		out, err := ds.Shell(ctx, device, command, timeout)
		if err != nil {
			return 0, err
		}
		_, err = stdout.Write(out)
		return 0, err
	}
	out, err := ds.ShellV2(ctx, device, command, stdin, timeout)
	if err != nil {
		return 0, err
	}
	if _, err := stdout.Write(out.Stdout); err != nil {
		return 0, err
	}
	if _, err := stderr.Write(out.Stderr); err != nil {
		return 0, err
	}
	return out.ExitCode, nil
}
