// Package pull provides the pull command.
package pull

import (
	"context"
	"io"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/adbctl/adbctl/adb"
	"github.com/adbctl/adbctl/cmd"
	"github.com/adbctl/adbctl/host"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "pull REMOTE [LOCAL]",
	Short: `Copy a file from a device.`,
	Long: `Copy the file REMOTE from the selected device to LOCAL, which
defaults to the base name of REMOTE in the current directory. Use "-"
as LOCAL to write the file to standard output.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 2, command, args)
		local := path.Base(args[0])
		if len(args) > 1 {
			local = args[1]
		}
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
			if local == "-" {
				_, err = Pull(ctx, s, device, args[0], os.Stdout)
				return err
			}
			return pullFile(ctx, s, device, args[0], local)
		})
	},
}

// Pull copies remote on device to w
func Pull(ctx context.Context, s *adb.Session, device adb.DeviceSelector, remote string, w io.Writer) (int64, error) {
	n, err := s.DeviceServices().Pull(ctx, device, remote, w, s.InstallTimeout())
	if err != nil {
		return 0, err
	}
	host.Infof(device, "Pulled %q (%d bytes)", remote, n)
	return n, nil
}

// pullFile copies remote into the file local, removing it on failure
func pullFile(ctx context.Context, s *adb.Session, device adb.DeviceSelector, remote, local string) (err error) {
	f, err := os.Create(local)
	if err != nil {
		return errors.Wrap(err, "creating destination")
	}
	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = errors.Wrap(closeErr, "closing destination")
		}
		if err != nil {
			_ = os.Remove(local)
		}
	}()
	_, err = Pull(ctx, s, device, remote, f)
	return err
}
