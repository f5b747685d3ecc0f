// Package features provides the features command.
package features

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adbctl/adbctl/cmd"
	"github.com/adbctl/adbctl/host/config/flags"
)

var (
	hostOnly = false
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	flags.BoolVarP(cmdFlags, &hostOnly, "host-only", "", false, "Show the features of the server rather than a device")
}

var commandDefinition = &cobra.Command{
	Use:   "features",
	Short: `List the features available for a device.`,
	Long: `List, one per line, the features both the ADB server and the selected
device support. These decide which services can be used, for example
"shell_v2" for separate stdout and stderr or "abb_exec" for fast
package installs.

With --host-only the features of the server alone are listed.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			s, err := cmd.NewSession(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			var features []string
			if hostOnly {
				features, err = s.HostServices().HostFeatures(ctx)
			} else {
				device, derr := cmd.Device()
				if derr != nil {
					return derr
				}
				features, err = s.HostServices().AvailableFeatures(ctx, device)
			}
			if err != nil {
				return err
			}
			for _, f := range features {
				fmt.Println(f)
			}
			return nil
		})
	},
}
