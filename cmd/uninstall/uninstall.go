// Package uninstall provides the uninstall command.
package uninstall

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/adbctl/adbctl/adb/pm"
	"github.com/adbctl/adbctl/cmd"
	"github.com/adbctl/adbctl/host/config/flags"
)

var (
	keepData = false
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	flags.BoolVarP(cmdFlags, &keepData, "keep-data", "k", false, "Keep the data and cache directories")
}

var commandDefinition = &cobra.Command{
	Use:   "uninstall PACKAGE",
	Short: `Remove a package from a device.`,
	Long: `Remove the package with the given application id from the selected
device. If the device refuses, its output is printed and the exit
code is 2.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
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
			c, err := pm.NewClient(ctx, s, device)
			if err != nil {
				return err
			}
			var pmFlags []string
			if keepData {
				pmFlags = append(pmFlags, "-k")
			}
			result, err := c.Uninstall(ctx, args[0], pmFlags)
			if err != nil {
				return err
			}
			return Report(result)
		})
	},
}

// Report prints a successful result and turns a refusal into an
// error for the exit code
func Report(result *pm.UninstallResult) error {
	if result.Status == pm.UninstallSuccess {
		fmt.Println(result.Output)
		return nil
	}
	return errors.Errorf("%s: %s", result.ErrorCode, strings.TrimSpace(result.Output))
}
