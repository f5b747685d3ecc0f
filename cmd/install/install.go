// Package install provides the install command.
package install

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adbctl/adbctl/adb/pm"
	"github.com/adbctl/adbctl/cmd"
	"github.com/adbctl/adbctl/host/config/flags"
)

var (
	replace     = false
	allowTest   = false
	grantAll    = false
	extraOption []string
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	flags.BoolVarP(cmdFlags, &replace, "replace", "r", false, "Replace an existing application")
	flags.BoolVarP(cmdFlags, &allowTest, "allow-test", "t", false, "Allow test packages")
	flags.BoolVarP(cmdFlags, &grantAll, "grant", "g", false, "Grant all runtime permissions")
	flags.StringArrayVarP(cmdFlags, &extraOption, "option", "o", nil, "Extra option to pass to the package manager (repeat for more)")
}

var commandDefinition = &cobra.Command{
	Use:   "install APK...",
	Short: `Install a package on a device.`,
	Long: `Install the package made of the APKs given, the base APK with any
splits, on the selected device.

The APKs are written into a package manager install session, several
at once up to write_concurrency from the config file, then the
session is committed. Devices before API level 21 only accept a
single APK which is pushed to /data/local/tmp and installed with
"pm install".

If the device refuses the package the error code and message from
the package manager are printed, for example

    Failed to install: INSTALL_FAILED_VERSION_DOWNGRADE: INSTALL_FAILED_VERSION_DOWNGRADE: Downgrade detected
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, -1, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			apks := make([]*pm.APK, 0, len(args))
			for _, path := range args {
				apk, err := pm.OpenAPK(path)
				if err != nil {
					return err
				}
				apks = append(apks, apk)
			}
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
			if _, err := c.Install(ctx, apks, Options(replace, allowTest, grantAll, extraOption)); err != nil {
				return err
			}
			fmt.Println("Success")
			return nil
		})
	},
}

// Options turns the command line flags into package manager options
func Options(replace, allowTest, grantAll bool, extra []string) []string {
	var options []string
	if replace {
		options = append(options, "-r")
	}
	if allowTest {
		options = append(options, "-t")
	}
	if grantAll {
		options = append(options, "-g")
	}
	return append(options, extra...)
}
