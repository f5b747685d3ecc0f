// Package reverse provides the reverse command.
package reverse

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/adbctl/adbctl/cmd"
	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/host/config/flags"
)

var (
	list      = false
	noRebind  = false
	remove    = false
	removeAll = false
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	flags.BoolVarP(cmdFlags, &list, "list", "", false, "List the reverse forwards of the device")
	flags.BoolVarP(cmdFlags, &noRebind, "no-rebind", "", false, "Fail if REMOTE is already forwarded")
	flags.BoolVarP(cmdFlags, &remove, "remove", "", false, "Remove the reverse forward of REMOTE")
	flags.BoolVarP(cmdFlags, &removeAll, "remove-all", "", false, "Remove all the reverse forwards of the device")
}

var commandDefinition = &cobra.Command{
	Use:   "reverse [--list|--remove REMOTE|--remove-all|REMOTE LOCAL]",
	Short: `Forward connections from a device to the host.`,
	Long: `Make the selected device listen on REMOTE, such as tcp:8081 or
localabstract:name, and forward every connection to LOCAL on the host.
Using tcp:0 as REMOTE picks a free device port which is printed.
`,
	Run: func(command *cobra.Command, args []string) {
		switch {
		case list, removeAll:
			cmd.CheckArgs(0, 0, command, args)
		case remove:
			cmd.CheckArgs(1, 1, command, args)
		default:
			cmd.CheckArgs(2, 2, command, args)
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
			ds := s.DeviceServices()
			switch {
			case list:
				reverses, err := ds.ReverseListForward(ctx, device)
				if err != nil {
					return err
				}
				for _, e := range reverses.Errors {
					host.Errorf(device, "Ignoring reverse forward line: %v", e)
				}
				for _, r := range reverses.Entries {
					fmt.Printf("%s %s %s\n", r.Transport, r.Remote, r.Local)
				}
				return nil
			case removeAll:
				return ds.ReverseKillForwardAll(ctx, device)
			case remove:
				return errors.Wrapf(ds.ReverseKillForward(ctx, device, args[0]), "removing reverse forward of %s", args[0])
			}
			port, err := ds.ReverseForward(ctx, device, args[0], args[1], !noRebind)
			if err != nil {
				return err
			}
			if port != "" {
				fmt.Println(port)
			}
			return nil
		})
	},
}
