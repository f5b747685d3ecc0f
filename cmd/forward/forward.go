// Package forward provides the forward command.
package forward

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
	flags.BoolVarP(cmdFlags, &list, "list", "", false, "List all forwards")
	flags.BoolVarP(cmdFlags, &noRebind, "no-rebind", "", false, "Fail if LOCAL is already forwarded")
	flags.BoolVarP(cmdFlags, &remove, "remove", "", false, "Remove the forward of LOCAL")
	flags.BoolVarP(cmdFlags, &removeAll, "remove-all", "", false, "Remove all the forwards of the device")
}

var commandDefinition = &cobra.Command{
	Use:   "forward [--list|--remove LOCAL|--remove-all|LOCAL REMOTE]",
	Short: `Forward connections from the host to a device.`,
	Long: `Forward connections to LOCAL, a host socket such as tcp:6100, to
REMOTE on the selected device, such as tcp:8700, localabstract:name
or jdwp:<pid>. Using tcp:0 as LOCAL picks a free port which is printed.
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
			s, err := cmd.NewSession(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			hs := s.HostServices()
			if list {
				forwards, err := hs.ListForward(ctx)
				if err != nil {
					return err
				}
				for _, e := range forwards.Errors {
					host.Errorf(nil, "Ignoring forward line: %v", e)
				}
				for _, f := range forwards.Entries {
					fmt.Printf("%s %s %s\n", f.Serial, f.Local, f.Remote)
				}
				return nil
			}
			device, err := cmd.Device()
			if err != nil {
				return err
			}
			switch {
			case removeAll:
				return hs.KillForwardAll(ctx, device)
			case remove:
				return errors.Wrapf(hs.KillForward(ctx, device, args[0]), "removing forward of %s", args[0])
			}
			port, err := hs.Forward(ctx, device, args[0], args[1], !noRebind)
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
