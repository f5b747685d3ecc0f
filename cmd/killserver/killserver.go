// Package killserver provides the kill-server command.
package killserver

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/adbctl/adbctl/adb"
	"github.com/adbctl/adbctl/cmd"
	"github.com/adbctl/adbctl/host"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "kill-server",
	Short: `Stop the ADB server.`,
	Long: `Ask the ADB server to exit. It is not started first if it isn't
running.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			opt, err := cmd.Options(ctx)
			if err != nil {
				return err
			}
			opt.StartServer = false
			s, err := adb.NewSession(ctx, opt)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			if err := s.HostServices().Kill(ctx); err != nil {
				return err
			}
			host.Infof(opt, "Server killed")
			return nil
		})
	},
}
