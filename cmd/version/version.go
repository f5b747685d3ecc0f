// Package version provides the version command.
package version

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/coreos/go-semver/semver"
	"github.com/spf13/cobra"

	"github.com/adbctl/adbctl/cmd"
	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/host/config/flags"
)

var (
	check = false
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	flags.BoolVarP(cmdFlags, &check, "check", "", false, "Compare the protocol version of the ADB server with adbctl's")
}

var commandDefinition = &cobra.Command{
	Use:   "version",
	Short: `Show the version number.`,
	Long: `Show the adbctl version number, the ADB protocol revision it speaks,
the go version, the build target OS and architecture and the runtime
OS and kernel version.

If you supply the --check flag, then it will ask the ADB server for
its protocol revision and compare it with adbctl's.

    $ adbctl version --check
    client: 1.0.41
    server: 1.0.40
      server is older than adbctl, restart it with a newer adb

`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		if !check {
			cmd.ShowVersion()
			return
		}
		cmd.Run(command, func(ctx context.Context) error {
			s, err := cmd.NewSession(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			server, err := s.HostServices().Version(ctx)
			if err != nil {
				return err
			}
			CheckVersion(os.Stdout, server)
			return nil
		})
	},
}

// ProtocolVersion is the version an ADB server reports for protocol
// revision n, e.g. 1.0.41
func ProtocolVersion(n int) *semver.Version {
	return &semver.Version{Major: 1, Minor: 0, Patch: int64(n)}
}

// CheckVersion prints the client and server protocol versions and
// which of them is out of date
func CheckVersion(w io.Writer, server int) {
	vClient := ProtocolVersion(host.ClientProtocolVersion)
	vServer := ProtocolVersion(server)
	_, _ = fmt.Fprintf(w, "client: %s\n", vClient)
	_, _ = fmt.Fprintf(w, "server: %s\n", vServer)
	switch vServer.Compare(*vClient) {
	case -1:
		_, _ = fmt.Fprintf(w, "  server is older than adbctl, restart it with a newer adb\n")
	case 1:
		_, _ = fmt.Fprintf(w, "  server is newer than adbctl, some services may not be understood\n")
	}
}
