// Package devices provides the devices command.
package devices

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adbctl/adbctl/adb"
	"github.com/adbctl/adbctl/cmd"
	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/host/config/flags"
)

var (
	long = false
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	flags.BoolVarP(cmdFlags, &long, "long", "l", false, "Show the device qualifiers")
}

var commandDefinition = &cobra.Command{
	Use:   "devices",
	Short: `List the connected devices.`,
	Long: `List the devices the ADB server knows about with their state.

With -l the product, model, device, USB path and transport id are
shown as key:value pairs after the state, as "adb devices -l" does.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			s, err := cmd.NewSession(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			format := Format(long)
			list, err := s.HostServices().Devices(ctx, format)
			if err != nil {
				return err
			}
			fmt.Println("List of devices attached")
			return Write(os.Stdout, list, format)
		})
	},
}

// Format returns the list format for the -l flag
func Format(long bool) adb.DeviceFormat {
	if long {
		return adb.LongFormat
	}
	return adb.ShortFormat
}

// Write writes list to w one device per line, logging any lines the
// server sent which couldn't be parsed
func Write(w io.Writer, list *adb.DeviceList, format adb.DeviceFormat) error {
	for _, e := range list.Errors {
		host.Errorf(nil, "Ignoring device line: %v", e)
	}
	for _, d := range list.Devices {
		var err error
		if format == adb.LongFormat {
			_, err = fmt.Fprintf(w, "%-22s %s%s\n", d.Serial, d.StateText, qualifiers(d))
		} else {
			_, err = fmt.Fprintf(w, "%s\t%s\n", d.Serial, d.StateText)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// qualifiers returns the key:value fields of d each preceded by a space
func qualifiers(d adb.DeviceInfo) string {
	var b strings.Builder
	add := func(key, value string) {
		if value != "" {
			b.WriteString(" " + key + ":" + value)
		}
	}
	add("usb", d.USB)
	add("product", d.Product)
	add("model", d.Model)
	add("device", d.Device)
	keys := make([]string, 0, len(d.Extra))
	for k := range d.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k, d.Extra[k])
	}
	add("transport_id", d.TransportID)
	return b.String()
}
