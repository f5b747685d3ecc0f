// Package all imports all the commands
package all

import (
	// Active commands
	_ "github.com/adbctl/adbctl/cmd"
	_ "github.com/adbctl/adbctl/cmd/devices"
	_ "github.com/adbctl/adbctl/cmd/features"
	_ "github.com/adbctl/adbctl/cmd/forward"
	_ "github.com/adbctl/adbctl/cmd/install"
	_ "github.com/adbctl/adbctl/cmd/killserver"
	_ "github.com/adbctl/adbctl/cmd/pull"
	_ "github.com/adbctl/adbctl/cmd/reverse"
	_ "github.com/adbctl/adbctl/cmd/shell"
	_ "github.com/adbctl/adbctl/cmd/trackdevices"
	_ "github.com/adbctl/adbctl/cmd/trackjdwp"
	_ "github.com/adbctl/adbctl/cmd/uninstall"
	_ "github.com/adbctl/adbctl/cmd/version"
)
