// Talk to the ADB server to manage Android devices
package main

import (
	"github.com/adbctl/adbctl/cmd"
	_ "github.com/adbctl/adbctl/cmd/all" // import all commands
)

func main() {
	cmd.Main()
}
