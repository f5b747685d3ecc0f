// Package env finds things adbctl needs from the user's environment
package env

import (
	"os"
	"path/filepath"
	"runtime"

	homedir "github.com/mitchellh/go-homedir"
)

// ShellExpand expands a leading "~" to the home directory, then any
// $VAR or ${VAR} in s.
func ShellExpand(s string) string {
	if s == "" {
		return s
	}
	if expanded, err := homedir.Expand(s); err == nil {
		s = expanded
	}
	return os.ExpandEnv(s)
}

// ConfigDir is where adbctl keeps its config file,
// $XDG_CONFIG_HOME/adbctl or ~/.config/adbctl.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "adbctl")
	}
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(".config", "adbctl")
	}
	return filepath.Join(home, ".config", "adbctl")
}

// ADBPath returns the adb binary of the SDK in $ANDROID_SDK_ROOT or
// $ANDROID_HOME, or plain "adb" to be found in $PATH.
func ADBPath() string {
	name := "adb"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	for _, v := range []string{"ANDROID_SDK_ROOT", "ANDROID_HOME"} {
		root := os.Getenv(v)
		if root == "" {
			continue
		}
		p := filepath.Join(ShellExpand(root), "platform-tools", name)
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p
		}
	}
	return name
}
