// Package config finds and reads the adbctl config file
package config

import (
	"os"
	"path/filepath"

	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/host/config/configfile"
	"github.com/adbctl/adbctl/host/config/configmap"
	"github.com/adbctl/adbctl/lib/env"
)

const configFileName = "adbctl.conf"

var (
	// ConfigPath is the path to the config file
	ConfigPath = makeConfigPath()

	// ServerName is the section of the config file to use
	ServerName = "default"

	// Data is the loaded config file
	Data = configfile.New("")
)

// makeConfigPath returns the default config file location
func makeConfigPath() string {
	return filepath.Join(env.ConfigDir(), configFileName)
}

// LoadConfig loads the config file at ConfigPath. A missing file is
// not an error, every option then keeps its default.
func LoadConfig() error {
	Data = configfile.New(env.ShellExpand(ConfigPath))
	err := Data.Load()
	if err == configfile.ErrorConfigFileNotFound {
		host.Debugf(nil, "Config file %q not found - using defaults", Data.Path())
		return nil
	}
	if err != nil {
		return err
	}
	host.Debugf(nil, "Using config file from %q", Data.Path())
	host.ConfigFileGet = Data.GetValue
	return nil
}

// envGetter reads ADBCTL_CONFIG_<SECTION>_<KEY>
type envGetter string

// Get implements configmap.Getter
func (section envGetter) Get(key string) (string, bool) {
	return os.LookupEnv(host.ConfigToEnv(string(section), key))
}

// ServerConfig returns the settings of the named server profile with
// environment variables taking precedence over the config file.
func ServerConfig(name string) configmap.Getter {
	return configmap.Layers{envGetter(name), Data.Section(name)}
}
