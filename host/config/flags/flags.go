// Package flags defines pflag flags whose default can be overridden
// with an ADBCTL_<FLAG> environment variable, eg ADBCTL_SERIAL for
// --serial.
package flags

import (
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/adbctl/adbctl/host"
)

// applyEnv sets --name from its environment variable if there is one.
// The value also becomes the default shown in the help.
func applyEnv(fs *pflag.FlagSet, name string) error {
	key := host.OptionToEnv(name)
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	flag := fs.Lookup(name)
	if flag == nil {
		return errors.Errorf("no flag --%s", name)
	}
	if err := fs.Set(name, value); err != nil {
		// pflag values are overwritten even when parsing fails
		_ = flag.Value.Set(flag.DefValue)
		return errors.Wrapf(err, "invalid %s=%q for --%s", key, value, name)
	}
	flag.DefValue = value
	host.Debugf(nil, "--%s set to %q from %s", name, value, key)
	return nil
}

// env is applyEnv for flags defined at init time, where the only
// thing to do with a bad value is stop.
func env(fs *pflag.FlagSet, name string) {
	if err := applyEnv(fs, name); err != nil {
		log.Fatal(err)
	}
}

// StringVarP is pflag.StringVarP reading ADBCTL_<NAME>
func StringVarP(fs *pflag.FlagSet, p *string, name, shorthand string, value string, usage string) {
	fs.StringVarP(p, name, shorthand, value, usage)
	env(fs, name)
}

// BoolVarP is pflag.BoolVarP reading ADBCTL_<NAME>
func BoolVarP(fs *pflag.FlagSet, p *bool, name, shorthand string, value bool, usage string) {
	fs.BoolVarP(p, name, shorthand, value, usage)
	env(fs, name)
}

// IntVarP is pflag.IntVarP reading ADBCTL_<NAME>
func IntVarP(fs *pflag.FlagSet, p *int, name, shorthand string, value int, usage string) {
	fs.IntVarP(p, name, shorthand, value, usage)
	env(fs, name)
}

// DurationVarP is pflag.DurationVarP reading ADBCTL_<NAME>
func DurationVarP(fs *pflag.FlagSet, p *time.Duration, name, shorthand string, value time.Duration, usage string) {
	fs.DurationVarP(p, name, shorthand, value, usage)
	env(fs, name)
}

// StringArrayVarP is pflag.StringArrayVarP reading ADBCTL_<NAME>. The
// environment can only supply one value.
func StringArrayVarP(fs *pflag.FlagSet, p *[]string, name, shorthand string, value []string, usage string) {
	fs.StringArrayVarP(p, name, shorthand, value, usage)
	env(fs, name)
}

// FVarP is pflag.VarP reading ADBCTL_<NAME>
func FVarP(fs *pflag.FlagSet, value pflag.Value, name, shorthand, usage string) {
	fs.VarP(value, name, shorthand, usage)
	env(fs, name)
}

// CountVarP is pflag.CountVarP reading ADBCTL_<NAME>
func CountVarP(fs *pflag.FlagSet, p *int, name, shorthand string, usage string) {
	fs.CountVarP(p, name, shorthand, usage)
	env(fs, name)
}
