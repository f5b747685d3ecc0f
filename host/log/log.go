// Package log sets up where adbctl's logs go
package log

import (
	"context"
	"io"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/adbctl/adbctl/host"
)

// Options contains options for controlling the logging
type Options struct {
	File   string // Log everything to this file
	Format string // Comma separated list of log format options
}

// DefaultOpt is the default values used for Opt
var DefaultOpt = Options{
	Format: "date,time",
}

// Opt is the options for the logger
var Opt = DefaultOpt

// flagsFromFormat turns the --log-format string into log flags
func flagsFromFormat(format string) (flags int, err error) {
	for _, part := range strings.Split(format, ",") {
		switch strings.TrimSpace(part) {
		case "":
		case "date":
			flags |= log.Ldate
		case "time":
			flags |= log.Ltime
		case "microseconds":
			flags |= log.Lmicroseconds
		case "UTC":
			flags |= log.LUTC
		case "longfile":
			flags |= log.Llongfile
		case "shortfile":
			flags |= log.Lshortfile
		default:
			return 0, errors.Errorf("unknown --log-format %q", part)
		}
	}
	return flags, nil
}

// InitLogging applies Opt and the JSON setting of the global config
// to the standard logger and logrus.
func InitLogging() error {
	flags, err := flagsFromFormat(Opt.Format)
	if err != nil {
		return err
	}
	log.SetFlags(flags)

	var out io.Writer = os.Stderr
	if Opt.File != "" {
		f, err := os.OpenFile(Opt.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
		if err != nil {
			return errors.Wrap(err, "failed to open log file")
		}
		_, err = f.Seek(0, io.SeekEnd)
		if err != nil {
			host.Errorf(nil, "Failed to seek log file to end: %v", err)
		}
		out = f
	}
	log.SetOutput(out)
	logrus.SetOutput(out)

	ci := host.GetConfig(context.Background())
	if ci.UseJSONLog {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(ci.LogLevel.Logrus())
	}
	return nil
}
