package host

import (
	"context"
	"fmt"
	"log"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LogLevel says how much adbctl logs. -q, -v and -vv move it from the
// default of LogLevelNotice.
type LogLevel byte

// Log levels, most important first
const (
	LogLevelError  LogLevel = iota // Always shown
	LogLevelNotice                 // Default, -q suppresses
	LogLevelInfo                   // Device and install progress, needs -v
	LogLevelDebug                  // Wire level traffic, needs -vv
)

var logLevelNames = [...]string{
	LogLevelError:  "ERROR",
	LogLevelNotice: "NOTICE",
	LogLevelInfo:   "INFO",
	LogLevelDebug:  "DEBUG",
}

func (l LogLevel) String() string {
	if int(l) >= len(logLevelNames) {
		return fmt.Sprintf("LogLevel(%d)", l)
	}
	return logLevelNames[l]
}

// Set parses one of the level names, as used by --log-level
func (l *LogLevel) Set(s string) error {
	for i, name := range logLevelNames {
		if name == s {
			*l = LogLevel(i)
			return nil
		}
	}
	return errors.Errorf("unknown log level %q", s)
}

// Type of the value for pflag
func (l *LogLevel) Type() string {
	return "string"
}

// Logrus returns the logrus level used for l in JSON logs
func (l LogLevel) Logrus() logrus.Level {
	switch l {
	case LogLevelError:
		return logrus.ErrorLevel
	case LogLevelNotice:
		return logrus.WarnLevel
	case LogLevelInfo:
		return logrus.InfoLevel
	}
	return logrus.DebugLevel
}

// LogPrint writes a text log line. Tests replace it to capture output.
var LogPrint = func(level LogLevel, text string) {
	_ = log.Output(4, fmt.Sprintf("%-6s: %s", level, text))
}

// LogValueItem is a key and value which is added as a field to JSON
// log entries and printed as the value in text logs.
type LogValueItem struct {
	key   string
	value interface{}
}

// LogValue wraps value so it can be passed as a logging argument and
// end up as the field key in JSON logs, eg
//
//	host.Infof(d, "state %v", host.LogValue("state", st))
func LogValue(key string, value interface{}) LogValueItem {
	return LogValueItem{key: key, value: value}
}

func (item LogValueItem) String() string {
	if s, ok := item.value.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(item.value)
}

// LogPrintf logs text about o at level, whatever the configured level
func LogPrintf(level LogLevel, o interface{}, text string, args ...interface{}) {
	out := fmt.Sprintf(text, args...)
	if !GetConfig(context.TODO()).UseJSONLog {
		if o != nil {
			out = fmt.Sprintf("%v: %s", o, out)
		}
		LogPrint(level, out)
		return
	}
	fields := logrus.Fields{}
	if o != nil {
		fields["object"] = fmt.Sprintf("%+v", o)
		fields["objectType"] = fmt.Sprintf("%T", o)
	}
	for _, arg := range args {
		if item, ok := arg.(LogValueItem); ok {
			fields[item.key] = item.value
		}
	}
	logrus.WithFields(fields).Log(level.Logrus(), out)
}

// LogLevelPrintf logs text about o if level is enabled
func LogLevelPrintf(level LogLevel, o interface{}, text string, args ...interface{}) {
	if GetConfig(context.TODO()).LogLevel >= level {
		LogPrintf(level, o, text, args...)
	}
}

// Errorf logs an error about o. It can't be suppressed.
func Errorf(o interface{}, text string, args ...interface{}) {
	LogLevelPrintf(LogLevelError, o, text, args...)
}

// Logf logs something the user should see about o
func Logf(o interface{}, text string, args ...interface{}) {
	LogLevelPrintf(LogLevelNotice, o, text, args...)
}

// Infof logs progress such as tracker snapshots and install steps
func Infof(o interface{}, text string, args ...interface{}) {
	LogLevelPrintf(LogLevelInfo, o, text, args...)
}

// Debugf logs protocol detail
func Debugf(o interface{}, text string, args ...interface{}) {
	LogLevelPrintf(LogLevelDebug, o, text, args...)
}
