package host

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Check it satisfies the interfaces
var (
	_ pflag.Value  = (*LogLevel)(nil)
	_ fmt.Stringer = LogValueItem{}
)

type withString struct{}

func (withString) String() string {
	return "hello"
}

func TestLogValue(t *testing.T) {
	x := LogValue("x", 1)
	assert.Equal(t, "1", x.String())
	x = LogValue("x", withString{})
	assert.Equal(t, "hello", x.String())
}

func TestLogLevelString(t *testing.T) {
	for _, test := range []struct {
		in   LogLevel
		want string
	}{
		{LogLevelError, "ERROR"},
		{LogLevelDebug, "DEBUG"},
		{99, "LogLevel(99)"},
	} {
		logLevel := test.in
		got := logLevel.String()
		assert.Equal(t, test.want, got, test.in)
	}
}

func TestLogLevelSet(t *testing.T) {
	for _, test := range []struct {
		in   string
		want LogLevel
		err  bool
	}{
		{"NOTICE", LogLevelNotice, false},
		{"notice", 100, true},
		{"DEBUG", LogLevelDebug, false},
		{"Potato", 100, true},
		{"", 100, true},
	} {
		logLevel := LogLevel(100)
		err := logLevel.Set(test.in)
		if test.err {
			require.Error(t, err, test.in)
		} else {
			require.NoError(t, err, test.in)
		}
		assert.Equal(t, test.want, logLevel, test.in)
	}
}

func TestLogLevelLogrus(t *testing.T) {
	assert.Equal(t, logrus.ErrorLevel, LogLevelError.Logrus())
	assert.Equal(t, logrus.WarnLevel, LogLevelNotice.Logrus())
	assert.Equal(t, logrus.InfoLevel, LogLevelInfo.Logrus())
	assert.Equal(t, logrus.DebugLevel, LogLevelDebug.Logrus())
}

func TestLogLevelPrintfFilters(t *testing.T) {
	oldPrint := LogPrint
	defer func() { LogPrint = oldPrint }()
	var got []string
	LogPrint = func(level LogLevel, text string) {
		got = append(got, fmt.Sprintf("%s %s", level, text))
	}

	oldLevel := globalConfig.LogLevel
	defer func() { globalConfig.LogLevel = oldLevel }()
	globalConfig.LogLevel = LogLevelInfo

	Debugf("emulator-5554", "hidden %d", 1)
	Infof("emulator-5554", "shown %d", 2)
	Errorf(nil, "no object")
	assert.Equal(t, []string{
		"INFO emulator-5554: shown 2",
		"ERROR no object",
	}, got)
}
