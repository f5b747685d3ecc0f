package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adbctl/adbctl/host"
)

func TestFlagsFromFormat(t *testing.T) {
	for _, test := range []struct {
		in   string
		want int
		err  bool
	}{
		{"", 0, false},
		{"date,time", log.Ldate | log.Ltime, false},
		{"date, time ,UTC", log.Ldate | log.Ltime | log.LUTC, false},
		{"microseconds,shortfile", log.Lmicroseconds | log.Lshortfile, false},
		{"potato", 0, true},
	} {
		got, err := flagsFromFormat(test.in)
		if test.err {
			assert.Error(t, err, test.in)
			continue
		}
		require.NoError(t, err, test.in)
		assert.Equal(t, test.want, got, test.in)
	}
}

func TestInitLoggingFile(t *testing.T) {
	defer func() {
		Opt = DefaultOpt
		log.SetOutput(os.Stderr)
		logrus.SetOutput(os.Stderr)
	}()
	Opt.File = filepath.Join(t.TempDir(), "adbctl.log")
	require.NoError(t, InitLogging())
	host.Logf("emulator-5554", "device is %s", "online")

	data, err := os.ReadFile(Opt.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "NOTICE: emulator-5554: device is online")
}

func TestJSONLog(t *testing.T) {
	ci := host.GetConfig(context.Background())
	old := *ci
	defer func() {
		*ci = old
		logrus.SetFormatter(&logrus.TextFormatter{})
		logrus.SetOutput(os.Stderr)
		log.SetOutput(os.Stderr)
	}()
	ci.UseJSONLog = true
	require.NoError(t, InitLogging())

	var buf bytes.Buffer
	logrus.SetOutput(&buf)
	host.Logf("emulator-5554", "state %v", host.LogValue("state", "device"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "state device", entry["msg"])
	assert.Equal(t, "device", entry["state"])
	assert.Equal(t, "emulator-5554", entry["object"])
	assert.Equal(t, "string", entry["objectType"])
}
