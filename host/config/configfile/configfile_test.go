package configfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configData = `[default]
host = 127.0.0.1
port = 5037

[lab]
host = 10.1.2.3
port = 5555
start_server = false
command_timeout = 2m
`

func writeConfig(t *testing.T, data string) string {
	path := filepath.Join(t.TempDir(), "adbctl.conf")
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	return path
}

func TestLoad(t *testing.T) {
	s := New(writeConfig(t, configData))
	require.NoError(t, s.Load())

	assert.Equal(t, []string{"default", "lab"}, s.GetSectionList())
	assert.True(t, s.HasSection("lab"))
	assert.False(t, s.HasSection("potato"))
	assert.Equal(t, []string{"host", "port", "start_server", "command_timeout"}, s.GetKeyList("lab"))

	value, found := s.GetValue("lab", "host")
	assert.True(t, found)
	assert.Equal(t, "10.1.2.3", value)

	_, found = s.GetValue("default", "command_timeout")
	assert.False(t, found)

	g := s.Section("lab")
	value, found = g.Get("command_timeout")
	assert.True(t, found)
	assert.Equal(t, "2m", value)
}

func TestLoadMissing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing.conf"))
	assert.Equal(t, ErrorConfigFileNotFound, s.Load())
	assert.False(t, s.HasSection("default"))
	_, found := s.Section("default").Get("host")
	assert.False(t, found)
}

func TestReloadOnChange(t *testing.T) {
	path := writeConfig(t, configData)
	s := New(path)
	require.NoError(t, s.Load())

	newData := configData + "\n[usb]\nhost = 192.168.1.9\n"
	require.NoError(t, os.WriteFile(path, []byte(newData), 0600))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.True(t, s.HasSection("usb"))
	value, _ := s.GetValue("usb", "host")
	assert.Equal(t, "192.168.1.9", value)
}
