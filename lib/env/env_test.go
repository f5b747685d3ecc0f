package env

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("EXPAND_TEST", "potato")
	for _, test := range []struct {
		in, want string
	}{
		{"", ""},
		{"~", filepath.FromSlash(home)},
		{filepath.FromSlash("~/dir/file.txt"), filepath.FromSlash(home + "/dir/file.txt")},
		{filepath.FromSlash("/dir/~/file.txt"), filepath.FromSlash("/dir/~/file.txt")},
		{filepath.FromSlash("~/${EXPAND_TEST}"), filepath.FromSlash(home + "/potato")},
	} {
		got := ShellExpand(test.in)
		assert.Equal(t, test.want, got, test.in)
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", filepath.FromSlash("/tmp/xdg"))
	assert.Equal(t, filepath.FromSlash("/tmp/xdg/adbctl"), ConfigDir())

	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Equal(t, "adbctl", filepath.Base(ConfigDir()))
	assert.Equal(t, ".config", filepath.Base(filepath.Dir(ConfigDir())))
}

func TestADBPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("adb.exe naming")
	}
	t.Setenv("ANDROID_HOME", "")
	t.Setenv("ANDROID_SDK_ROOT", "")
	assert.Equal(t, "adb", ADBPath())

	root := t.TempDir()
	tools := filepath.Join(root, "platform-tools")
	require.NoError(t, os.MkdirAll(tools, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tools, "adb"), []byte("#!/bin/sh\n"), 0755))
	t.Setenv("ANDROID_HOME", root)
	assert.Equal(t, filepath.Join(tools, "adb"), ADBPath())
}
