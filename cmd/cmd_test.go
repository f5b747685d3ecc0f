package cmd

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adbctl/adbctl/adb"
	"github.com/adbctl/adbctl/adb/pm"
	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/lib/exitcode"
)

func TestExitCode(t *testing.T) {
	for _, test := range []struct {
		err  error
		want int
	}{
		{nil, exitcode.Success},
		{errorNotEnoughArguments, exitcode.UsageError},
		{errorTooManyArguments, exitcode.UsageError},
		{errors.Wrap(errorUsage, "bad flag"), exitcode.UsageError},
		{host.FatalError(errors.New("no adb")), exitcode.FatalError},
		{errors.Wrap(host.FatalError(errors.New("no adb")), "connecting"), exitcode.FatalError},
		{&pm.InstallError{ErrorCode: "INSTALL_FAILED_OLDER_SDK"}, exitcode.UncategorizedError},
		{errors.New("boom"), exitcode.UncategorizedError},
		{&ExitStatusError{Code: 3}, 3},
		{errors.Wrap(&ExitStatusError{Code: 127}, "shell"), 127},
	} {
		assert.Equal(t, test.want, exitCode(test.err), "%v", test.err)
	}
}

func TestDeviceSelector(t *testing.T) {
	t.Setenv("ANDROID_SERIAL", "")
	sel, err := deviceSelector("", 0, false, false)
	require.NoError(t, err)
	assert.Equal(t, adb.Any(), sel)

	sel, err = deviceSelector("emulator-5554", 0, false, false)
	require.NoError(t, err)
	assert.Equal(t, adb.Serial("emulator-5554"), sel)

	sel, err = deviceSelector("", 3, false, false)
	require.NoError(t, err)
	assert.Equal(t, adb.TransportID(3), sel)

	sel, err = deviceSelector("", 0, true, false)
	require.NoError(t, err)
	assert.Equal(t, adb.USB(), sel)

	sel, err = deviceSelector("", 0, false, true)
	require.NoError(t, err)
	assert.Equal(t, adb.Local(), sel)

	_, err = deviceSelector("1234", 0, true, false)
	assert.Equal(t, exitcode.UsageError, exitCode(err))
	_, err = deviceSelector("", -1, false, false)
	assert.Equal(t, exitcode.UsageError, exitCode(err))

	t.Setenv("ANDROID_SERIAL", "from-env")
	sel, err = deviceSelector("", 0, false, false)
	require.NoError(t, err)
	assert.Equal(t, adb.Serial("from-env"), sel)
}

func TestOptionsFromFlags(t *testing.T) {
	t.Setenv("ANDROID_ADB_SERVER_PORT", "")
	oldHost, oldPort := serverHost, serverPort
	defer func() { serverHost, serverPort = oldHost, oldPort }()

	serverHost, serverPort = "", 0
	opt, err := Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, adb.DefaultPort, opt.Port)

	serverHost, serverPort = "10.1.1.1", 5038
	opt, err = Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10.1.1.1:5038", opt.Addr())

	serverPort = 70000
	_, err = Options(context.Background())
	assert.Equal(t, exitcode.UsageError, exitCode(err))
}
