package pm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	for _, test := range []struct {
		in   string
		want string
	}{
		{"who does that.apk", "who_does_that.apk"},
		{"this'is\"a!bizar(name_.ap)k", "this_is_a_bizar_name_.ap_k"},
		{"A_file_Name-.apk", "A_file_Name-.apk"},
		{"split/config.xxhdpi.apk", "split_config.xxhdpi.apk"},
		{"café.apk", "caf_.apk"},
		{"", ""},
	} {
		got := SanitizeFilename(test.in)
		assert.Equal(t, test.want, got, test.in)
		assert.Equal(t, got, SanitizeFilename(got), "not idempotent for %q", test.in)
	}
}

func TestParseFailure(t *testing.T) {
	for _, test := range []struct {
		in      string
		code    string
		message string
		ok      bool
	}{
		{"Failure [INSTALL_ERROR_DESC]", "INSTALL_ERROR_DESC", "INSTALL_ERROR_DESC", true},
		{"Failure [INSTALL_ERROR_DESC: oups i failed]", "INSTALL_ERROR_DESC", "INSTALL_ERROR_DESC: oups i failed", true},
		{"Failure [A: b: c]\r\n", "A", "A: b: c", true},
		{"Failure []", "", "", true},
		{"Failure [no end", "", "", false},
		{"Success", "", "", false},
		{"", "", "", false},
	} {
		code, message, ok := parseFailure(test.in)
		assert.Equal(t, test.ok, ok, test.in)
		assert.Equal(t, test.code, code, test.in)
		assert.Equal(t, test.message, message, test.in)
	}
}

func TestParseInstallResultSuccess(t *testing.T) {
	for _, in := range []string{"", "Success", "Success\n", "Success\r\n", "\n"} {
		result, err := ParseInstallResult(in)
		require.NoError(t, err, "%q", in)
		assert.Equal(t, in, result.Output)
	}
}

func TestParseInstallResultFailureWithMessage(t *testing.T) {
	_, err := ParseInstallResult("Failure [INSTALL_ERROR_DESC: oups i failed]")
	require.Error(t, err)
	ie, ok := err.(*InstallError)
	require.True(t, ok, "got %T", err)
	assert.Equal(t, "INSTALL_ERROR_DESC", ie.ErrorCode)
	assert.Equal(t, "INSTALL_ERROR_DESC: oups i failed", ie.ErrorMessage)
	assert.Equal(t, "install failed: INSTALL_ERROR_DESC: oups i failed (INSTALL_ERROR_DESC)", ie.Error())
}

func TestParseInstallResultFailureWithoutMessage(t *testing.T) {
	_, err := ParseInstallResult("Failure [INSTALL_ERROR_DESC]\n")
	ie, ok := err.(*InstallError)
	require.True(t, ok, "got %T", err)
	assert.Equal(t, "INSTALL_ERROR_DESC", ie.ErrorCode)
	assert.Equal(t, "INSTALL_ERROR_DESC", ie.ErrorMessage)
	assert.Equal(t, "install failed: INSTALL_ERROR_DESC", ie.Error())
}

func TestParseInstallResultUnknown(t *testing.T) {
	_, err := ParseInstallResult("Exception occurred while executing 'install-commit'\n")
	ie, ok := err.(*InstallError)
	require.True(t, ok, "got %T", err)
	assert.Equal(t, ErrorCodeUnknown, ie.ErrorCode)
	assert.Equal(t, "Exception occurred while executing 'install-commit'", ie.ErrorMessage)
	assert.Equal(t, "Exception occurred while executing 'install-commit'\n", ie.Output)
}

func TestParseSessionID(t *testing.T) {
	id, err := ParseSessionID("Success: created install session [1741914381]\n")
	require.NoError(t, err)
	assert.Equal(t, "1741914381", id)

	id, err = ParseSessionID("Success: created install session [42]")
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	_, err = ParseSessionID("Failure [INSTALL_FAILED_INSUFFICIENT_STORAGE: no room]\n")
	ie, ok := err.(*InstallError)
	require.True(t, ok, "got %T", err)
	assert.Equal(t, "INSTALL_FAILED_INSUFFICIENT_STORAGE", ie.ErrorCode)
	assert.Equal(t, "INSTALL_FAILED_INSUFFICIENT_STORAGE: no room", ie.ErrorMessage)

	for _, in := range []string{"", "Success", "Success: created install session []"} {
		_, err = ParseSessionID(in)
		ie, ok = err.(*InstallError)
		require.True(t, ok, "%q: got %T", in, err)
		assert.Equal(t, ErrorCodeUnknown, ie.ErrorCode)
	}
}

func TestParseWriteResult(t *testing.T) {
	assert.NoError(t, parseWriteResult(""))
	assert.NoError(t, parseWriteResult("Success: streamed 1234 bytes\n"))
	assert.NoError(t, parseWriteResult("Success\n"))
	err := parseWriteResult("Failure [INSTALL_FAILED_INVALID_APK: split name]\n")
	ie, ok := err.(*InstallError)
	require.True(t, ok, "got %T", err)
	assert.Equal(t, "INSTALL_FAILED_INVALID_APK", ie.ErrorCode)
	assert.Error(t, parseWriteResult("Successful"))
}

func TestParseLegacyInstallResult(t *testing.T) {
	_, err := parseLegacyInstallResult("\tpkg: /data/local/tmp/a.apk\r\nSuccess\r\n")
	require.NoError(t, err)
	_, err = parseLegacyInstallResult("\tpkg: /data/local/tmp/a.apk\nFailure [INSTALL_FAILED_OLDER_SDK]\n")
	ie, ok := err.(*InstallError)
	require.True(t, ok, "got %T", err)
	assert.Equal(t, "INSTALL_FAILED_OLDER_SDK", ie.ErrorCode)
	_, err = parseLegacyInstallResult("")
	assert.Error(t, err)
}

func TestParseUninstallResult(t *testing.T) {
	result := ParseUninstallResult("Success")
	assert.Equal(t, UninstallSuccess, result.Status)
	assert.Equal(t, "Success", result.Output)

	result = ParseUninstallResult("Success\n")
	assert.Equal(t, UninstallSuccess, result.Status)
	assert.Equal(t, "Success", result.Output)

	result = ParseUninstallResult("Failure [DELETE_FAILED_INTERNAL_ERROR]\n")
	assert.Equal(t, UninstallFailure, result.Status)
	assert.Equal(t, "Failure [DELETE_FAILED_INTERNAL_ERROR]\n", result.Output)
	assert.Equal(t, "DELETE_FAILED_INTERNAL_ERROR", result.ErrorCode)
	assert.Equal(t, "DELETE_FAILED_INTERNAL_ERROR", result.ErrorMessage)

	result = ParseUninstallResult("Unknown package: com.example\n")
	assert.Equal(t, UninstallFailure, result.Status)
	assert.Equal(t, ErrorCodeUnknown, result.ErrorCode)
	assert.Equal(t, "Unknown package: com.example\n", result.Output)
	assert.Equal(t, "failure", result.Status.String())
}

func TestInstallSessionStates(t *testing.T) {
	is := newInstallSession()
	assert.Equal(t, StateCreated, is.State())
	assert.ErrorIs(t, is.check("write to", StateSessionOpen, StateWriting), ErrInvalidSessionState)

	is.open("7")
	assert.Equal(t, StateSessionOpen, is.State())
	assert.NoError(t, is.check("write to", StateSessionOpen, StateWriting))
	assert.Equal(t, "install session 7", is.String())

	is.set(StateWriting)
	is.set(StateWriting)
	assert.Equal(t, StateWriting, is.State())
	assert.Equal(t, 2, is.Writes())

	is.set(StateCommitted)
	assert.True(t, is.State().Terminal())
	is.set(StateFailed)
	assert.Equal(t, StateCommitted, is.State())
	err := is.check("commit", StateSessionOpen, StateWriting)
	assert.ErrorIs(t, err, ErrInvalidSessionState)
	assert.Contains(t, err.Error(), "state committed")
	assert.Equal(t, "invalid", SessionState(99).String())
}

func TestCommandLine(t *testing.T) {
	assert.Equal(t, "pm install -r /data/local/tmp/a.apk", commandLine("pm", []string{"install", "-r", "/data/local/tmp/a.apk"}))
	assert.Equal(t, `cmd package install-write 'my file' '' 'it'\''s'`, commandLine("cmd package", []string{"install-write", "my file", "", "it's"}))
}
