package configstruct_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/host/config/configmap"
	"github.com/adbctl/adbctl/host/config/configstruct"
)

type serial string

type serverConf struct {
	Host           string `config:"host"`
	Port           int
	StartServer    bool
	CommandTimeout host.Duration
	DefaultSerial  serial
	WriteLimit     uint
	ADBPath        string
}

func TestNames(t *testing.T) {
	_, err := configstruct.Names(nil)
	assert.EqualError(t, err, "argument must be a pointer")
	_, err = configstruct.Names(new(int))
	assert.EqualError(t, err, "argument must be a pointer to a struct")

	got, err := configstruct.Names(&serverConf{})
	require.NoError(t, err)
	assert.Equal(t, []string{"host", "port", "start_server", "command_timeout", "default_serial", "write_limit", "adb_path"}, got)
}

func TestSetUnchanged(t *testing.T) {
	c := &serverConf{Host: "localhost", Port: 5037}
	require.NoError(t, configstruct.Set(configmap.Simple{}, c))
	assert.Equal(t, &serverConf{Host: "localhost", Port: 5037}, c)
}

func TestSetFull(t *testing.T) {
	in := &serverConf{
		Host:           "localhost",
		Port:           5037,
		StartServer:    true,
		CommandTimeout: host.Duration(30 * time.Second),
	}
	m := configmap.Simple{
		"host":            "  10.0.2.2",
		"port":            " 5038 ",
		"start_server":    "FALSE",
		"command_timeout": "2m",
		"default_serial":  "R58M",
		"write_limit":     "0x4",
	}
	want := &serverConf{
		Host:           "  10.0.2.2",
		Port:           5038,
		StartServer:    false,
		CommandTimeout: host.Duration(2 * time.Minute),
		DefaultSerial:  "R58M",
		WriteLimit:     4,
	}
	require.NoError(t, configstruct.Set(m, in))
	assert.Equal(t, want, in)
}

func TestSetEmptyIsUnset(t *testing.T) {
	c := &serverConf{Port: 5037, Host: "localhost"}
	require.NoError(t, configstruct.Set(configmap.Simple{"port": "", "host": ""}, c))
	assert.Equal(t, 5037, c.Port)
	assert.Equal(t, "", c.Host)
}

func TestSetError(t *testing.T) {
	c := &serverConf{}
	err := configstruct.Set(configmap.Simple{"port": "fifty"}, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `couldn't parse config item "port" = "fifty" as int`)
}

func TestParse(t *testing.T) {
	for _, test := range []struct {
		in   string
		def  interface{}
		want interface{}
		err  bool
	}{
		{"", "", "", false},
		{"   spaced   ", "", "   spaced   ", false},
		{"123", 0, 123, false},
		{"0x123", 0, 0x123, false},
		{"1", false, true, false},
		{"7", false, nil, true},
		{"123x", int64(0), nil, true},
		{"300", uint8(0), nil, true},
		{"1s", host.Duration(0), host.Duration(time.Second), false},
		{"off", host.Duration(0), host.DurationOff, false},
		{"1potato", host.Duration(0), nil, true},
		{"abc", serial(""), serial("abc"), false},
		{"1.5", 1.0, nil, true},
	} {
		field := reflect.New(reflect.TypeOf(test.def)).Elem()
		err := configstruct.Parse(field, test.in)
		if test.err {
			assert.Error(t, err, test.in)
			continue
		}
		require.NoError(t, err, test.in)
		assert.Equal(t, test.want, field.Interface(), test.in)
	}
}
