package devices

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adbctl/adbctl/adb"
)

func TestWriteShort(t *testing.T) {
	list := adb.ParseDeviceList("1234\tdevice\nemulator-5554\toffline\n", adb.ShortFormat)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, list, Format(false)))
	assert.Equal(t, "1234\tdevice\nemulator-5554\toffline\n", buf.String())
}

func TestWriteLong(t *testing.T) {
	list := adb.ParseDeviceList("1234 device usb:1-1 product:test1 model:test2 device:model zz:top transport_id:7\n", adb.LongFormat)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, list, Format(true)))
	assert.Equal(t, "1234                   device usb:1-1 product:test1 model:test2 device:model zz:top transport_id:7\n", buf.String())
}
