package adb_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adbctl/adbctl/adb"
	"github.com/adbctl/adbctl/wire"
)

func TestReverseForward(t *testing.T) {
	srv, s := newTestSession(t)
	d := addTestDevice(srv)
	ctx := context.Background()
	ds := s.DeviceServices()
	dev := adb.Serial("1234")

	port, err := ds.ReverseForward(ctx, dev, "tcp:0", "tcp:8081", false)
	require.NoError(t, err)
	assert.NotEmpty(t, port)
	assert.Contains(t, srv.Requests(), "reverse:forward:norebind:tcp:0;tcp:8081")

	// norebind on a forwarded socket fails
	_, err = ds.ReverseForward(ctx, dev, "tcp:"+port, "tcp:8082", false)
	var failErr *wire.FailResponseError
	require.True(t, errors.As(err, &failErr), "got %T: %v", err, err)

	_, err = ds.ReverseForward(ctx, dev, "localabstract:app", "tcp:9000", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"tcp:" + port + " tcp:8081", "localabstract:app tcp:9000"}, d.Reverses())

	list, err := ds.ReverseListForward(ctx, dev)
	require.NoError(t, err)
	assert.Empty(t, list.Errors)
	assert.Equal(t, []adb.ReverseEntry{
		{Transport: "UsbFfs", Remote: "tcp:" + port, Local: "tcp:8081"},
		{Transport: "UsbFfs", Remote: "localabstract:app", Local: "tcp:9000"},
	}, list.Entries)

	require.NoError(t, ds.ReverseKillForward(ctx, dev, "tcp:"+port))
	assert.Equal(t, []string{"localabstract:app tcp:9000"}, d.Reverses())

	err = ds.ReverseKillForward(ctx, dev, "tcp:"+port)
	assert.True(t, errors.As(err, &failErr), "got %T: %v", err, err)

	require.NoError(t, ds.ReverseKillForwardAll(ctx, dev))
	assert.Empty(t, d.Reverses())
	assertAllClosed(t, srv)
}

func TestReverseForwardUnknownDevice(t *testing.T) {
	srv, s := newTestSession(t)
	addTestDevice(srv)

	_, err := s.DeviceServices().ReverseForward(context.Background(), adb.Serial("nope"), "tcp:0", "tcp:8081", false)
	var failErr *wire.FailResponseError
	require.True(t, errors.As(err, &failErr), "got %T: %v", err, err)
	assertAllClosed(t, srv)
}

func TestParseReverseList(t *testing.T) {
	list := adb.ParseReverseList("UsbFfs tcp:5000 tcp:6000\n\nbroken line here too\n")
	assert.Equal(t, []adb.ReverseEntry{{Transport: "UsbFfs", Remote: "tcp:5000", Local: "tcp:6000"}}, list.Entries)
	require.Len(t, list.Errors, 1)
	assert.Equal(t, 2, list.Errors[0].LineIndex)
	assert.Equal(t, "broken line here too", list.Errors[0].RawLine)
}
