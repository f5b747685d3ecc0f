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

func TestForward(t *testing.T) {
	srv, s := newTestSession(t)
	addTestDevice(srv)
	ctx := context.Background()
	hs := s.HostServices()
	dev := adb.Serial("1234")

	port, err := hs.Forward(ctx, dev, "tcp:0", "tcp:4000", false)
	require.NoError(t, err)
	assert.NotEmpty(t, port)

	// norebind on a forwarded port fails
	_, err = hs.Forward(ctx, dev, "tcp:"+port, "tcp:4001", false)
	var failErr *wire.FailResponseError
	require.True(t, errors.As(err, &failErr), "got %T: %v", err, err)

	// rebind returns the same port
	port2, err := hs.Forward(ctx, dev, "tcp:"+port, "tcp:4001", true)
	require.NoError(t, err)
	assert.Equal(t, port, port2)

	list, err := hs.ListForward(ctx)
	require.NoError(t, err)
	assert.Empty(t, list.Errors)
	assert.Equal(t, []adb.ForwardEntry{{Serial: "1234", Local: "tcp:" + port, Remote: "tcp:4001"}}, list.Entries)

	require.NoError(t, hs.KillForward(ctx, dev, "tcp:"+port))
	list, err = hs.ListForward(ctx)
	require.NoError(t, err)
	assert.Empty(t, list.Entries)

	err = hs.KillForward(ctx, dev, "tcp:"+port)
	assert.True(t, errors.As(err, &failErr), "got %T: %v", err, err)

	assertAllClosed(t, srv)
}

func TestKillForwardAll(t *testing.T) {
	srv, s := newTestSession(t)
	addTestDevice(srv)
	ctx := context.Background()
	hs := s.HostServices()
	dev := adb.Serial("1234")

	_, err := hs.Forward(ctx, dev, "tcp:0", "tcp:4000", false)
	require.NoError(t, err)
	_, err = hs.Forward(ctx, dev, "tcp:0", "jdwp:1234", false)
	require.NoError(t, err)
	list, err := hs.ListForward(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Entries, 2)

	require.NoError(t, hs.KillForwardAll(ctx, dev))
	list, err = hs.ListForward(ctx)
	require.NoError(t, err)
	assert.Empty(t, list.Entries)
}

func TestParseForwardList(t *testing.T) {
	list := adb.ParseForwardList("1234 tcp:1000 tcp:4000\nbroken line\n\nemulator-5554 tcp:1001 jdwp:42\n")
	assert.Equal(t, []adb.ForwardEntry{
		{Serial: "1234", Local: "tcp:1000", Remote: "tcp:4000"},
		{Serial: "emulator-5554", Local: "tcp:1001", Remote: "jdwp:42"},
	}, list.Entries)
	require.Len(t, list.Errors, 1)
	assert.Equal(t, 1, list.Errors[0].LineIndex)
	assert.Equal(t, "broken line", list.Errors[0].RawLine)
}
