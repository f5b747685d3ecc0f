package host

import (
	"fmt"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Check it satisfies the interface
var _ pflag.Value = (*Duration)(nil)

func TestParseDuration(t *testing.T) {
	for _, test := range []struct {
		in   string
		want time.Duration
		err  bool
	}{
		{"0", 0, false},
		{"", 0, true},
		{"500ms", 500 * time.Millisecond, false},
		{"30s", 30 * time.Second, false},
		{"5m", 5 * time.Minute, false},
		{"1h", time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"1.5d", 36 * time.Hour, false},
		{"45", 45 * time.Second, false},
		{"off", time.Duration(DurationOff), false},
		{"INF", time.Duration(DurationOff), false},
		{"1x", 0, true},
	} {
		got, err := ParseDuration(test.in)
		if test.err {
			require.Error(t, err, test.in)
			continue
		}
		require.NoError(t, err, test.in)
		assert.Equal(t, test.want, got, test.in)
	}
}

func TestDurationString(t *testing.T) {
	for _, test := range []struct {
		in   Duration
		want string
	}{
		{0, "0s"},
		{Duration(1500 * time.Millisecond), "1.5s"},
		{Duration(24 * time.Hour), "1d"},
		{Duration(14 * 24 * time.Hour), "2w"},
		{Duration(36 * time.Hour), "36h0m0s"},
		{DurationOff, "off"},
	} {
		assert.Equal(t, test.want, test.in.String())
		// round trip
		var d Duration
		require.NoError(t, d.Set(test.want))
		assert.Equal(t, test.in, d)
	}
	assert.False(t, DurationOff.IsSet())
	assert.True(t, Duration(time.Second).IsSet())
}

func TestDurationScan(t *testing.T) {
	var v Duration
	n, err := fmt.Sscan(" 17m ", &v)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, Duration(17*time.Minute), v)
}
