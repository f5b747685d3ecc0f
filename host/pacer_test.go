package host

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/adbctl/adbctl/lib/pacer"
)

func TestNewPacerRetries(t *testing.T) {
	ctx, ci := AddConfig(context.Background())
	ci.LowLevelRetries = 3
	p := NewPacer(ctx, pacer.NewDefault(pacer.MinSleep(time.Microsecond), pacer.MaxSleep(time.Microsecond)))

	calls := 0
	err := p.Call(ctx, func() (bool, error) {
		calls++
		return true, errors.New("connection refused")
	})
	assert.Equal(t, 3, calls)
	assert.True(t, IsRetryError(err))
	assert.EqualError(t, err, "connection refused")
}

func TestNewPacerZeroRetries(t *testing.T) {
	ctx, ci := AddConfig(context.Background())
	ci.LowLevelRetries = 0
	p := NewPacer(ctx, nil)

	calls := 0
	err := p.Call(ctx, func() (bool, error) {
		calls++
		return false, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}
