package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartMissingCommand(t *testing.T) {
	_, err := Start(Options{Command: "definitely-not-an-f5-worker-binary"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandNotFound)
}

func TestWaitReadySucceedsAfterRetries(t *testing.T) {
	var probes atomic.Int32
	probe := func(context.Context) error {
		if probes.Add(1) < 3 {
			return errors.New("still loading weights")
		}
		return nil
	}

	err := waitReady(context.Background(), func() bool { return true }, probe, time.Second, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int32(3), probes.Load())
}

func TestWaitReadyDetectsExit(t *testing.T) {
	probe := func(context.Context) error { return errors.New("connection refused") }

	err := waitReady(context.Background(), func() bool { return false }, probe, time.Second, time.Millisecond)
	assert.ErrorIs(t, err, ErrExited)
}

func TestWaitReadyTimesOut(t *testing.T) {
	probe := func(context.Context) error { return errors.New("connection refused") }

	err := waitReady(context.Background(), func() bool { return true }, probe, 20*time.Millisecond, 5*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStartupTimeout)
	assert.Contains(t, err.Error(), "connection refused")
}
