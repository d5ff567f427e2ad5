package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuardAllowsFirstBroadcast(t *testing.T) {
	g := NewGuard()
	now := time.Unix(1000, 0)
	assert.True(t, g.AllowBroadcast(now, DefaultDebounce))
	assert.Equal(t, now, g.LastBroadcastAt())
}

func TestGuardDebounce(t *testing.T) {
	g := NewGuard()
	start := time.Unix(1000, 0)
	assert.True(t, g.AllowBroadcast(start, DefaultDebounce))
	assert.False(t, g.AllowBroadcast(start.Add(499*time.Millisecond), DefaultDebounce))
	assert.True(t, g.AllowBroadcast(start.Add(500*time.Millisecond), DefaultDebounce))
}

func TestGuardDeniedBroadcastDoesNotResetClock(t *testing.T) {
	g := NewGuard()
	start := time.Unix(1000, 0)
	assert.True(t, g.AllowBroadcast(start, DefaultDebounce))
	assert.False(t, g.AllowBroadcast(start.Add(100*time.Millisecond), DefaultDebounce))
	assert.Equal(t, start, g.LastBroadcastAt())
}

func TestGuardSuppressesWhileReconciling(t *testing.T) {
	g := NewGuard()
	g.BeginReconcile()
	assert.True(t, g.Reconciling())
	assert.False(t, g.AllowBroadcast(time.Unix(1000, 0), DefaultDebounce))

	g.EndReconcile()
	assert.False(t, g.Reconciling())
	assert.True(t, g.AllowBroadcast(time.Unix(1000, 0), DefaultDebounce))
}
