package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemSleepUntilPast(t *testing.T) {
	s := System{}
	now := s.NowMonotonic()
	res := s.SleepUntil(now.Add(-time.Millisecond))
	assert.GreaterOrEqual(t, res.Slack, time.Duration(0))
}

func TestSystemSleepUntilNear(t *testing.T) {
	s := System{}
	target := s.NowMonotonic().Add(3 * time.Millisecond)
	start := time.Now()
	res := s.SleepUntil(target)
	elapsed := time.Since(start)
	require.True(t, elapsed >= 2*time.Millisecond, "SleepUntil returned too early: %v", elapsed)
	assert.LessOrEqual(t, res.Slack, maxBusyWait)
}

func TestMockAdvanceAndSleepUntil(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMock(epoch)
	m.Skew = 237 * time.Millisecond

	mono, wall := m.Now()
	assert.Equal(t, epoch, mono.t)
	assert.Equal(t, epoch, wall.t)

	res := m.SleepUntil(mono.Add(500 * time.Millisecond))
	assert.Equal(t, time.Duration(0), res.Slack)
	assert.Equal(t, epoch.Add(500*time.Millisecond), m.NowMonotonic().t)

	server := m.ServerNow()
	assert.Equal(t, epoch.Add(500*time.Millisecond+237*time.Millisecond).Truncate(time.Second), server.t)
}

func TestWallInstantSubSecond(t *testing.T) {
	w := WallInstant{t: time.Date(2026, 1, 1, 0, 0, 0, 742000000, time.UTC)}
	assert.InDelta(t, 0.742, w.SubSecond(), 1e-9)
}
