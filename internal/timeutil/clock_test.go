package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_NowIsMonotonicEnough(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	now := c.Now()
	after := time.Now()
	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}

func TestRealClock_Since(t *testing.T) {
	c := RealClock{}
	past := time.Now().Add(-time.Second)
	assert.GreaterOrEqual(t, c.Since(past), time.Second)
}

func TestMockClock_FrozenUntilAdvanced(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	c := NewMockClock(start)
	assert.True(t, c.Now().Equal(start))
	assert.True(t, c.Now().Equal(start), "mock clock must not drift on its own")

	c.Advance(90 * time.Second)
	assert.True(t, c.Now().Equal(start.Add(90*time.Second)))
}

func TestMockClock_Set(t *testing.T) {
	c := NewMockClock(time.Time{})
	target := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	c.Set(target)
	assert.True(t, c.Now().Equal(target))
}

func TestMockClock_SinceTracksAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	c.Advance(42 * time.Second)
	assert.Equal(t, 42*time.Second, c.Since(start))
}
