package astro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeSystem_RejectsBadWindow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := NewTimeSystem(60000, start, start)
	require.Error(t, err)
}

func TestTimeSystem_DurationAndWallClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	ts, err := NewTimeSystem(60000, start, end)
	require.NoError(t, err)

	assert.Equal(t, Time(7200), ts.Duration())
	assert.True(t, ts.ToWallClock(3600).Equal(start.Add(time.Hour)))
	assert.InDelta(t, 60000.0+3600.0/86400.0, ts.MJD(3600), 1e-9)
}

func TestTime_AddSub(t *testing.T) {
	var t0 Time = 100
	assert.Equal(t, Time(150), t0.Add(50))
	assert.Equal(t, Time(0), t0.Add(-500))
	assert.Equal(t, int64(-50), t0.Sub(150))
}
