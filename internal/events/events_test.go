package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testParams struct {
	Available bool
	Label     string
}

func TestTimeline_AppliesEventsInOrder(t *testing.T) {
	tl := NewTimeline(testParams{Label: "initial"},
		Event[testParams]{Time: 20, SmoothTransition: true, Parameters: testParams{Label: "second"}},
		Event[testParams]{Time: 10, SmoothTransition: true, Parameters: testParams{Label: "first"}},
	)

	var hard bool
	tl.CheckForNewEvent(15, &hard)
	assert.Equal(t, "first", tl.Current().Label)
	assert.False(t, hard)

	tl.CheckForNewEvent(25, &hard)
	assert.Equal(t, "second", tl.Current().Label)
}

func TestTimeline_HardTransitionSetsFlag(t *testing.T) {
	tl := NewTimeline(testParams{Label: "initial"},
		Event[testParams]{Time: 10, SmoothTransition: false, Parameters: testParams{Label: "forced"}},
	)
	var hard bool
	tl.CheckForNewEvent(10, &hard)
	assert.True(t, hard)
	assert.Equal(t, "forced", tl.Current().Label)
}

func TestTimeline_NextEventTime(t *testing.T) {
	tl := NewTimeline(testParams{}, Event[testParams]{Time: 30})
	next, ok := tl.NextEventTime()
	require.True(t, ok)
	assert.EqualValues(t, 30, next)

	var hard bool
	tl.CheckForNewEvent(30, &hard)
	_, ok = tl.NextEventTime()
	assert.False(t, ok)
}

func TestTimeline_SetCurrentDoesNotTouchCursor(t *testing.T) {
	tl := NewTimeline(testParams{Label: "initial"},
		Event[testParams]{Time: 10, Parameters: testParams{Label: "a"}},
		Event[testParams]{Time: 20, Parameters: testParams{Label: "b"}},
	)
	var hard bool
	tl.CheckForNewEvent(10, &hard)
	assert.Equal(t, "a", tl.Current().Label)

	tl.SetCurrent(testParams{Label: "override"})
	assert.Equal(t, "override", tl.Current().Label)

	tl.CheckForNewEvent(20, &hard)
	assert.Equal(t, "b", tl.Current().Label, "cursor must still be positioned after the first event")
}

func TestTimeline_Reset(t *testing.T) {
	tl := NewTimeline(testParams{Label: "initial"},
		Event[testParams]{Time: 10, Parameters: testParams{Label: "a"}},
	)
	var hard bool
	tl.CheckForNewEvent(10, &hard)
	tl.Reset(testParams{Label: "restarted"})
	assert.Equal(t, "restarted", tl.Current().Label)
	next, ok := tl.NextEventTime()
	require.True(t, ok)
	assert.EqualValues(t, 10, next)
}
