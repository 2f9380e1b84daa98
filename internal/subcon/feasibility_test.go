package subcon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vlbisched/scheduler/internal/idregistry"
	"github.com/vlbisched/scheduler/internal/source"
)

func TestMeetsStationRequirements_TwoStationFloor(t *testing.T) {
	sp := source.Parameters{}
	assert.False(t, meetsStationRequirements([]idregistry.ID{0}, sp))
	assert.True(t, meetsStationRequirements([]idregistry.ID{0, 1}, sp))
}

func TestMeetsStationRequirements_SourceMinimumWins(t *testing.T) {
	sp := source.Parameters{MinNumberOfStations: 3}
	assert.False(t, meetsStationRequirements([]idregistry.ID{0, 1}, sp))
	assert.True(t, meetsStationRequirements([]idregistry.ID{0, 1, 2}, sp))
}

func TestMeetsStationRequirements_RequiredStationMustSurviveDrops(t *testing.T) {
	sp := source.Parameters{RequiredStations: map[idregistry.ID]bool{5: true}}
	assert.False(t, meetsStationRequirements([]idregistry.ID{0, 1}, sp))
	assert.True(t, meetsStationRequirements([]idregistry.ID{0, 5}, sp))
}

func TestAnyFalse(t *testing.T) {
	assert.False(t, anyFalse([]bool{true, true}))
	assert.True(t, anyFalse([]bool{true, false}))
	assert.False(t, anyFalse(nil))
}
