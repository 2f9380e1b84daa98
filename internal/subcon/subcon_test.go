package subcon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vlbisched/scheduler/internal/astro"
	"github.com/vlbisched/scheduler/internal/config"
)

func TestBuilder_Run_NoSourcesReturnsNil(t *testing.T) {
	b := buildTwoStationBuilder(t, config.DefaultConfig())
	cand := b.Run(astro.Time(0), ModeNormal, nil)
	assert.Nil(t, cand)
}
