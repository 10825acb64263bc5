package datasource

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorDays(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := NewGenerator(42).Days(start, 2)
	require.Len(t, rows, 2*24*60)

	assert.Equal(t, start, rows[0].Timestamp)
	assert.Equal(t, start.Add(2*24*time.Hour-time.Minute), rows[len(rows)-1].Timestamp)

	for _, r := range rows {
		assert.GreaterOrEqual(t, r.AmbientTemperature, MinTemperature)
		assert.LessOrEqual(t, r.AmbientTemperature, MaxTemperature)
		assert.GreaterOrEqual(t, r.Power, MinPower)
		assert.LessOrEqual(t, r.Power, MaxPower)
		assert.GreaterOrEqual(t, r.WindSpeed, MinWindSpeed)
		assert.LessOrEqual(t, r.WindSpeed, MaxWindSpeed)
		assert.InDelta(t, r.Power, math.Round(r.Power*100)/100, 1e-9)
	}
}

func TestGeneratorSeeded(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, NewGenerator(7).Days(start, 1), NewGenerator(7).Days(start, 1))
	assert.Empty(t, NewGenerator(7).Days(start, 0))
}
