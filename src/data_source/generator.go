package datasource

import (
	"math"
	"math/rand/v2"
	"time"

	"sensor-etl/src/models"
)

// Value ranges of the synthetic readings.
const (
	MinTemperature = 15.0
	MaxTemperature = 35.0
	MinPower       = 50.0
	MaxPower       = 100.0
	MinWindSpeed   = 0.0
	MaxWindSpeed   = 20.0
)

// Generator produces synthetic one-minute readings for seeding the source API.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// -----------------------------------------------------------------------------

// Days returns days*24*60 readings one minute apart starting at start.
func (g *Generator) Days(start time.Time, days int) []models.MDataRow {
	if days <= 0 {
		return []models.MDataRow{}
	}
	n := days * 24 * 60
	rows := make([]models.MDataRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, models.MDataRow{
			Timestamp:          start.Add(time.Duration(i) * time.Minute).UTC(),
			AmbientTemperature: g.uniform(MinTemperature, MaxTemperature),
			Power:              g.uniform(MinPower, MaxPower),
			WindSpeed:          g.uniform(MinWindSpeed, MaxWindSpeed),
		})
	}
	return rows
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return math.Round((lo+g.rng.Float64()*(hi-lo))*100) / 100
}
