package analysis

import (
	"math/rand"
	"testing"
	"time"

	"sensor-etl/src/analysis/core"
	"sensor-etl/src/models"

	"github.com/stretchr/testify/require"
)

var testSignals = []string{models.FieldWindSpeed, models.FieldPower, models.FieldAmbientTemperature}

func newFacade() *AnalysisFacade {
	return NewAnalysisFacade(10*time.Minute, testSignals, core.Sample, nil)
}

func reading(at string, values map[string]float64) models.MRawReading {
	return models.MRawReading{Timestamp: ts(at), Values: values}
}

func TestAggregateExampleWindow(t *testing.T) {
	aggs := newFacade().Aggregate([]models.MRawReading{
		reading("2024-01-02T09:00:00Z", map[string]float64{"power": 10}),
		reading("2024-01-02T09:03:00Z", map[string]float64{"power": 20}),
		reading("2024-01-02T09:07:00Z", map[string]float64{"power": 30}),
	})

	require.Len(t, aggs, 1)
	a := aggs[0]
	require.Equal(t, "power", a.Signal)
	require.True(t, ts("2024-01-02T09:00:00Z").Equal(a.WindowStart))
	require.True(t, ts("2024-01-02T09:10:00Z").Equal(a.WindowEnd))
	require.Equal(t, 3, a.Count)
	require.Equal(t, 20.0, a.Mean)
	require.Equal(t, 10.0, a.Min)
	require.Equal(t, 30.0, a.Max)
	require.NotNil(t, a.Std)
	require.Equal(t, 10.0, *a.Std)
}

func TestAggregateEmptyInput(t *testing.T) {
	aggs := newFacade().Aggregate(nil)
	require.NotNil(t, aggs)
	require.Empty(t, aggs)
}

func TestAggregateSignalsIndependent(t *testing.T) {
	aggs := newFacade().Aggregate([]models.MRawReading{
		reading("2024-01-02T09:01:00Z", map[string]float64{"wind_speed": 4}),
		reading("2024-01-02T09:02:00Z", map[string]float64{"wind_speed": 6}),
		reading("2024-01-02T09:15:00Z", map[string]float64{"power": 50, "wind_speed": 1}),
	})

	require.Len(t, aggs, 3)
	require.Equal(t, "wind_speed", aggs[0].Signal)
	require.Equal(t, 5.0, aggs[0].Mean)
	require.Equal(t, "wind_speed", aggs[1].Signal)
	require.Equal(t, "power", aggs[2].Signal)
	require.True(t, aggs[1].WindowStart.Equal(aggs[2].WindowStart))

	for _, a := range aggs {
		require.NotEqual(t, "ambient_temperature", a.Signal)
	}
}

func TestAggregateSingleSampleStdIsNil(t *testing.T) {
	aggs := newFacade().Aggregate([]models.MRawReading{
		reading("2024-01-02T09:01:00Z", map[string]float64{"power": 7}),
	})
	require.Len(t, aggs, 1)
	require.Nil(t, aggs[0].Std)
	require.Equal(t, 7.0, aggs[0].Min)
	require.Equal(t, 7.0, aggs[0].Max)
}

func TestAggregateBoundaryReadingOpensWindow(t *testing.T) {
	aggs := newFacade().Aggregate([]models.MRawReading{
		reading("2024-01-02T09:09:59Z", map[string]float64{"power": 1}),
		reading("2024-01-02T09:10:00Z", map[string]float64{"power": 2}),
	})
	require.Len(t, aggs, 2)
	require.True(t, ts("2024-01-02T09:00:00Z").Equal(aggs[0].WindowStart))
	require.Equal(t, 1.0, aggs[0].Mean)
	require.True(t, ts("2024-01-02T09:10:00Z").Equal(aggs[1].WindowStart))
	require.Equal(t, 2.0, aggs[1].Mean)
}

func TestAggregateDeterministicAcrossOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := ts("2024-01-02T00:00:00Z")

	var readings []models.MRawReading
	for i := 0; i < 500; i++ {
		readings = append(readings, models.MRawReading{
			Timestamp: base.Add(time.Duration(rng.Intn(86400)) * time.Second),
			Values: map[string]float64{
				"wind_speed":          rng.Float64() * 20,
				"power":               50 + rng.Float64()*50,
				"ambient_temperature": 15 + rng.Float64()*20,
			},
		})
	}

	f := newFacade()
	first := f.Aggregate(readings)

	for round := 0; round < 5; round++ {
		shuffled := append([]models.MRawReading(nil), readings...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		require.Equal(t, first, f.Aggregate(shuffled))
	}
}

func TestCountWindows(t *testing.T) {
	aggs := newFacade().Aggregate([]models.MRawReading{
		reading("2024-01-02T09:01:00Z", map[string]float64{"power": 1, "wind_speed": 2}),
		reading("2024-01-02T09:31:00Z", map[string]float64{"power": 1}),
	})
	require.Equal(t, 2, CountWindows(aggs))
}

func TestDdofFromMode(t *testing.T) {
	require.Equal(t, core.Population, DdofFromMode("population"))
	require.Equal(t, core.Sample, DdofFromMode("sample"))
	require.Equal(t, core.Sample, DdofFromMode(""))
}
