package analysis

import (
	"testing"
	"time"

	"sensor-etl/src/models"

	"github.com/stretchr/testify/require"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCalculateWindowBoundaries(t *testing.T) {
	tests := []struct {
		in    string
		start string
		end   string
	}{
		{"2024-01-02T09:00:00Z", "2024-01-02T09:00:00Z", "2024-01-02T09:10:00Z"},
		{"2024-01-02T09:09:59.999Z", "2024-01-02T09:00:00Z", "2024-01-02T09:10:00Z"},
		{"2024-01-02T09:10:00Z", "2024-01-02T09:10:00Z", "2024-01-02T09:20:00Z"},
		{"2024-01-02T11:10:00+02:00", "2024-01-02T09:10:00Z", "2024-01-02T09:20:00Z"},
		{"1969-12-31T23:55:00Z", "1969-12-31T23:50:00Z", "1970-01-01T00:00:00Z"},
	}

	for _, test := range tests {
		start, end := CalculateWindowBoundaries(ts(test.in), 10*time.Minute)
		require.True(t, ts(test.start).Equal(start), "start for %s: got %s", test.in, start)
		require.True(t, ts(test.end).Equal(end), "end for %s: got %s", test.in, end)
		require.Equal(t, time.UTC, start.Location())
	}
}

func TestResampleGroupsAndOrders(t *testing.T) {
	r := &TimeSeriesResampler{Width: 10 * time.Minute}
	readings := []models.MRawReading{
		{Timestamp: ts("2024-01-02T09:25:00Z"), Values: map[string]float64{"power": 3}},
		{Timestamp: ts("2024-01-02T09:01:00Z"), Values: map[string]float64{"power": 1}},
		{Timestamp: ts("2024-01-02T09:09:00Z"), Values: map[string]float64{"power": 2}},
	}

	windows := r.Resample(readings)
	require.Len(t, windows, 2)
	require.True(t, ts("2024-01-02T09:00:00Z").Equal(windows[0].Start))
	require.Len(t, windows[0].Readings, 2)
	require.True(t, ts("2024-01-02T09:20:00Z").Equal(windows[1].Start))
	require.Equal(t, []float64{3}, windows[1].Values("power"))
	require.Nil(t, windows[1].Values("wind_speed"))
}

func TestResampleEmpty(t *testing.T) {
	r := &TimeSeriesResampler{Width: time.Minute}
	require.Empty(t, r.Resample(nil))
}
