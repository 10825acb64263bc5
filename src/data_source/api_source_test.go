package datasource

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"sensor-etl/src/helpers"
	"sensor-etl/src/logger"
	"sensor-etl/src/models"
	"sensor-etl/src/network"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource(t *testing.T, url string, failures int) *APISource {
	t.Helper()
	log := logger.NewLoggerWithWriter(io.Discard, "DEBUG", "test")
	client := network.NewClient(network.ClientConfig{
		Timeout:         2 * time.Second,
		BreakerName:     "test",
		BreakerFailures: failures,
		BreakerOpenFor:  time.Minute,
	}, log)
	return NewAPISource(client, url, models.DefaultSignals, log)
}

func TestExtractDayKeepsOnlyThatDay(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"timestamp":"2024-01-01T23:59:59.5Z","wind_speed":5.0,"power":70.0,"ambient_temperature":20.0},
			{"timestamp":"2024-01-02T00:00:00Z","wind_speed":6.0,"power":71.0,"ambient_temperature":21.0},
			{"timestamp":"2024-01-01T00:00:00","wind_speed":4.0,"power":null}
		]`)
	}))
	defer srv.Close()

	src := newSource(t, srv.URL, 3)
	readings, err := src.ExtractDay(context.Background(), "2024-01-01")
	require.NoError(t, err)
	require.Len(t, readings, 2)

	assert.Equal(t, time.Date(2024, 1, 1, 23, 59, 59, 500_000_000, time.UTC), readings[0].Timestamp)
	assert.Equal(t, 5.0, readings[0].Values[models.FieldWindSpeed])

	// naive timestamp, null and absent fields
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), readings[1].Timestamp)
	assert.Equal(t, map[string]float64{models.FieldWindSpeed: 4.0}, readings[1].Values)

	assert.Equal(t, "2024-01-01T00:00:00Z", gotQuery["start"][0])
	assert.Equal(t, "2024-01-01T23:59:59.999999999Z", gotQuery["end"][0])
	assert.ElementsMatch(t,
		[]string{"timestamp", "wind_speed", "power", "ambient_temperature"},
		gotQuery["fields"])
}

func TestExtractDaySkipsBadTimestamps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"timestamp":"not-a-time","wind_speed":1.0},
			{"wind_speed":2.0},
			{"timestamp":"2024-01-01T10:00:00+00:00","wind_speed":3.0}
		]`)
	}))
	defer srv.Close()

	readings, err := newSource(t, srv.URL, 3).ExtractDay(context.Background(), "2024-01-01")
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 3.0, readings[0].Values[models.FieldWindSpeed])
}

func TestExtractDayStatusFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	readings, err := newSource(t, srv.URL, 3).ExtractDay(context.Background(), "2024-01-01")
	require.Error(t, err)
	assert.NotNil(t, readings)
	assert.Empty(t, readings)
	assert.True(t, helpers.IsExtractionFailure(err))

	var se *helpers.HTTPStatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
}

func TestExtractDayUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	readings, err := newSource(t, url, 3).ExtractDay(context.Background(), "2024-01-01")
	require.Error(t, err)
	assert.Empty(t, readings)

	var te *helpers.TransportError
	assert.True(t, errors.As(err, &te))
}

func TestExtractDayInvalidDate(t *testing.T) {
	src := newSource(t, "http://127.0.0.1:1", 3)
	readings, err := src.ExtractDay(context.Background(), "2024-13-01")
	require.Error(t, err)
	assert.Empty(t, readings)
	assert.False(t, helpers.IsExtractionFailure(err))

	var ve *helpers.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestExtractDayBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	src := newSource(t, srv.URL, 2)
	for i := 0; i < 4; i++ {
		_, err := src.ExtractDay(context.Background(), "2024-01-01")
		require.Error(t, err)
		assert.True(t, helpers.IsExtractionFailure(err))
	}
	assert.Equal(t, int32(2), hits.Load())
}
