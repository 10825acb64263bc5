package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"sensor-etl/src/logger"
	"sensor-etl/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	mu   sync.Mutex
	days []string
	err  error
}

func (r *recordingRunner) RunDay(_ context.Context, day string) (models.MRunReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.days = append(r.days, day)
	return models.MRunReport{Day: day}, r.err
}

func TestPreviousDay(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2024, 3, 1, 0, 15, 0, 0, time.UTC), "2024-02-29"},
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "2023-12-31"},
		// 01:30 at +02:00 is still the previous UTC day
		{time.Date(2024, 6, 10, 1, 30, 0, 0, time.FixedZone("CEST", 2*3600)), "2024-06-08"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PreviousDay(tt.now))
	}
}

func TestRunPreviousDay(t *testing.T) {
	log := logger.NewLoggerWithWriter(io.Discard, "ERROR", "test")
	runner := &recordingRunner{}
	s := New(runner, "00:15", log)
	defer s.Stop()
	s.now = func() time.Time { return time.Date(2024, 5, 2, 0, 15, 0, 0, time.UTC) }

	s.runPreviousDay()
	runner.err = errors.New("boom")
	s.runPreviousDay()

	assert.Equal(t, []string{"2024-05-01", "2024-05-01"}, runner.days)
}

func TestStartSchedulesDailyJob(t *testing.T) {
	log := logger.NewLoggerWithWriter(io.Discard, "ERROR", "test")
	s := New(&recordingRunner{}, "23:59", log)
	require.NoError(t, s.Start())
	defer s.Stop()

	next := s.NextRun()
	assert.Equal(t, 23, next.UTC().Hour())
	assert.Equal(t, 59, next.UTC().Minute())
	assert.True(t, next.After(time.Now().Add(-time.Minute)))
}

func TestStartRejectsBadTime(t *testing.T) {
	s := New(&recordingRunner{}, "25:99", logger.NewLoggerWithWriter(io.Discard, "ERROR", "test"))
	defer s.Stop()
	assert.Error(t, s.Start())
}
