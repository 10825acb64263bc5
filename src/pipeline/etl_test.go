package pipeline

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"sensor-etl/src/analysis"
	"sensor-etl/src/analysis/core"
	"sensor-etl/src/helpers"
	"sensor-etl/src/logger"
	"sensor-etl/src/models"
	"sensor-etl/src/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	days map[string][]models.MRawReading
	errs map[string]error
	hits []string
}

func (f *fakeExtractor) Name() string { return "fake" }

func (f *fakeExtractor) ExtractDay(_ context.Context, day string) ([]models.MRawReading, error) {
	f.hits = append(f.hits, day)
	if err := f.errs[day]; err != nil {
		return []models.MRawReading{}, err
	}
	if rs, ok := f.days[day]; ok {
		return rs, nil
	}
	return []models.MRawReading{}, nil
}

// partialCatalog registers only a subset of the requested names.
type partialCatalog struct {
	*storage.TargetStore
	only []string
}

func (c partialCatalog) EnsureSignals(ctx context.Context, _ []string) (int, error) {
	return c.TargetStore.EnsureSignals(ctx, c.only)
}

func newTestPipeline(t *testing.T, ext *fakeExtractor) (*Pipeline, *storage.TargetStore) {
	t.Helper()
	log := logger.NewLoggerWithWriter(io.Discard, "ERROR", "test")

	db := storage.NewSQLiteDB(filepath.Join(t.TempDir(), "etl.db"), log)
	require.NoError(t, db.Initialize(context.Background()))
	t.Cleanup(func() { db.Close() })

	target := storage.NewTargetStore(db)
	require.NoError(t, target.Migrate(context.Background()))

	agg := analysis.NewAnalysisFacade(10*time.Minute, models.DefaultSignals, core.Sample, log)
	return NewPipeline(ext, agg, target, target, models.DefaultSignals, log), target
}

func reading(ts string, values map[string]float64) models.MRawReading {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return models.MRawReading{Timestamp: t, Values: values}
}

func TestRunDayWritesNarrowRows(t *testing.T) {
	ext := &fakeExtractor{days: map[string][]models.MRawReading{
		"2024-01-01": {
			reading("2024-01-01T09:00:00Z", map[string]float64{models.FieldPower: 10, models.FieldWindSpeed: 3}),
			reading("2024-01-01T09:03:00Z", map[string]float64{models.FieldPower: 20}),
			reading("2024-01-01T09:07:00Z", map[string]float64{models.FieldPower: 30}),
		},
	}}
	p, target := newTestPipeline(t, ext)

	report, err := p.RunDay(context.Background(), "2024-01-01")
	require.NoError(t, err)
	assert.False(t, report.Degraded())
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.Extracted)
	assert.Equal(t, 1, report.Windows)
	assert.Equal(t, 2, report.Aggregates)
	assert.Equal(t, 8, report.RowsWritten)

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	rows, err := target.ListStats(context.Background(), start, start.Add(10*time.Minute))
	require.NoError(t, err)
	require.Len(t, rows, 8)

	// re-running the same day replaces rather than duplicates
	_, err = p.RunDay(context.Background(), "2024-01-01")
	require.NoError(t, err)
	rows, err = target.ListStats(context.Background(), start, start.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Len(t, rows, 8)
}

func TestRunDayDegradesOnExtractionFailure(t *testing.T) {
	ext := &fakeExtractor{errs: map[string]error{
		"2024-01-01": helpers.NewHTTPStatusError("http://src/data", 503),
	}}
	p, target := newTestPipeline(t, ext)

	report, err := p.RunDay(context.Background(), "2024-01-01")
	require.NoError(t, err)
	assert.True(t, report.Degraded())
	assert.Equal(t, 0, report.Extracted)
	assert.Equal(t, 0, report.RowsWritten)
	assert.Equal(t, int64(1), p.ErrorHandler.ErrorCount())

	// catalog is still ensured on an empty day
	sigs, err := target.Signals(context.Background())
	require.NoError(t, err)
	assert.Len(t, sigs, len(models.DefaultSignals))
}

func TestRunDayRejectsBadDateBeforeExtraction(t *testing.T) {
	ext := &fakeExtractor{}
	p, _ := newTestPipeline(t, ext)

	_, err := p.RunDay(context.Background(), "01/02/2024")
	require.Error(t, err)

	var ve *helpers.ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Empty(t, ext.hits)
}

func TestRunDayCatalogMissIsFatal(t *testing.T) {
	ext := &fakeExtractor{days: map[string][]models.MRawReading{
		"2024-01-01": {
			reading("2024-01-01T09:00:00Z", map[string]float64{models.FieldPower: 10, models.FieldWindSpeed: 3}),
		},
	}}
	p, target := newTestPipeline(t, ext)
	p.Catalog = partialCatalog{TargetStore: target, only: []string{models.FieldWindSpeed}}

	_, err := p.RunDay(context.Background(), "2024-01-01")
	require.Error(t, err)

	var miss *helpers.CatalogMissError
	require.True(t, errors.As(err, &miss))
	assert.Equal(t, models.FieldPower, miss.Signal)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows, err := target.ListStats(context.Background(), start, start.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRunRangeContinuesPastDegradedDays(t *testing.T) {
	ext := &fakeExtractor{
		days: map[string][]models.MRawReading{
			"2024-01-03": {reading("2024-01-03T00:05:00Z", map[string]float64{models.FieldPower: 1})},
		},
		errs: map[string]error{
			"2024-01-02": helpers.NewTransportError("GET http://src/data", errors.New("connection refused")),
		},
	}
	p, _ := newTestPipeline(t, ext)

	reports, err := p.RunRange(context.Background(), "2024-01-01", "2024-01-03")
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, ext.hits)
	assert.False(t, reports[0].Degraded())
	assert.True(t, reports[1].Degraded())
	assert.Equal(t, 4, reports[2].RowsWritten)
}

func TestRunRangeRejectsReversedRange(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeExtractor{})
	_, err := p.RunRange(context.Background(), "2024-01-03", "2024-01-01")
	require.Error(t, err)
}
