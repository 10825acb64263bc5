package pipeline

import (
	"context"
	"errors"
	"time"

	"sensor-etl/src/analysis"
	"sensor-etl/src/helpers"
	"sensor-etl/src/interfaces"
	"sensor-etl/src/logger"
	"sensor-etl/src/metrics"
	"sensor-etl/src/models"
	"sensor-etl/src/utils"

	"github.com/google/uuid"
)

// Pipeline runs extract, aggregate and load for one calendar day at a time.
type Pipeline struct {
	Extractor    interfaces.IExtractor
	Aggregator   interfaces.IAggregator
	Catalog      interfaces.ISignalCatalog
	Store        interfaces.IAggregateStore
	Signals      []string
	ErrorHandler *helpers.ErrorHandler
	Logger       *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPipeline(
	extractor interfaces.IExtractor,
	aggregator interfaces.IAggregator,
	catalog interfaces.ISignalCatalog,
	store interfaces.IAggregateStore,
	signals []string,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		Extractor:    extractor,
		Aggregator:   aggregator,
		Catalog:      catalog,
		Store:        store,
		Signals:      append([]string(nil), signals...),
		ErrorHandler: helpers.NewErrorHandler(log),
		Logger:       log,
	}
}

// -----------------------------------------------------------------------------

// RunDay processes one day. A malformed date aborts before extraction, an
// unreachable source degrades to an empty day, and any catalog or storage
// failure is returned as fatal with nothing written.
func (p *Pipeline) RunDay(ctx context.Context, day string) (models.MRunReport, error) {
	startProcess := time.Now()
	report := models.MRunReport{RunID: uuid.NewString(), Day: day}
	log := p.Logger.Named("run " + report.RunID[:8])

	finish := func(outcome string) {
		report.Duration = time.Since(startProcess)
		metrics.RunsTotal.WithLabelValues(outcome).Inc()
		metrics.RunDuration.Observe(report.Duration.Seconds())
	}

	// 1. Validate
	if _, err := utils.ParseDay(day); err != nil {
		log.Error("Rejected date %q: %v", day, err)
		finish("invalid")
		return report, err
	}

	// 2. Extract
	log.Info("Extracting %s from %s", day, p.Extractor.Name())
	readings, err := p.Extractor.ExtractDay(ctx, day)
	if err != nil {
		if !helpers.IsExtractionFailure(err) {
			finish("failed")
			return report, err
		}
		p.ErrorHandler.Handle(err, "extract "+day)
		metrics.ExtractionFailures.WithLabelValues(failureKind(err)).Inc()
		report.ExtractErr = err
		readings = []models.MRawReading{}
	}
	report.Extracted = len(readings)
	metrics.ReadingsExtracted.Add(float64(len(readings)))

	// 3. Aggregate
	aggs := p.Aggregator.Aggregate(readings)
	report.Aggregates = len(aggs)
	report.Windows = analysis.CountWindows(aggs)
	metrics.AggregatesComputed.Add(float64(len(aggs)))

	// 4. Ensure catalog
	created, err := p.Catalog.EnsureSignals(ctx, p.Signals)
	if err != nil {
		log.Error("Signal catalog update failed: %v", err)
		finish("failed")
		return report, err
	}
	if created > 0 {
		log.Info("Registered %d new signals", created)
	}

	// 5. Load
	written, err := p.Store.SaveAggregates(ctx, aggs)
	if err != nil {
		log.Error("Persisting %s failed, nothing written: %v", day, err)
		finish("failed")
		return report, err
	}
	report.RowsWritten = written
	metrics.RowsWritten.Add(float64(written))

	if report.Degraded() {
		finish("degraded")
	} else {
		finish("ok")
	}
	log.Info("Day %s done: %d readings, %d windows, %d aggregates, %d rows in %v",
		day, report.Extracted, report.Windows, report.Aggregates, report.RowsWritten, report.Duration)
	return report, nil
}

// -----------------------------------------------------------------------------

// RunRange processes every day from..to inclusive in order. Degraded days do
// not stop the batch; the first fatal error does, and the reports gathered so
// far are returned with it.
func (p *Pipeline) RunRange(ctx context.Context, from, to string) ([]models.MRunReport, error) {
	start, err := utils.ParseDay(from)
	if err != nil {
		return nil, err
	}
	end, err := utils.ParseDay(to)
	if err != nil {
		return nil, err
	}
	days, err := utils.DaysBetween(start, end)
	if err != nil {
		return nil, err
	}

	reports := make([]models.MRunReport, 0, len(days))
	for _, d := range days {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := p.RunDay(ctx, d.Format(utils.DayLayout))
		reports = append(reports, report)
		if err != nil {
			return reports, err
		}
	}

	degraded := 0
	for _, r := range reports {
		if r.Degraded() {
			degraded++
		}
	}
	p.Logger.Info("Range %s..%s done: %d days, %d degraded", from, to, len(reports), degraded)
	return reports, nil
}

// -----------------------------------------------------------------------------

func failureKind(err error) string {
	var se *helpers.HTTPStatusError
	if errors.As(err, &se) {
		return "status"
	}
	return "transport"
}
