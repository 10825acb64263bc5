package scheduler

import (
	"context"
	"time"

	"sensor-etl/src/logger"
	"sensor-etl/src/models"
	"sensor-etl/src/utils"

	"github.com/go-co-op/gocron"
)

// DayRunner processes one calendar day.
type DayRunner interface {
	RunDay(ctx context.Context, day string) (models.MRunReport, error)
}

// Scheduler runs the previous UTC day once a day at a fixed time.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    DayRunner
	at        string
	logger    *logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	now       func() time.Time
}

// New creates a new Scheduler firing daily at at ("HH:MM", UTC).
func New(runner DayRunner, at string, log *logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		at:        at,
		logger:    log,
		ctx:       ctx,
		cancel:    cancel,
		now:       time.Now,
	}
}

// Start schedules the daily job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Day().At(s.at).Do(s.runPreviousDay)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("Scheduled daily run at %s UTC", s.at)
	return nil
}

// NextRun reports when the job fires next.
func (s *Scheduler) NextRun() time.Time {
	_, next := s.scheduler.NextRun()
	return next
}

// Stop stops the scheduler and cancels a run in progress.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// -----------------------------------------------------------------------------

func (s *Scheduler) runPreviousDay() {
	day := PreviousDay(s.now())
	s.logger.Info("Running scheduled ETL for %s", day)

	report, err := s.runner.RunDay(s.ctx, day)
	if err != nil {
		s.logger.Error("Scheduled ETL for %s failed: %v", day, err)
		return
	}
	if report.Degraded() {
		s.logger.Warning("Scheduled ETL for %s ran without source data: %v", day, report.ExtractErr)
		return
	}
	s.logger.Info("Scheduled ETL for %s wrote %d rows", day, report.RowsWritten)
}

// PreviousDay returns the UTC calendar day before now as YYYY-MM-DD.
func PreviousDay(now time.Time) string {
	return now.UTC().AddDate(0, 0, -1).Format(utils.DayLayout)
}
