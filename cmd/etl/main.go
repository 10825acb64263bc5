package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sensor-etl/src/config"
	"sensor-etl/src/helpers"
	"sensor-etl/src/logger"
	"sensor-etl/src/models"
	"sensor-etl/src/scheduler"
	"sensor-etl/src/utils"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// -----------------------------------------------------------------------------

func main() {

	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	date := flag.String("date", "", "day to process (YYYY-MM-DD); prompts when empty")
	from := flag.String("from", "", "first day of a range (YYYY-MM-DD)")
	to := flag.String("to", "", "last day of a range, inclusive (YYYY-MM-DD)")
	schedule := flag.Bool("schedule", false, "run the previous day once a day at schedule.at")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.LogLevel, conf.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var code int
	switch {
	case *schedule:
		code = runScheduled(ctx, conf, appLogger)
	case *from != "" || *to != "":
		code = runRange(ctx, conf, appLogger, *from, *to)
	default:
		day := *date
		if day == "" {
			day = promptDate(os.Stdin, os.Stdout)
		}
		code = runDay(ctx, conf, appLogger, day)
	}

	stop()
	os.Exit(code)
}

// -----------------------------------------------------------------------------

func promptDate(in io.Reader, out io.Writer) string {
	fmt.Fprint(out, "Enter date (YYYY-MM-DD): ")
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}

// -----------------------------------------------------------------------------

func runDay(ctx context.Context, conf *config.Config, log *logger.Logger, day string) int {
	if _, err := utils.ParseDay(day); err != nil {
		fmt.Printf("Invalid date %q: please use the YYYY-MM-DD format.\n", day)
		fmt.Println("ETL process finished: no data processed.")
		return 1
	}

	p, closeAll, err := buildPipeline(ctx, conf, log)
	if err != nil {
		fmt.Printf("ETL process failed: %v\n", err)
		return 1
	}
	defer closeAll()

	report, err := p.RunDay(ctx, day)
	if err != nil {
		fmt.Printf("ETL process failed for %s: %v\n", day, err)
		return 1
	}
	printReport(report)
	fmt.Println("ETL process completed.")
	return 0
}

// -----------------------------------------------------------------------------

func runRange(ctx context.Context, conf *config.Config, log *logger.Logger, from, to string) int {
	if from == "" || to == "" {
		fmt.Println("Both -from and -to are required for a range.")
		fmt.Println("ETL process finished: no data processed.")
		return 1
	}

	p, closeAll, err := buildPipeline(ctx, conf, log)
	if err != nil {
		fmt.Printf("ETL process failed: %v\n", err)
		return 1
	}
	defer closeAll()

	reports, err := p.RunRange(ctx, from, to)
	for _, r := range reports {
		printReport(r)
	}
	if err != nil {
		var ve *helpers.ValidationError
		if errors.As(err, &ve) {
			fmt.Printf("Invalid range: %v\n", err)
		}
		fmt.Printf("ETL process stopped after %d days: %v\n", len(reports), err)
		return 1
	}
	fmt.Printf("ETL process completed for %d days.\n", len(reports))
	return 0
}

// -----------------------------------------------------------------------------

func runScheduled(ctx context.Context, conf *config.Config, log *logger.Logger) int {
	p, closeAll, err := buildPipeline(ctx, conf, log)
	if err != nil {
		fmt.Printf("ETL scheduler failed to start: %v\n", err)
		return 1
	}
	defer closeAll()

	sched := scheduler.New(p, conf.Schedule.At, log.Named("Scheduler"))
	if err := sched.Start(); err != nil {
		fmt.Printf("ETL scheduler failed to start: %v\n", err)
		return 1
	}
	log.Info("Next run at %s", sched.NextRun().Format(time.RFC3339))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: conf.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	metricsServer.Shutdown(shutdownCtx)

	fmt.Println("ETL scheduler stopped.")
	return 0
}

// -----------------------------------------------------------------------------

func printReport(r models.MRunReport) {
	status := "ok"
	if r.Degraded() {
		status = "no source data: " + r.ExtractErr.Error()
	}
	fmt.Printf("%s  readings=%d windows=%d aggregates=%d rows=%d (%s) [%s]\n",
		r.Day, r.Extracted, r.Windows, r.Aggregates, r.RowsWritten, r.Duration.Round(time.Millisecond), status)
}
