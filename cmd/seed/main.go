package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sensor-etl/src/config"
	datasource "sensor-etl/src/data_source"
	"sensor-etl/src/logger"
	"sensor-etl/src/network"
)

type seedPayload struct {
	Timestamp          string  `json:"timestamp"`
	AmbientTemperature float64 `json:"ambient_temperature"`
	Power              float64 `json:"power"`
	WindSpeed          float64 `json:"wind_speed"`
}

// -----------------------------------------------------------------------------

func main() {
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	days := flag.Int("days", 10, "number of days of one-minute readings to generate")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	flag.Parse()

	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	appLogger := logger.NewLogger(conf.LogLevel, "Seed")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := network.NewClient(network.ClientConfig{
		Timeout:         conf.RequestTimeout(),
		UserAgent:       conf.Network.UserAgent,
		BreakerName:     "seed",
		BreakerFailures: conf.Network.BreakerFailures,
		BreakerOpenFor:  time.Duration(conf.Network.BreakerOpenSecs) * time.Second,
	}, appLogger)

	start := time.Now().UTC().Truncate(time.Hour)
	rows := datasource.NewGenerator(*seed).Days(start, *days)
	url := strings.TrimRight(conf.Network.APIURL, "/") + "/data"
	if len(rows) == 0 {
		fmt.Println("Nothing to seed.")
		return
	}
	appLogger.Info("First reading: %s", rows[0].Timestamp.Format(time.RFC3339))
	appLogger.Info("Last reading: %s", rows[len(rows)-1].Timestamp.Format(time.RFC3339))
	appLogger.Info("Posting %d readings to %s", len(rows), url)

	sent, failed := 0, 0
	for _, r := range rows {
		if ctx.Err() != nil {
			break
		}
		err := client.PostJSON(ctx, url, seedPayload{
			Timestamp:          r.Timestamp.Format(time.RFC3339),
			AmbientTemperature: r.AmbientTemperature,
			Power:              r.Power,
			WindSpeed:          r.WindSpeed,
		}, http.StatusCreated)
		if err != nil {
			failed++
			appLogger.Error("Failed to insert reading at %s: %v", r.Timestamp.Format(time.RFC3339), err)
			continue
		}
		sent++
	}

	fmt.Printf("Seeding finished: %d inserted, %d failed.\n", sent, failed)
}
