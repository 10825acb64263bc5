package main

import (
	"context"
	"time"

	"sensor-etl/src/analysis"
	"sensor-etl/src/config"
	datasource "sensor-etl/src/data_source"
	"sensor-etl/src/logger"
	"sensor-etl/src/network"
	"sensor-etl/src/pipeline"
	"sensor-etl/src/storage"
)

// -----------------------------------------------------------------------------

// buildPipeline connects the target store and wires the ETL stages. The
// returned func releases the database.
func buildPipeline(ctx context.Context, conf *config.Config, appLogger *logger.Logger) (*pipeline.Pipeline, func(), error) {
	db, err := storage.NewDatabase(conf.Target, appLogger.Named("TargetDB"))
	if err != nil {
		return nil, nil, err
	}
	if err := db.Initialize(ctx); err != nil {
		return nil, nil, err
	}

	target := storage.NewTargetStore(db)
	if err := target.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	client := network.NewClient(network.ClientConfig{
		Timeout:         conf.RequestTimeout(),
		UserAgent:       conf.Network.UserAgent,
		BreakerName:     "source-api",
		BreakerFailures: conf.Network.BreakerFailures,
		BreakerOpenFor:  time.Duration(conf.Network.BreakerOpenSecs) * time.Second,
	}, appLogger.Named("Network"))

	signals := conf.Aggregation.Signals
	source := datasource.NewAPISource(client, conf.Network.APIURL, signals, appLogger.Named("Extract"))

	// already checked by Validate
	width, _ := conf.Window()
	facade := analysis.NewAnalysisFacade(width, signals, analysis.DdofFromMode(conf.Aggregation.StdMode), appLogger.Named("Aggregate"))

	p := pipeline.NewPipeline(source, facade, target, target, signals, appLogger.Named("ETL"))
	return p, func() { db.Close() }, nil
}
