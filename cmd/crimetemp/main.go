package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/crime-temperature-analysis/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/crime-temperature-analysis/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/crime-temperature-analysis/internal/adapter/kafka"
	"github.com/couchcryptid/crime-temperature-analysis/internal/adapter/plot"
	"github.com/couchcryptid/crime-temperature-analysis/internal/adapter/report"
	"github.com/couchcryptid/crime-temperature-analysis/internal/config"
	"github.com/couchcryptid/crime-temperature-analysis/internal/domain"
	"github.com/couchcryptid/crime-temperature-analysis/internal/observability"
	"github.com/couchcryptid/crime-temperature-analysis/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dates, err := domain.NewDateParser(cfg.DateCacheSize)
	if err != nil {
		return err
	}
	schema := domain.Schema{
		CrimeDate:          cfg.CrimeDateColumn,
		WeatherDate:        cfg.WeatherDateColumn,
		WeatherTemperature: cfg.WeatherTemperatureColumn,
	}

	p := pipeline.New(
		csvfile.NewLoader(cfg.CrimeDataPath, cfg.WeatherDataPath, logger),
		domain.NewPreparer(schema, dates),
		plot.NewScatter(cfg.PlotPath, logger),
		report.NewWriter(os.Stdout, cfg.SummaryPath, logger),
		logger,
		metrics,
	)

	if cfg.MergedPath != "" {
		p.WithExporter(csvfile.NewExporter(cfg.MergedPath, logger))
	}

	if cfg.PublishEnabled() {
		publisher := kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		p.WithPublisher(publisher)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	}

	_, runErr := p.Run(ctx)
	exportMetrics(ctx, cfg, logger, metrics)
	if runErr != nil {
		return runErr
	}

	if cfg.HTTPAddr == "" {
		return nil
	}
	return serve(ctx, cfg, p, logger, metrics)
}

// exportMetrics writes the run metrics to the configured sinks. Failures are
// logged and do not change the exit status.
func exportMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) {
	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("metrics textfile export failed", "error", err)
		}
	}
	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(ctx, cfg.PushgatewayURL); err != nil {
			logger.Error("metrics push failed", "error", err)
		}
	}
}

// serve keeps the results available over HTTP until SIGINT or SIGTERM.
func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger, metrics *observability.Metrics) error {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, cfg.PlotPath, metrics.Gatherer(), logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}
