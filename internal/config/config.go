package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	CrimeDataPath   string
	WeatherDataPath string
	PlotPath        string
	SummaryPath     string
	MergedPath      string

	// Source schema. The temperature column name must match the header exactly.
	CrimeDateColumn          string
	WeatherDateColumn        string
	WeatherTemperatureColumn string

	DateCacheSize int

	LogLevel  string
	LogFormat string

	MetricsTextfile string
	PushgatewayURL  string

	// Kafka publishing is enabled when at least one broker is configured.
	KafkaBrokers   []string
	KafkaSinkTopic string

	// HTTPAddr keeps the process serving results after the run when set.
	HTTPAddr        string
	ShutdownTimeout time.Duration
}

// PublishEnabled reports whether observations should be published to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("ignoring unreadable .env file", "error", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseDateCacheSize()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		CrimeDataPath:   sharedcfg.EnvOrDefault("CRIME_DATA_PATH", "crime_data_2023.csv"),
		WeatherDataPath: sharedcfg.EnvOrDefault("WEATHER_DATA_PATH", "weather_data_2023.csv"),
		PlotPath:        sharedcfg.EnvOrDefault("PLOT_PATH", "temp_vs_crime.png"),
		SummaryPath:     sharedcfg.EnvOrDefault("SUMMARY_PATH", "regression_summary.txt"),
		MergedPath:      os.Getenv("MERGED_PATH"),

		CrimeDateColumn:          sharedcfg.EnvOrDefault("CRIME_DATE_COLUMN", "DATE OCC"),
		WeatherDateColumn:        sharedcfg.EnvOrDefault("WEATHER_DATE_COLUMN", "time"),
		WeatherTemperatureColumn: sharedcfg.EnvOrDefault("WEATHER_TEMPERATURE_COLUMN", "temperature_2m_max (°F)"),

		DateCacheSize: cacheSize,

		LogLevel:  sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),

		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		PushgatewayURL:  os.Getenv("PUSHGATEWAY_URL"),

		KafkaBrokers:   brokers,
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "crime-temperature-observations"),

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.CrimeDataPath == "" {
		return nil, errors.New("CRIME_DATA_PATH is required")
	}
	if cfg.WeatherDataPath == "" {
		return nil, errors.New("WEATHER_DATA_PATH is required")
	}
	if cfg.PlotPath == "" {
		return nil, errors.New("PLOT_PATH is required")
	}
	if cfg.SummaryPath == "" {
		return nil, errors.New("SUMMARY_PATH is required")
	}
	if cfg.PublishEnabled() && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parseDateCacheSize() (int, error) {
	s := os.Getenv("DATE_CACHE_SIZE")
	if s == "" {
		return 4096, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid DATE_CACHE_SIZE: must be a positive integer")
	}
	return n, nil
}
