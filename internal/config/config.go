package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Time series store.
	SeriesSource      string
	SeriesPath        string
	SeriesSQLitePath  string
	SeriesSQLiteTable string
	SeriesLocation    string

	// Model slot and performance log.
	ModelStore    string
	ModelPath     string
	ModelBoltPath string
	ModelCache    bool
	PerfLogPath   string

	// Training.
	TestFraction   float64
	Seed           int64
	Trees          int
	MaxDepth       int
	MinSamplesLeaf int
	SplitStrategy  string

	// Alerting.
	TrendWindow   int
	AlertInterval time.Duration

	// Alert publishing.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaAlertTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	alertInterval, err := parseDuration("ALERT_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}

	testFraction, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("TRAIN_TEST_FRACTION", "0.2"), 64)
	if err != nil || testFraction <= 0 || testFraction >= 1 {
		return nil, errors.New("invalid TRAIN_TEST_FRACTION: must be between 0 and 1")
	}

	seed, err := strconv.ParseInt(sharedcfg.EnvOrDefault("TRAIN_SEED", "42"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid TRAIN_SEED")
	}

	trees, err := parseInt("TRAIN_TREES", 200, 1)
	if err != nil {
		return nil, err
	}
	maxDepth, err := parseInt("TRAIN_MAX_DEPTH", 0, 0)
	if err != nil {
		return nil, err
	}
	minLeaf, err := parseInt("TRAIN_MIN_SAMPLES_LEAF", 1, 1)
	if err != nil {
		return nil, err
	}
	trendWindow, err := parseInt("TREND_WINDOW", 3, 1)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SeriesSource:      sharedcfg.EnvOrDefault("SERIES_SOURCE", "csv"),
		SeriesPath:        sharedcfg.EnvOrDefault("SERIES_PATH", "data/aqi_weather.csv"),
		SeriesSQLitePath:  sharedcfg.EnvOrDefault("SERIES_SQLITE_PATH", "data/aqi_weather.db"),
		SeriesSQLiteTable: sharedcfg.EnvOrDefault("SERIES_SQLITE_TABLE", "readings"),
		SeriesLocation:    os.Getenv("SERIES_LOCATION"),

		ModelStore:    sharedcfg.EnvOrDefault("MODEL_STORE", "file"),
		ModelPath:     sharedcfg.EnvOrDefault("MODEL_PATH", "models/pm25_rf.json"),
		ModelBoltPath: sharedcfg.EnvOrDefault("MODEL_BOLT_PATH", "models/models.db"),
		ModelCache:    os.Getenv("MODEL_CACHE") == "true",
		PerfLogPath:   sharedcfg.EnvOrDefault("PERF_LOG_PATH", "models/performance.log"),

		TestFraction:   testFraction,
		Seed:           seed,
		Trees:          trees,
		MaxDepth:       maxDepth,
		MinSamplesLeaf: minLeaf,
		SplitStrategy:  sharedcfg.EnvOrDefault("SPLIT_STRATEGY", "random"),

		TrendWindow:   trendWindow,
		AlertInterval: alertInterval,

		KafkaEnabled:    os.Getenv("ALERTS_KAFKA_ENABLED") == "true",
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertTopic: sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "air-quality-alerts"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	switch cfg.SeriesSource {
	case "csv", "sqlite":
	default:
		return nil, fmt.Errorf("invalid SERIES_SOURCE %q: want csv or sqlite", cfg.SeriesSource)
	}
	switch cfg.ModelStore {
	case "file", "bolt":
	default:
		return nil, fmt.Errorf("invalid MODEL_STORE %q: want file or bolt", cfg.ModelStore)
	}
	switch cfg.SplitStrategy {
	case "random", "chronological":
	default:
		return nil, fmt.Errorf("invalid SPLIT_STRATEGY %q: want random or chronological", cfg.SplitStrategy)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when ALERTS_KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaAlertTopic == "" {
		return nil, errors.New("KAFKA_ALERT_TOPIC is required when ALERTS_KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def, minimum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", key, minimum)
	}
	return n, nil
}
