package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Document store.
	DataDir      string
	DataInMemory bool

	// Weather service.
	WeatherBaseURL        string
	WeatherUsername       string
	WeatherPassword       string
	WeatherAPIToken       string
	WeatherCountry        string
	WeatherLanguage       string
	WeatherTimeout        time.Duration
	WeatherConcurrency    int
	WeatherBreakerFailure int
	WeatherTLSInsecure    bool
	WeatherTLSCAFile      string

	CoordinateMemoSize int

	// Result publishing. Disabled when KafkaBrokers is empty.
	KafkaBrokers     []string
	KafkaAlertsTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is honored if present;
// real environment variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parseDuration("WEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	concurrency, err := parseInt("WEATHER_CONCURRENCY", 1, 1)
	if err != nil {
		return nil, err
	}
	breakerFailures, err := parseInt("WEATHER_BREAKER_FAILURES", 5, 0)
	if err != nil {
		return nil, err
	}
	memoSize, err := parseInt("COORDINATE_MEMO_SIZE", 1000, 0)
	if err != nil {
		return nil, err
	}
	insecure, err := parseBool("WEATHER_TLS_INSECURE_SKIP_VERIFY", false)
	if err != nil {
		return nil, err
	}
	inMemory, err := parseBool("DATA_IN_MEMORY", false)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataDir:      sharedcfg.EnvOrDefault("DATA_DIR", "data/docstore"),
		DataInMemory: inMemory,

		WeatherBaseURL:        sharedcfg.EnvOrDefault("WEATHER_BASE_URL", "https://twcservice.mybluemix.net/api/weather"),
		WeatherUsername:       os.Getenv("WEATHER_USERNAME"),
		WeatherPassword:       os.Getenv("WEATHER_PASSWORD"),
		WeatherAPIToken:       os.Getenv("WEATHER_API_TOKEN"),
		WeatherCountry:        sharedcfg.EnvOrDefault("WEATHER_COUNTRY", "US"),
		WeatherLanguage:       sharedcfg.EnvOrDefault("WEATHER_LANGUAGE", "en-US"),
		WeatherTimeout:        weatherTimeout,
		WeatherConcurrency:    concurrency,
		WeatherBreakerFailure: breakerFailures,
		WeatherTLSInsecure:    insecure,
		WeatherTLSCAFile:      os.Getenv("WEATHER_TLS_CA_FILE"),

		CoordinateMemoSize: memoSize,

		KafkaBrokers:     brokers,
		KafkaAlertsTopic: sharedcfg.EnvOrDefault("KAFKA_ALERTS_TOPIC", "zip-weather-alerts"),
	}

	if cfg.WeatherBaseURL == "" {
		return nil, errors.New("WEATHER_BASE_URL is required")
	}
	if !cfg.DataInMemory && cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required unless DATA_IN_MEMORY is true")
	}
	if (cfg.WeatherUsername == "") != (cfg.WeatherPassword == "") {
		return nil, errors.New("WEATHER_USERNAME and WEATHER_PASSWORD must be set together")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaAlertsTopic == "" {
		return nil, errors.New("KAFKA_ALERTS_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// PublishingEnabled reports whether batch results go to Kafka.
func (c *Config) PublishingEnabled() bool {
	return len(c.KafkaBrokers) > 0
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

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
