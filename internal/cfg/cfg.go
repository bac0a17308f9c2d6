package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	// Training corpora
	BenignPath string
	DGAPath    string
	TrancoPath string
	TrancoTopN int
	FeedURL    string

	// Stacking fit
	HoldoutRatio float64
	Seed         int64
	StripSuffix  bool
	OverlongMode string // "truncate" or "reject"

	// Live ingest
	StreamURL string
	Ping      time.Duration

	// System
	DataPath    string
	MetricsPort int
	HTTPTimeout time.Duration
	LogLevel    string
}

type ConfigFile struct {
	Datasets struct {
		Benign     string `yaml:"benign"`
		DGA        string `yaml:"dga"`
		Tranco     string `yaml:"tranco"`
		TrancoTopN int    `yaml:"trancoTopN"`
		FeedURL    string `yaml:"feedURL"`
	} `yaml:"datasets"`

	Model struct {
		HoldoutRatio float64 `yaml:"holdoutRatio"`
		Seed         int64   `yaml:"seed"`
		StripSuffix  bool    `yaml:"stripSuffix"`
		OverlongMode string  `yaml:"overlongMode"`
	} `yaml:"model"`

	Stream struct {
		URL          string `yaml:"url"`
		PingInterval string `yaml:"pingInterval"`
	} `yaml:"stream"`

	System struct {
		DataPath    string `yaml:"dataPath"`
		MetricsPort int    `yaml:"metricsPort"`
		HTTPTimeout string `yaml:"httpTimeout"`
		LogLevel    string `yaml:"logLevel"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	ping, err := time.ParseDuration(config.Stream.PingInterval)
	if err != nil {
		ping = 15 * time.Second
	}

	httpTimeout, err := time.ParseDuration(config.System.HTTPTimeout)
	if err != nil {
		httpTimeout = 10 * time.Second
	}

	settings := Settings{
		BenignPath:   getEnvOrDefault("BENIGN_PATH", config.Datasets.Benign),
		DGAPath:      getEnvOrDefault("DGA_PATH", config.Datasets.DGA),
		TrancoPath:   getEnvOrDefault("TRANCO_PATH", config.Datasets.Tranco),
		TrancoTopN:   getIntFromEnvOrConfig("TRANCO_TOP_N", config.Datasets.TrancoTopN),
		FeedURL:      getEnvOrDefault("FEED_URL", config.Datasets.FeedURL),
		HoldoutRatio: getFloatFromEnvOrConfig("HOLDOUT_RATIO", config.Model.HoldoutRatio),
		Seed:         getInt64FromEnvOrConfig("TRAIN_SEED", config.Model.Seed),
		StripSuffix:  getBoolFromEnvOrConfig("STRIP_SUFFIX", config.Model.StripSuffix),
		OverlongMode: getEnvOrDefault("OVERLONG_MODE", config.Model.OverlongMode),
		StreamURL:    getEnvOrDefault("STREAM_URL", config.Stream.URL),
		Ping:         ping,
		DataPath:     getEnvOrDefault("DATA_PATH", config.System.DataPath),
		MetricsPort:  getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort),
		HTTPTimeout:  httpTimeout,
		LogLevel:     getEnvOrDefault("LOG_LEVEL", config.System.LogLevel),
	}
	applyDefaults(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		BenignPath:   os.Getenv("BENIGN_PATH"),
		DGAPath:      os.Getenv("DGA_PATH"),
		TrancoPath:   os.Getenv("TRANCO_PATH"),
		TrancoTopN:   getIntOrDefault("TRANCO_TOP_N", 0),
		FeedURL:      os.Getenv("FEED_URL"),
		HoldoutRatio: getFloatOrDefault("HOLDOUT_RATIO", 0),
		Seed:         getInt64OrDefault("TRAIN_SEED", 0),
		StripSuffix:  getBoolOrDefault("STRIP_SUFFIX", false),
		OverlongMode: os.Getenv("OVERLONG_MODE"),
		StreamURL:    os.Getenv("STREAM_URL"),
		Ping:         getDurationOrDefault("PING_INTERVAL", 15*time.Second),
		DataPath:     os.Getenv("DATA_PATH"), // optional
		MetricsPort:  getIntOrDefault("METRICS_PORT", 0),
		HTTPTimeout:  getDurationOrDefault("HTTP_TIMEOUT", 10*time.Second),
		LogLevel:     os.Getenv("LOG_LEVEL"),
	}
	applyDefaults(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func applyDefaults(s *Settings) {
	if s.HoldoutRatio == 0 {
		s.HoldoutRatio = DefaultHoldoutRatio
	}
	if s.Seed == 0 {
		s.Seed = DefaultSeed
	}
	if s.OverlongMode == "" {
		s.OverlongMode = OverlongTruncate
	}
	if s.MetricsPort == 0 {
		s.MetricsPort = DefaultMetricsPort
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return getIntOrDefault(key, 0)
}

func getInt64FromEnvOrConfig(key string, configValue int64) int64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseInt(env, 10, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return getInt64OrDefault(key, 0)
}

func getFloatFromEnvOrConfig(key string, configValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return getFloatOrDefault(key, 0)
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.HoldoutRatio <= 0 || settings.HoldoutRatio >= 0.5 {
		return fmt.Errorf("holdout ratio must be between 0 and 0.5 exclusive, got %f", settings.HoldoutRatio)
	}

	mode := strings.ToLower(settings.OverlongMode)
	if mode != OverlongTruncate && mode != OverlongReject {
		return fmt.Errorf("overlong mode must be %q or %q, got %q", OverlongTruncate, OverlongReject, settings.OverlongMode)
	}
	settings.OverlongMode = mode

	if settings.Ping < time.Second || settings.Ping > 5*time.Minute {
		return fmt.Errorf("ping interval must be between 1s and 5m, got %v", settings.Ping)
	}
	if settings.HTTPTimeout < time.Second || settings.HTTPTimeout > time.Minute {
		return fmt.Errorf("HTTP timeout must be between 1s and 1m, got %v", settings.HTTPTimeout)
	}

	if settings.MetricsPort < 1024 || settings.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if settings.TrancoTopN < 0 {
		return fmt.Errorf("tranco topN must be non-negative, got %d", settings.TrancoTopN)
	}

	if settings.StreamURL != "" && !strings.HasPrefix(settings.StreamURL, "ws") {
		return fmt.Errorf("stream URL must be a websocket URL, got %q", settings.StreamURL)
	}

	return nil
}
