package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// browser origins allowed by CORS
	CorsAllowedOrigins []string `toml:"cors_allowed_origins"`

	// inbound requests allowed per minute, per client, on the diary routes
	DiaryRateLimitAllowedPerMin int `toml:"diary_rate_limit_allowed_per_min"`

	// generative text api
	AIBaseURL        string `toml:"ai_base_url"`
	AIModel          string `toml:"ai_model"`
	AITimeoutSeconds int    `toml:"ai_timeout_seconds"`

	// outbound ai rate limiter
	AIMaxRequestsPerMinute int `toml:"ai_max_requests_per_minute"`
	AIBaseMinDelayMs       int `toml:"ai_base_min_delay_ms"`
	AIMaxAdaptiveDelayMs   int `toml:"ai_max_adaptive_delay_ms"`

	// outbound ai retries
	AIMaxAttempts            int `toml:"ai_max_attempts"`
	AIRetryBaseDelayMs       int `toml:"ai_retry_base_delay_ms"`
	AIRateLimitRetryDelayMs  int `toml:"ai_rate_limit_retry_delay_ms"`
	RecommendationsCacheSize int `toml:"recommendations_cache_size_mb"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] not found", env)
	}
	return cfg, nil
}

// Load reads the TOML file and returns the config of the given environment,
// with defaults filled in for the values left out.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	cfg.SetDefaults()

	return cfg, nil
}

func (c *Config) SetDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
	if c.PostgresHost == "" {
		c.PostgresHost = "localhost"
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.PostgresDBName == "" {
		c.PostgresDBName = "fitdiary"
	}
	if c.RedisHost == "" {
		c.RedisHost = "localhost"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if len(c.CorsAllowedOrigins) == 0 {
		c.CorsAllowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	if c.DiaryRateLimitAllowedPerMin == 0 {
		c.DiaryRateLimitAllowedPerMin = 30
	}
	if c.AIBaseURL == "" {
		c.AIBaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.AIModel == "" {
		c.AIModel = "gemini-1.5-flash"
	}
	if c.AITimeoutSeconds == 0 {
		c.AITimeoutSeconds = 45
	}
	if c.AIMaxRequestsPerMinute == 0 {
		c.AIMaxRequestsPerMinute = 15
	}
	if c.AIBaseMinDelayMs == 0 {
		c.AIBaseMinDelayMs = 4000
	}
	if c.AIMaxAdaptiveDelayMs == 0 {
		c.AIMaxAdaptiveDelayMs = 30000
	}
	if c.AIMaxAttempts == 0 {
		c.AIMaxAttempts = 3
	}
	if c.AIRetryBaseDelayMs == 0 {
		c.AIRetryBaseDelayMs = 1000
	}
	if c.AIRateLimitRetryDelayMs == 0 {
		c.AIRateLimitRetryDelayMs = 5000
	}
	if c.RecommendationsCacheSize == 0 {
		c.RecommendationsCacheSize = 10
	}
}
