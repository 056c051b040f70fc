package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Upstream  UpstreamConfig  `yaml:"upstream" envconfig:"UPSTREAM"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
	Fallback  FallbackConfig  `yaml:"fallback" envconfig:"FALLBACK"`
	Monitor   MonitorConfig   `yaml:"monitor" envconfig:"MONITOR"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"20s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"*"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains inbound rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"100"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/stockpulse.log"`
}

// UpstreamConfig configures the stock price API client
type UpstreamConfig struct {
	BaseURL        string        `yaml:"base_url" envconfig:"BASE_URL" default:"http://20.244.56.144/evaluation-service"`
	Token          string        `yaml:"token" envconfig:"TOKEN"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"10s"`
	MaxConcurrency int           `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" default:"5"`
	RateLimit      float64       `yaml:"rate_limit" envconfig:"RATE_LIMIT" default:"20"`
	Burst          int           `yaml:"burst" envconfig:"BURST" default:"10"`
}

// AnalyticsConfig holds the correlation and analysis defaults
type AnalyticsConfig struct {
	SymbolLimit     int   `yaml:"symbol_limit" envconfig:"SYMBOL_LIMIT" default:"5"`
	DefaultMinutes  int   `yaml:"default_minutes" envconfig:"DEFAULT_MINUTES" default:"60"`
	AnalysisMinutes int   `yaml:"analysis_minutes" envconfig:"ANALYSIS_MINUTES" default:"50"`
	MaxMinutes      int   `yaml:"max_minutes" envconfig:"MAX_MINUTES" default:"1440"`
	Intervals       []int `yaml:"intervals" envconfig:"INTERVALS" default:"30,60"`
}

// FallbackConfig controls synthetic data substitution when the upstream fails
type FallbackConfig struct {
	Enabled    bool          `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	Seed       int64         `yaml:"seed" envconfig:"SEED" default:"0"`
	Resolution time.Duration `yaml:"resolution" envconfig:"RESOLUTION" default:"1m"`
}

// MonitorConfig controls the scheduled upstream probe
type MonitorConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	Schedule string `yaml:"schedule" envconfig:"SCHEDULE" default:"@every 1m"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0"`
}

// Load loads configuration from .env, environment variables and config file
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile loads configuration using the given YAML file. An empty path skips the file.
func LoadFile(configFile string) (*Config, error) {
	// .env never overrides variables that are already set
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if cfg.Upstream.Token == "" {
		cfg.Upstream.Token = os.Getenv(LegacyTokenEnv)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file on top of the defaults
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeConfigs merges file config with env config. An env value wins when it
// differs from the default, i.e. when it was set explicitly.
func mergeConfigs(fileConfig, envConfig Config) Config {
	def := Default()
	out := envConfig

	out.Server.Host = pick(fileConfig.Server.Host, envConfig.Server.Host, def.Server.Host)
	out.Server.Port = pick(fileConfig.Server.Port, envConfig.Server.Port, def.Server.Port)
	out.Server.ReadTimeout = pick(fileConfig.Server.ReadTimeout, envConfig.Server.ReadTimeout, def.Server.ReadTimeout)
	out.Server.WriteTimeout = pick(fileConfig.Server.WriteTimeout, envConfig.Server.WriteTimeout, def.Server.WriteTimeout)
	out.Server.IdleTimeout = pick(fileConfig.Server.IdleTimeout, envConfig.Server.IdleTimeout, def.Server.IdleTimeout)
	out.Server.MaxHeaderBytes = pick(fileConfig.Server.MaxHeaderBytes, envConfig.Server.MaxHeaderBytes, def.Server.MaxHeaderBytes)
	out.Server.ShutdownTimeout = pick(fileConfig.Server.ShutdownTimeout, envConfig.Server.ShutdownTimeout, def.Server.ShutdownTimeout)
	out.Server.RequestTimeout = pick(fileConfig.Server.RequestTimeout, envConfig.Server.RequestTimeout, def.Server.RequestTimeout)

	out.Security.AllowedOrigins = pickSlice(fileConfig.Security.AllowedOrigins, envConfig.Security.AllowedOrigins, def.Security.AllowedOrigins)
	out.Security.EnableCORS = pick(fileConfig.Security.EnableCORS, envConfig.Security.EnableCORS, def.Security.EnableCORS)
	out.Security.RateLimit.Enabled = pick(fileConfig.Security.RateLimit.Enabled, envConfig.Security.RateLimit.Enabled, def.Security.RateLimit.Enabled)
	out.Security.RateLimit.RPS = pick(fileConfig.Security.RateLimit.RPS, envConfig.Security.RateLimit.RPS, def.Security.RateLimit.RPS)
	out.Security.RateLimit.Burst = pick(fileConfig.Security.RateLimit.Burst, envConfig.Security.RateLimit.Burst, def.Security.RateLimit.Burst)

	out.Logging.Level = pick(fileConfig.Logging.Level, envConfig.Logging.Level, def.Logging.Level)
	out.Logging.Format = pick(fileConfig.Logging.Format, envConfig.Logging.Format, def.Logging.Format)
	out.Logging.Output = pick(fileConfig.Logging.Output, envConfig.Logging.Output, def.Logging.Output)
	out.Logging.FilePath = pick(fileConfig.Logging.FilePath, envConfig.Logging.FilePath, def.Logging.FilePath)

	out.Upstream.BaseURL = pick(fileConfig.Upstream.BaseURL, envConfig.Upstream.BaseURL, def.Upstream.BaseURL)
	out.Upstream.Token = pick(fileConfig.Upstream.Token, envConfig.Upstream.Token, def.Upstream.Token)
	out.Upstream.Timeout = pick(fileConfig.Upstream.Timeout, envConfig.Upstream.Timeout, def.Upstream.Timeout)
	out.Upstream.MaxConcurrency = pick(fileConfig.Upstream.MaxConcurrency, envConfig.Upstream.MaxConcurrency, def.Upstream.MaxConcurrency)
	out.Upstream.RateLimit = pick(fileConfig.Upstream.RateLimit, envConfig.Upstream.RateLimit, def.Upstream.RateLimit)
	out.Upstream.Burst = pick(fileConfig.Upstream.Burst, envConfig.Upstream.Burst, def.Upstream.Burst)

	out.Analytics.SymbolLimit = pick(fileConfig.Analytics.SymbolLimit, envConfig.Analytics.SymbolLimit, def.Analytics.SymbolLimit)
	out.Analytics.DefaultMinutes = pick(fileConfig.Analytics.DefaultMinutes, envConfig.Analytics.DefaultMinutes, def.Analytics.DefaultMinutes)
	out.Analytics.AnalysisMinutes = pick(fileConfig.Analytics.AnalysisMinutes, envConfig.Analytics.AnalysisMinutes, def.Analytics.AnalysisMinutes)
	out.Analytics.MaxMinutes = pick(fileConfig.Analytics.MaxMinutes, envConfig.Analytics.MaxMinutes, def.Analytics.MaxMinutes)
	out.Analytics.Intervals = pickSlice(fileConfig.Analytics.Intervals, envConfig.Analytics.Intervals, def.Analytics.Intervals)

	out.Fallback.Enabled = pick(fileConfig.Fallback.Enabled, envConfig.Fallback.Enabled, def.Fallback.Enabled)
	out.Fallback.Seed = pick(fileConfig.Fallback.Seed, envConfig.Fallback.Seed, def.Fallback.Seed)
	out.Fallback.Resolution = pick(fileConfig.Fallback.Resolution, envConfig.Fallback.Resolution, def.Fallback.Resolution)

	out.Monitor.Enabled = pick(fileConfig.Monitor.Enabled, envConfig.Monitor.Enabled, def.Monitor.Enabled)
	out.Monitor.Schedule = pick(fileConfig.Monitor.Schedule, envConfig.Monitor.Schedule, def.Monitor.Schedule)

	out.Telemetry.Environment = pick(fileConfig.Telemetry.Environment, envConfig.Telemetry.Environment, def.Telemetry.Environment)
	out.Telemetry.TraceExporter = pick(fileConfig.Telemetry.TraceExporter, envConfig.Telemetry.TraceExporter, def.Telemetry.TraceExporter)
	out.Telemetry.MetricExporter = pick(fileConfig.Telemetry.MetricExporter, envConfig.Telemetry.MetricExporter, def.Telemetry.MetricExporter)
	out.Telemetry.SampleRatio = pick(fileConfig.Telemetry.SampleRatio, envConfig.Telemetry.SampleRatio, def.Telemetry.SampleRatio)

	return out
}

func pick[T comparable](file, env, def T) T {
	if env != def {
		return env
	}
	return file
}

func pickSlice[T comparable](file, env, def []T) []T {
	if !slices.Equal(env, def) {
		return env
	}
	return file
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid upstream base url: %q", c.Upstream.BaseURL)
	}
	c.Upstream.BaseURL = strings.TrimRight(c.Upstream.BaseURL, "/")

	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive")
	}

	if c.Upstream.MaxConcurrency < 1 {
		return fmt.Errorf("upstream max concurrency must be at least 1, got %d", c.Upstream.MaxConcurrency)
	}

	if c.Analytics.SymbolLimit < 1 {
		return fmt.Errorf("analytics symbol limit must be at least 1, got %d", c.Analytics.SymbolLimit)
	}

	if c.Analytics.MaxMinutes < 1 {
		return fmt.Errorf("analytics max minutes must be at least 1, got %d", c.Analytics.MaxMinutes)
	}

	for name, minutes := range map[string]int{
		"default_minutes":  c.Analytics.DefaultMinutes,
		"analysis_minutes": c.Analytics.AnalysisMinutes,
	} {
		if minutes < 1 || minutes > c.Analytics.MaxMinutes {
			return fmt.Errorf("analytics %s must be within [1, %d], got %d", name, c.Analytics.MaxMinutes, minutes)
		}
	}

	if c.Fallback.Resolution <= 0 {
		return fmt.Errorf("fallback resolution must be positive")
	}

	if c.Monitor.Enabled && strings.TrimSpace(c.Monitor.Schedule) == "" {
		return fmt.Errorf("monitor schedule is required when the monitor is enabled")
	}

	// Logs are always JSON
	c.Logging.Format = "json"

	switch c.Logging.Output {
	case "console", "stderr", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  20 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   100,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Upstream: UpstreamConfig{
			BaseURL:        DefaultUpstreamURL,
			Timeout:        10 * time.Second,
			MaxConcurrency: 5,
			RateLimit:      20,
			Burst:          10,
		},
		Analytics: AnalyticsConfig{
			SymbolLimit:     5,
			DefaultMinutes:  60,
			AnalysisMinutes: 50,
			MaxMinutes:      1440,
			Intervals:       []int{30, 60},
		},
		Fallback: FallbackConfig{
			Enabled:    true,
			Resolution: time.Minute,
		},
		Monitor: MonitorConfig{
			Enabled:  true,
			Schedule: "@every 1m",
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
