package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	PolicyFirstExtreme  = "first-extreme"
	PolicySeriesMinimum = "series-minimum"
)

var validate = validator.New()

type Config struct {
	Environment string
	LogLevel    zerolog.Level
	HTTPTimeout time.Duration `validate:"gt=0"`
	// QueryTimeout bounds one whole user query, all upstream calls included
	QueryTimeout time.Duration `validate:"gt=0"`

	TelegramToken     string `validate:"required"`
	WorldTidesAPIKey  string `validate:"required"`
	OpenWeatherAPIKey string `validate:"required"`

	WorldTidesBaseURL  string `validate:"required,url"`
	OpenWeatherBaseURL string `validate:"required,url"`
	NominatimBaseURL   string `validate:"required,url"`
	UserAgent          string `validate:"required"`
	WeatherLang        string
	TideTimezone       string

	ChartDir        string `validate:"required"`
	ChartBackground string `validate:"required"`
	ChartBucket     string
	ChartPrefix     string
	ChartS3Endpoint string

	AlertInterval    time.Duration `validate:"gte=1m"`
	AlertEvalTimeout time.Duration `validate:"gt=0"`
	AlertPolicy      string        `validate:"oneof=first-extreme series-minimum"`

	HTTPAddr string
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the per-request upstream timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

func WithQueryTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.QueryTimeout = timeout
	}
}

// WithCredentials sets the bot token and the provider API keys
func WithCredentials(telegramToken, worldTidesKey, openWeatherKey string) Option {
	return func(c *Config) {
		c.TelegramToken = telegramToken
		c.WorldTidesAPIKey = worldTidesKey
		c.OpenWeatherAPIKey = openWeatherKey
	}
}

func WithProviderURLs(worldTides, openWeather, nominatim string) Option {
	return func(c *Config) {
		c.WorldTidesBaseURL = worldTides
		c.OpenWeatherBaseURL = openWeather
		c.NominatimBaseURL = nominatim
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Config) {
		c.UserAgent = userAgent
	}
}

func WithWeatherLang(lang string) Option {
	return func(c *Config) {
		c.WeatherLang = lang
	}
}

func WithTideTimezone(tz string) Option {
	return func(c *Config) {
		c.TideTimezone = tz
	}
}

// WithChart sets where charts are written and which background image they use
func WithChart(dir, background string) Option {
	return func(c *Config) {
		c.ChartDir = dir
		c.ChartBackground = background
	}
}

// WithChartArchive enables uploading rendered charts to an S3 bucket
func WithChartArchive(bucket, prefix, endpoint string) Option {
	return func(c *Config) {
		c.ChartBucket = bucket
		c.ChartPrefix = prefix
		c.ChartS3Endpoint = endpoint
	}
}

func WithAlerts(interval, evalTimeout time.Duration, policy string) Option {
	return func(c *Config) {
		c.AlertInterval = interval
		c.AlertEvalTimeout = evalTimeout
		c.AlertPolicy = policy
	}
}

func WithHTTPAddr(addr string) Option {
	return func(c *Config) {
		c.HTTPAddr = addr
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:        "production",
		LogLevel:           zerolog.InfoLevel,
		HTTPTimeout:        10 * time.Second,
		QueryTimeout:       30 * time.Second,
		WorldTidesBaseURL:  "https://www.worldtides.info",
		OpenWeatherBaseURL: "https://api.openweathermap.org",
		NominatimBaseURL:   "https://nominatim.openstreetmap.org",
		UserAgent:          "mare-bot",
		WeatherLang:        "pt_br",
		ChartDir:           "graficos",
		ChartBackground:    "imagens/sand_and_sea.jpg",
		ChartPrefix:        "charts/",
		AlertInterval:      10 * time.Minute,
		AlertEvalTimeout:   30 * time.Second,
		AlertPolicy:        PolicyFirstExtreme,
		HTTPAddr:           ":8080",
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Validate reports missing credentials and out-of-range settings
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Location returns the zone used for HH:MM labels and date-window midnights
func (c *Config) Location() (*time.Location, error) {
	if c.TideTimezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TideTimezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %s: %w", c.TideTimezone, err)
	}
	return loc, nil
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// LoadFromEnv loads configuration from environment variables, reading .env first if present
func LoadFromEnv() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	defaults := New()
	return New(
		WithEnvironment(getEnvOrDefault("ENV", defaults.Environment)),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", defaults.HTTPTimeout)),
		WithQueryTimeout(getDurationEnvOrDefault("QUERY_TIMEOUT", defaults.QueryTimeout)),
		WithCredentials(
			os.Getenv("TELEGRAM_TOKEN"),
			os.Getenv("WORLDTIDES_API_KEY"),
			os.Getenv("OPENWEATHER_API_KEY"),
		),
		WithProviderURLs(
			getEnvOrDefault("WORLDTIDES_BASE_URL", defaults.WorldTidesBaseURL),
			getEnvOrDefault("OPENWEATHER_BASE_URL", defaults.OpenWeatherBaseURL),
			getEnvOrDefault("NOMINATIM_BASE_URL", defaults.NominatimBaseURL),
		),
		WithUserAgent(getEnvOrDefault("USER_AGENT", defaults.UserAgent)),
		WithWeatherLang(getEnvOrDefault("WEATHER_LANG", defaults.WeatherLang)),
		WithTideTimezone(os.Getenv("TIDE_TIMEZONE")),
		WithChart(
			getEnvOrDefault("CHART_DIR", defaults.ChartDir),
			getEnvOrDefault("CHART_BACKGROUND", defaults.ChartBackground),
		),
		WithChartArchive(
			os.Getenv("CHART_BUCKET"),
			getEnvOrDefault("CHART_PREFIX", defaults.ChartPrefix),
			os.Getenv("CHART_S3_ENDPOINT"),
		),
		WithAlerts(
			getDurationEnvOrDefault("ALERT_INTERVAL", defaults.AlertInterval),
			getDurationEnvOrDefault("ALERT_EVAL_TIMEOUT", defaults.AlertEvalTimeout),
			getEnvOrDefault("ALERT_POLICY", defaults.AlertPolicy),
		),
		WithHTTPAddr(getEnvOrDefault("HTTP_ADDR", defaults.HTTPAddr)),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Warn().Str("key", key).Msg("Invalid duration value in environment variable, using default")
	}
	return defaultValue
}
