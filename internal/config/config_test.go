package config

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetForTest removes keys for the duration of the test; t.Setenv registers the restore
func unsetForTest(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func validConfig(opts ...Option) *Config {
	base := []Option{WithCredentials("telegram-token", "tides-key", "weather-key")}
	return New(append(base, opts...)...)
}

func TestNewConfigWithDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "https://www.worldtides.info", cfg.WorldTidesBaseURL)
	assert.Equal(t, "https://api.openweathermap.org", cfg.OpenWeatherBaseURL)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.NominatimBaseURL)
	assert.Equal(t, "graficos", cfg.ChartDir)
	assert.Equal(t, "imagens/sand_and_sea.jpg", cfg.ChartBackground)
	assert.Equal(t, 10*time.Minute, cfg.AlertInterval)
	assert.Equal(t, PolicyFirstExtreme, cfg.AlertPolicy)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestWithEnvironment(t *testing.T) {
	cfg := New(WithEnvironment("development"))

	assert.Equal(t, "development", cfg.Environment)
}

func TestWithLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, New(WithLogLevel("debug")).LogLevel)
	assert.Equal(t, zerolog.InfoLevel, New(WithLogLevel("chatty")).LogLevel)
}

func TestWithHTTPTimeout(t *testing.T) {
	cfg := New(WithHTTPTimeout(30 * time.Second))

	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{
			name: "complete configuration",
			cfg:  validConfig(),
		},
		{
			name:    "missing credentials",
			cfg:     New(),
			wantErr: "TelegramToken",
		},
		{
			name:    "alert interval below one minute",
			cfg:     validConfig(WithAlerts(30*time.Second, time.Second, PolicyFirstExtreme)),
			wantErr: "AlertInterval",
		},
		{
			name:    "unknown alert policy",
			cfg:     validConfig(WithAlerts(time.Minute, time.Second, "average")),
			wantErr: "AlertPolicy",
		},
		{
			name:    "bad provider url",
			cfg:     validConfig(WithProviderURLs("not a url", "https://a.example", "https://b.example")),
			wantErr: "WorldTidesBaseURL",
		},
		{
			name:    "unknown timezone",
			cfg:     validConfig(WithTideTimezone("Mars/Olympus_Mons")),
			wantErr: "Mars/Olympus_Mons",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLocation(t *testing.T) {
	loc, err := New().Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = New(WithTideTimezone("America/Bahia")).Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Bahia", loc.String())
}

func TestInitializeLogging(t *testing.T) {
	cfg := New(WithEnvironment("local"), WithLogLevel("debug"))
	cfg.InitializeLogging()

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("TELEGRAM_TOKEN", "tg")
	t.Setenv("WORLDTIDES_API_KEY", "wt")
	t.Setenv("OPENWEATHER_API_KEY", "ow")
	t.Setenv("ALERT_INTERVAL", "15m")
	t.Setenv("ALERT_POLICY", PolicySeriesMinimum)
	t.Setenv("CHART_BUCKET", "charts-bucket")
	unsetForTest(t, "CHART_DIR", "TIDE_TIMEZONE")

	cfg := LoadFromEnv()

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "tg", cfg.TelegramToken)
	assert.Equal(t, "wt", cfg.WorldTidesAPIKey)
	assert.Equal(t, "ow", cfg.OpenWeatherAPIKey)
	assert.Equal(t, 15*time.Minute, cfg.AlertInterval)
	assert.Equal(t, PolicySeriesMinimum, cfg.AlertPolicy)
	assert.Equal(t, "charts-bucket", cfg.ChartBucket)
	assert.Equal(t, "charts/", cfg.ChartPrefix)
	assert.Equal(t, "graficos", cfg.ChartDir)
	assert.NoError(t, cfg.Validate())
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "value")
	unsetForTest(t, "NON_EXISTENT_VAR")

	assert.Equal(t, "value", getEnvOrDefault("TEST_ENV_VAR", "default"))
	assert.Equal(t, "default", getEnvOrDefault("NON_EXISTENT_VAR", "default"))
}

func TestGetDurationEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_DURATION", "10s")
	t.Setenv("TEST_BAD_DURATION", "ten seconds")

	assert.Equal(t, 10*time.Second, getDurationEnvOrDefault("TEST_DURATION", 5*time.Second))
	assert.Equal(t, 5*time.Second, getDurationEnvOrDefault("TEST_BAD_DURATION", 5*time.Second))
}
