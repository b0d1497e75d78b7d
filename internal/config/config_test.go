package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpoint, cfg.Source.Endpoint)
	assert.Equal(t, 4000, cfg.Source.Limit)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout())
	assert.Equal(t, DefaultBoundaryURL, cfg.Boundary.URL)
	assert.Equal(t, "nyc_wifi_clean_map.html", cfg.Map.OutputPath)
	assert.InDelta(t, 40.7128, cfg.Map.CenterLat, 0.00001)
	assert.InDelta(t, -74.0060, cfg.Map.CenterLon, 0.00001)
	assert.Equal(t, 11, cfg.Map.Zoom)
	assert.Contains(t, cfg.Map.Attribution, "OpenStreetMap")
	assert.Contains(t, cfg.Map.Attribution, "CARTO")
	assert.True(t, cfg.Map.OpenBrowser)
	assert.Equal(t, time.Second, cfg.Lifecycle.PollInterval())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
source:
  limit: 500
map:
  output_path: out/map.html
  open_browser: false
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Source.Limit)
	assert.Equal(t, "out/map.html", cfg.Map.OutputPath)
	assert.False(t, cfg.Map.OpenBrowser)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 11, cfg.Map.Zoom)
	assert.Equal(t, DefaultEndpoint, cfg.Source.Endpoint)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
source:
  limit: 500
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("HOTSPOT_SOURCE_LIMIT", "25")
	t.Setenv("HOTSPOT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, 25, cfg.Source.Limit)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("HOTSPOT_MAP_OUTPUT_PATH", "/tmp/other.html")
	t.Setenv("HOTSPOT_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.html", cfg.Map.OutputPath)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("source: [unterminated"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	return &Config{
		Source:    SourceConfig{Endpoint: DefaultEndpoint, Limit: 4000, TimeoutSecs: 30},
		Boundary:  BoundaryConfig{URL: DefaultBoundaryURL},
		Map:       MapConfig{OutputPath: DefaultOutputPath, CenterLat: 40.7128, CenterLon: -74.0060, Zoom: 11},
		Lifecycle: LifecycleConfig{PollIntervalMs: 1000},
	}
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate())
}

func TestValidate_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Source.Endpoint = ""
	cfg.Boundary.URL = ""
	cfg.Map.OutputPath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.endpoint is required")
	assert.Contains(t, err.Error(), "boundary.url is required")
	assert.Contains(t, err.Error(), "map.output_path is required")
}

func TestValidate_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero limit", func(c *Config) { c.Source.Limit = 0 }, "source.limit"},
		{"zero timeout", func(c *Config) { c.Source.TimeoutSecs = 0 }, "source.timeout_secs"},
		{"lat high", func(c *Config) { c.Map.CenterLat = 91 }, "map.center_lat"},
		{"lon low", func(c *Config) { c.Map.CenterLon = -181 }, "map.center_lon"},
		{"zoom", func(c *Config) { c.Map.Zoom = 25 }, "map.zoom"},
		{"poll", func(c *Config) { c.Lifecycle.PollIntervalMs = 0 }, "lifecycle.poll_interval_ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
