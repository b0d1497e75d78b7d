package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source" mapstructure:"source"`
	Boundary  BoundaryConfig  `yaml:"boundary" mapstructure:"boundary"`
	Map       MapConfig       `yaml:"map" mapstructure:"map"`
	Lifecycle LifecycleConfig `yaml:"lifecycle" mapstructure:"lifecycle"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SourceConfig configures the hotspot open-data endpoint.
type SourceConfig struct {
	Endpoint    string `yaml:"endpoint" mapstructure:"endpoint"`
	Limit       int    `yaml:"limit" mapstructure:"limit"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout returns the request timeout as a duration.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// BoundaryConfig configures the ZIP-code boundary GeoJSON source.
type BoundaryConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// MapConfig configures the rendered map artifact.
type MapConfig struct {
	OutputPath  string  `yaml:"output_path" mapstructure:"output_path"`
	CenterLat   float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLon   float64 `yaml:"center_lon" mapstructure:"center_lon"`
	Zoom        int     `yaml:"zoom" mapstructure:"zoom"`
	TilesURL    string  `yaml:"tiles_url" mapstructure:"tiles_url"`
	Attribution string  `yaml:"attribution" mapstructure:"attribution"`
	OpenBrowser bool    `yaml:"open_browser" mapstructure:"open_browser"`
}

// LifecycleConfig configures the post-render idle loop.
type LifecycleConfig struct {
	PollIntervalMs int `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
}

// PollInterval returns the idle loop tick as a duration.
func (l LifecycleConfig) PollInterval() time.Duration {
	return time.Duration(l.PollIntervalMs) * time.Millisecond
}

// ServerConfig configures serve mode.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Defaults for the NYC hotspot map.
const (
	DefaultEndpoint    = "https://data.cityofnewyork.us/resource/yjub-udmw.json"
	DefaultBoundaryURL = "https://raw.githubusercontent.com/OpenDataDE/State-zip-code-GeoJSON/master/ny_new_york_zip_codes_geo.min.json"
	DefaultOutputPath  = "nyc_wifi_clean_map.html"
	DefaultTilesURL    = "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png"
	DefaultAttribution = `&copy; <a href="http://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors, &copy; <a href="https://carto.com/attributions">CARTO</a>`
)

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HOTSPOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.endpoint", DefaultEndpoint)
	v.SetDefault("source.limit", 4000)
	v.SetDefault("source.timeout_secs", 30)
	v.SetDefault("source.user_agent", "hotspot-cli/1.0")
	v.SetDefault("boundary.url", DefaultBoundaryURL)
	v.SetDefault("map.output_path", DefaultOutputPath)
	v.SetDefault("map.center_lat", 40.7128)
	v.SetDefault("map.center_lon", -74.0060)
	v.SetDefault("map.zoom", 11)
	v.SetDefault("map.tiles_url", DefaultTilesURL)
	v.SetDefault("map.attribution", DefaultAttribution)
	v.SetDefault("map.open_browser", true)
	v.SetDefault("lifecycle.poll_interval_ms", 1000)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings the pipeline depends on.
func (c *Config) Validate() error {
	var problems []string

	if c.Source.Endpoint == "" {
		problems = append(problems, "source.endpoint is required")
	}
	if c.Source.Limit <= 0 {
		problems = append(problems, "source.limit must be positive")
	}
	if c.Source.TimeoutSecs <= 0 {
		problems = append(problems, "source.timeout_secs must be positive")
	}
	if c.Boundary.URL == "" {
		problems = append(problems, "boundary.url is required")
	}
	if c.Map.OutputPath == "" {
		problems = append(problems, "map.output_path is required")
	}
	if c.Map.CenterLat < -90 || c.Map.CenterLat > 90 {
		problems = append(problems, "map.center_lat out of range")
	}
	if c.Map.CenterLon < -180 || c.Map.CenterLon > 180 {
		problems = append(problems, "map.center_lon out of range")
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 20 {
		problems = append(problems, "map.zoom must be between 0 and 20")
	}
	if c.Lifecycle.PollIntervalMs <= 0 {
		problems = append(problems, "lifecycle.poll_interval_ms must be positive")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
