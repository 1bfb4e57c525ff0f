package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"urban3d/internal/geom"
)

// Config is shared by the terminal client and the API server.
type Config struct {
	AppEnv string `mapstructure:"APP_ENV"`

	// client
	APIBase  string `mapstructure:"API_BASE"`
	DataFile string `mapstructure:"DATA_FILE"`
	Username string `mapstructure:"USERNAME"`
	FPS      int    `mapstructure:"FPS"`

	BBoxWest  float64 `mapstructure:"BBOX_WEST"`
	BBoxSouth float64 `mapstructure:"BBOX_SOUTH"`
	BBoxEast  float64 `mapstructure:"BBOX_EAST"`
	BBoxNorth float64 `mapstructure:"BBOX_NORTH"`

	// backend
	Port          string        `mapstructure:"PORT"`
	OverpassURL   string        `mapstructure:"OVERPASS_URL"`
	RedisURL      string        `mapstructure:"REDIS_URL"`
	DBURL         string        `mapstructure:"DB_URL"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`
	CacheStaleTTL time.Duration `mapstructure:"CACHE_STALE_TTL"`

	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogFormat   string `mapstructure:"LOG_FORMAT"`
	LogFile     string `mapstructure:"LOG_FILE"`
	MetricsAddr string `mapstructure:"METRICS_ADDR"`
}

// DefaultOverpassURL is the public Overpass interpreter.
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

var defaults = map[string]any{
	"APP_ENV":         "development",
	"API_BASE":        "",
	"DATA_FILE":       "",
	"USERNAME":        "",
	"FPS":             30,
	"BBOX_WEST":       -114.0715, // downtown Calgary, several blocks
	"BBOX_SOUTH":      51.0455,
	"BBOX_EAST":       -114.0665,
	"BBOX_NORTH":      51.0493,
	"PORT":            ":5001",
	"OVERPASS_URL":    DefaultOverpassURL,
	"REDIS_URL":       "",
	"DB_URL":          "",
	"CACHE_TTL":       "6h",
	"CACHE_STALE_TTL": "8760h",
	"LOG_LEVEL":       "info",
	"LOG_FORMAT":      "text",
	"LOG_FILE":        "urban3d.log",
	"METRICS_ADDR":    "",
}

// LoadConfig reads .env.<APP_ENV> from the working directory, if present,
// with environment variables taking precedence.
func LoadConfig() (Config, error) {
	return LoadFrom(".")
}

// LoadFrom is LoadConfig with an explicit directory for the env file.
func LoadFrom(dir string) (c Config, err error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigName(fmt.Sprintf(".env.%s", env))
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// a missing env file is fine
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Validate checks the values that would otherwise fail late.
func (c Config) Validate() error {
	if !c.BBox().Valid() {
		return fmt.Errorf("config: invalid bbox west=%v south=%v east=%v north=%v", c.BBoxWest, c.BBoxSouth, c.BBoxEast, c.BBoxNorth)
	}
	if c.FPS <= 0 || c.FPS > 120 {
		return fmt.Errorf("config: FPS must be in 1..120, got %d", c.FPS)
	}
	if c.CacheTTL <= 0 || c.CacheStaleTTL < c.CacheTTL {
		return fmt.Errorf("config: need 0 < CACHE_TTL <= CACHE_STALE_TTL, got %s and %s", c.CacheTTL, c.CacheStaleTTL)
	}
	return nil
}

// BBox is the configured area of interest.
func (c Config) BBox() geom.BBox {
	return geom.BBox{MinX: c.BBoxWest, MinY: c.BBoxSouth, MaxX: c.BBoxEast, MaxY: c.BBoxNorth}
}

// Addr is PORT as a listen address; a bare "5001" becomes ":5001".
func (c Config) Addr() string {
	if c.Port == "" || strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
