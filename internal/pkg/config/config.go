package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Images    ImagesConfig    `mapstructure:"images"`
	Planning  PlanningConfig  `mapstructure:"planning"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Enabled      bool   `mapstructure:"enabled"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// RoutingConfig configures OpenRouteService and the route generator.
type RoutingConfig struct {
	BaseURL       string  `mapstructure:"base_url"`
	APIKey        string  `mapstructure:"api_key"`
	HikeRetries   int     `mapstructure:"hike_retries"`
	HikeMinKm     float64 `mapstructure:"hike_min_km"`
	HikeMaxKm     float64 `mapstructure:"hike_max_km"`
	RatePerMinute int     `mapstructure:"rate_per_minute"`
}

type WeatherConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Days    int    `mapstructure:"days"`
}

type ImagesConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	AccessKey string `mapstructure:"access_key"`
}

type PlanningConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	TaskQueue string `mapstructure:"task_queue"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, an optional config file, and environment variables.
func Load(service string) (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 40)
	v.SetDefault("server.allow_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "tripplanner")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "tripplanner")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "168h")
	v.SetDefault("routing.base_url", "https://api.openrouteservice.org")
	v.SetDefault("routing.api_key", "")
	v.SetDefault("routing.hike_retries", 1)
	v.SetDefault("routing.hike_min_km", 5.0)
	v.SetDefault("routing.hike_max_km", 60.0)
	v.SetDefault("routing.rate_per_minute", 40)
	v.SetDefault("weather.base_url", "https://api.open-meteo.com")
	v.SetDefault("weather.days", 3)
	v.SetDefault("images.base_url", "https://api.unsplash.com")
	v.SetDefault("images.access_key", "")
	v.SetDefault("planning.timeout", "30s")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "trip-exports")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.task_queue", "trip-planning")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: TRIPPLANNER_ROUTING_API_KEY → routing.api_key
	v.SetEnvPrefix("TRIPPLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, "auth.token_ttl must be positive")
	}
	if c.Routing.HikeRetries < 0 {
		errs = append(errs, "routing.hike_retries must not be negative")
	}
	if c.Routing.HikeMinKm <= 0 || c.Routing.HikeMaxKm <= c.Routing.HikeMinKm {
		errs = append(errs, fmt.Sprintf("routing hike bounds must satisfy 0 < min < max, got [%g, %g]",
			c.Routing.HikeMinKm, c.Routing.HikeMaxKm))
	}
	if c.Routing.RatePerMinute <= 0 {
		errs = append(errs, "routing.rate_per_minute must be positive")
	}
	if c.Weather.Days <= 0 || c.Weather.Days > 16 {
		errs = append(errs, fmt.Sprintf("weather.days must be 1-16, got %d", c.Weather.Days))
	}
	if c.Planning.Timeout <= 0 {
		errs = append(errs, "planning.timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// RequireSecrets checks the credentials the API process cannot start without.
func (c *Config) RequireSecrets() error {
	var errs []string
	if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, "auth.jwt_secret must be at least 32 characters")
	}
	if c.Routing.APIKey == "" {
		errs = append(errs, "routing.api_key is required")
	}
	if len(errs) > 0 {
		return fmt.Errorf("missing secrets:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
