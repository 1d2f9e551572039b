package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. SETUPHUB_SERVER_PORT
const EnvPrefix = "SETUPHUB"

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Auth        AuthConfig        `mapstructure:"auth"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	OTEL        OTELConfig        `mapstructure:"otel"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test

	// BaseURL is the public URL of this API
	BaseURL string `mapstructure:"base_url"`

	// FrontendURL is where the browser lands after sign-in and sign-out
	FrontendURL string `mapstructure:"frontend_url"`

	AllowedOrigins []string `mapstructure:"allowed_origins"`

	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`

	// MigrationsDir holds versioned atlas migrations for `db apply`
	MigrationsDir string `mapstructure:"migrations_dir"`

	// AutoMigrate runs GORM AutoMigrate on `serve`
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DSN returns the database connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the connection string in URL form, as atlas expects it
func (d *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// StorageConfig holds the banner storage backend configuration
type StorageConfig struct {
	Type        string `mapstructure:"type"` // filesystem, s3
	BasePath    string `mapstructure:"base_path"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3Endpoint  string `mapstructure:"s3_endpoint"` // For S3-compatible services
	S3Prefix    string `mapstructure:"s3_prefix"`
}

// IsS3 returns true if the storage type is S3
func (s *StorageConfig) IsS3() bool {
	return strings.ToLower(s.Type) == "s3"
}

// IsFilesystem returns true if the storage type is filesystem
func (s *StorageConfig) IsFilesystem() bool {
	return strings.ToLower(s.Type) == "filesystem" || s.Type == ""
}

// RateLimitConfig throttles the extension sync endpoint per caller
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

// MaintenanceConfig controls the background sweeper
type MaintenanceConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
}

// Interval returns the sweep interval
func (m *MaintenanceConfig) Interval() time.Duration {
	if m.IntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(m.IntervalMinutes) * time.Minute
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `mapstructure:"level"`  // debug, info, warn, error
	Output      string `mapstructure:"output"` // console, file, otel
	Format      string `mapstructure:"format"` // json, console
	FilePath    string `mapstructure:"file_path"`
	Development bool   `mapstructure:"development"`
}

// OTELConfig holds OpenTelemetry log export configuration
type OTELConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	Endpoint    string            `mapstructure:"endpoint"`
	ServiceName string            `mapstructure:"service_name"`
	Environment string            `mapstructure:"environment"`
	Insecure    bool              `mapstructure:"insecure"`
	UseHTTP     bool              `mapstructure:"use_http"`
	Headers     map[string]string `mapstructure:"headers"`
}

// Load reads configuration from file and environment variables.
// Lookup order: explicit path, then ./config.yaml, ./configs/config.yaml and
// /etc/setuphub/config.yaml. Environment variables always win.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		} else {
			configPath = ""
		}
	}

	if configPath == "" {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/setuphub")

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// No file; defaults and env vars only
		}
	}

	overrideFromEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.frontend_url", "http://localhost:3000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", 15)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "setuphub")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "setuphub")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.migrations_dir", "./migrations")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("storage.type", "filesystem")
	v.SetDefault("storage.base_path", "./data/banners")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "")
	v.SetDefault("storage.s3_endpoint", "")
	v.SetDefault("storage.s3_prefix", "banners/")

	auth := DefaultAuthConfig()
	v.SetDefault("auth.oauth.provider", auth.OAuth.Provider)
	v.SetDefault("auth.oauth.client_id", "")
	v.SetDefault("auth.oauth.client_secret", "")
	v.SetDefault("auth.oauth.redirect_url", "http://localhost:8080/api/v1/auth/callback")
	v.SetDefault("auth.oauth.issuer_url", "")
	v.SetDefault("auth.oauth.scopes", auth.OAuth.Scopes)
	v.SetDefault("auth.oauth.api_base_url", auth.OAuth.APIBaseURL)
	v.SetDefault("auth.oauth.timeout", auth.OAuth.TimeoutSeconds)
	v.SetDefault("auth.session.secret", "")
	v.SetDefault("auth.session.cookie_name", auth.Session.CookieName)
	v.SetDefault("auth.session.ttl_hours", auth.Session.TTLHours)
	v.SetDefault("auth.session.secure", false)
	v.SetDefault("auth.session.domain", "")
	v.SetDefault("auth.tokens.prefix", auth.Tokens.Prefix)
	v.SetDefault("auth.tokens.max_expiry_days", auth.Tokens.MaxExpiryDays)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.interval_minutes", 60)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "console")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file_path", "./logs/setuphub.log")
	v.SetDefault("logging.development", false)

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "localhost:4317")
	v.SetDefault("otel.service_name", "setuphub")
	v.SetDefault("otel.environment", "development")
	v.SetDefault("otel.insecure", true)
	v.SetDefault("otel.use_http", false)
}

// overrideFromEnv maps conventional variable names that don't follow the prefix scheme
func overrideFromEnv(v *viper.Viper) {
	if pass := os.Getenv("SETUPHUB_DB_PASSWORD"); pass != "" {
		v.Set("database.password", pass)
	}

	if id := os.Getenv("GITHUB_CLIENT_ID"); id != "" && v.GetString("auth.oauth.client_id") == "" {
		v.Set("auth.oauth.client_id", id)
	}
	if secret := os.Getenv("GITHUB_CLIENT_SECRET"); secret != "" && v.GetString("auth.oauth.client_secret") == "" {
		v.Set("auth.oauth.client_secret", secret)
	}

	if s3Key := os.Getenv("AWS_ACCESS_KEY_ID"); s3Key != "" {
		v.Set("storage.s3_access_key", s3Key)
	}
	if s3Secret := os.Getenv("AWS_SECRET_ACCESS_KEY"); s3Secret != "" {
		v.Set("storage.s3_secret_key", s3Secret)
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Storage.IsS3() {
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required when using S3 storage")
		}
		if c.Storage.S3Region == "" {
			return fmt.Errorf("S3 region is required when using S3 storage")
		}
	} else if c.Storage.IsFilesystem() {
		if c.Storage.BasePath == "" {
			return fmt.Errorf("storage base path is required for filesystem storage")
		}
	} else {
		return fmt.Errorf("invalid storage type: %s", c.Storage.Type)
	}

	if err := c.Auth.Validate(); err != nil {
		return err
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("invalid rate limit: %d requests per minute", c.RateLimit.RequestsPerMinute)
	}

	switch c.Logging.Output {
	case "", "console", "file", "otel":
	default:
		return fmt.Errorf("invalid logging output: %s", c.Logging.Output)
	}

	if c.OTEL.Enabled && c.OTEL.Endpoint == "" {
		return fmt.Errorf("otel endpoint is required when otel is enabled")
	}

	return nil
}

// ServerAddress returns the HTTP server address
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ShutdownTimeout returns how long in-flight requests get on shutdown
func (c *Config) ShutdownTimeout() time.Duration {
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Mode == "debug" || c.Server.Mode == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Mode == "release" || c.Server.Mode == "production"
}
