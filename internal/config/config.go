package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Email     EmailConfig     `yaml:"email"`
	JWT       JWTConfig       `yaml:"jwt"`
	FCM       FCMConfig       `yaml:"fcm"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Matching  MatchingConfig  `yaml:"matching"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// RedisConfig contains settings for the OTP store.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// EmailConfig contains SendGrid settings.
type EmailConfig struct {
	APIKey   string `yaml:"api_key"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
	// ResetBaseURL is the frontend base for password-reset links.
	ResetBaseURL string `yaml:"reset_base_url"`
}

// JWTConfig contains token settings.
type JWTConfig struct {
	Secret             string `yaml:"secret"`
	AccessTokenExpiry  int    `yaml:"access_token_expiry_minutes"`
	ResetTokenExpiry   int    `yaml:"reset_token_expiry_minutes"`
}

// FCMConfig contains Firebase Cloud Messaging settings.
type FCMConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	// SendTimeoutSeconds bounds each outbound push so a slow provider
	// cannot stall request creation.
	SendTimeoutSeconds int `yaml:"send_timeout_seconds"`
}

// StorageConfig contains object storage settings for banner images.
type StorageConfig struct {
	Type        string `yaml:"type"` // "mock" or "s3"
	Bucket      string `yaml:"bucket"`
	Region      string `yaml:"region"`
	UploadDir   string `yaml:"upload_dir"` // for mock storage
	BaseURL     string `yaml:"base_url"`   // public URL prefix for mock storage
	MaxFileSize int64  `yaml:"max_file_size_mb"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// MatchingConfig contains donor matching settings.
type MatchingConfig struct {
	// DefaultRadiusMeters bounds the eligible-donor search when the caller
	// does not supply a radius.
	DefaultRadiusMeters float64 `yaml:"default_radius_meters"`
	// EligibilityWindowDays is the cooldown after a completed donation.
	EligibilityWindowDays int `yaml:"eligibility_window_days"`
}

// SchedulerConfig contains cron expressions for the sweep jobs.
type SchedulerConfig struct {
	ExpireBanners       string `yaml:"expire_banners"`
	ExpireStaleRequests string `yaml:"expire_stale_requests"`
	// StaleRequestDays is the age after which a still-pending request is
	// rejected by the sweep.
	StaleRequestDays int `yaml:"stale_request_days"`
}

// Load reads configuration from a YAML file, applies environment overrides
// and validates the result.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) overrideWithEnv() {
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}
	if val := os.Getenv("REDIS_URL"); val != "" {
		c.Redis.URL = val
	}
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.APIKey = val
	}
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}
	if val := os.Getenv("FCM_CREDENTIALS_FILE"); val != "" {
		c.FCM.CredentialsFile = val
	}
	if val := os.Getenv("STORAGE_BUCKET"); val != "" {
		c.Storage.Bucket = val
	}
}

func (c *Config) applyDefaults() {
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 11 * 60
	}
	if c.JWT.ResetTokenExpiry == 0 {
		c.JWT.ResetTokenExpiry = 10
	}
	if c.FCM.SendTimeoutSeconds == 0 {
		c.FCM.SendTimeoutSeconds = 10
	}
	if c.Matching.DefaultRadiusMeters == 0 {
		c.Matching.DefaultRadiusMeters = 5000
	}
	if c.Matching.EligibilityWindowDays == 0 {
		c.Matching.EligibilityWindowDays = 90
	}
	if c.Scheduler.ExpireBanners == "" {
		c.Scheduler.ExpireBanners = "0 0 1 * * *"
	}
	if c.Scheduler.ExpireStaleRequests == "" {
		c.Scheduler.ExpireStaleRequests = "0 30 1 * * *"
	}
	if c.Scheduler.StaleRequestDays == 0 {
		c.Scheduler.StaleRequestDays = 7
	}
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" || c.Database.Database == "" {
		return fmt.Errorf("database.host and database.database are required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	return nil
}

// GetServerAddress returns the host:port the HTTP server binds to.
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetDatabaseConnectionString returns the lib/pq connection string.
func (c *Config) GetDatabaseConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Database, sslMode)
}
