package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Log         LogConfig         `yaml:"log"`
	Billing     BillingConfig     `yaml:"billing"`
	Fulfillment FulfillmentConfig `yaml:"fulfillment"`
	Points      PointsConfig      `yaml:"points"`
	Email       EmailConfig       `yaml:"email"`
	Events      EventsConfig      `yaml:"events"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings (health + notification stream)
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// BillingConfig contains recurring-charge provider settings
type BillingConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MonthlyPrice   string `yaml:"monthly_price"` // decimal string, e.g. "99.00"
}

// FulfillmentConfig contains gift fulfillment provider settings
type FulfillmentConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// PointsConfig contains the points-economy knobs
type PointsConfig struct {
	// PointsPerUnit converts a catalog money price into points; the final
	// point cost always rounds up.
	PointsPerUnit string `yaml:"points_per_unit"` // decimal string, e.g. "100"
	// MonthlyGiftableGrant is credited to every active employee by the
	// grant job.
	MonthlyGiftableGrant int64 `yaml:"monthly_giftable_grant"`
}

// EmailConfig contains SendGrid settings for operator notifications
type EmailConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// EventsConfig sizes the in-process notification queue
type EventsConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ChargeDueTenants     string `yaml:"charge_due_tenants"`
	RetryFailedRefunds   string `yaml:"retry_failed_refunds"`
	GrantMonthlyPoints   string `yaml:"grant_monthly_points"`
	ExpireGiftablePoints string `yaml:"expire_giftable_points"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
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

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Providers
	if val := os.Getenv("BILLING_BASE_URL"); val != "" {
		c.Billing.BaseURL = val
	}
	if val := os.Getenv("BILLING_API_KEY"); val != "" {
		c.Billing.APIKey = val
	}
	if val := os.Getenv("FULFILLMENT_BASE_URL"); val != "" {
		c.Fulfillment.BaseURL = val
	}
	if val := os.Getenv("FULFILLMENT_API_KEY"); val != "" {
		c.Fulfillment.APIKey = val
	}

	// Email
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.APIKey = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	// Provider validation
	if c.Fulfillment.BaseURL == "" {
		return fmt.Errorf("fulfillment provider base URL is required")
	}
	if c.Billing.BaseURL == "" {
		return fmt.Errorf("billing provider base URL is required")
	}
	if c.Billing.MonthlyPrice == "" {
		return fmt.Errorf("billing monthly price is required")
	}

	// Provider timeout defaults
	if c.Fulfillment.TimeoutSeconds == 0 {
		c.Fulfillment.TimeoutSeconds = 10
	}
	if c.Billing.TimeoutSeconds == 0 {
		c.Billing.TimeoutSeconds = 30
	}

	// Points defaults
	if c.Points.PointsPerUnit == "" {
		c.Points.PointsPerUnit = "100"
	}
	if c.Points.MonthlyGiftableGrant == 0 {
		c.Points.MonthlyGiftableGrant = 500
	}

	// Events defaults
	if c.Events.QueueSize == 0 {
		c.Events.QueueSize = 1024
	}

	// Scheduler defaults
	if c.Scheduler.ChargeDueTenants == "" {
		c.Scheduler.ChargeDueTenants = "0 0 4 * * *" // 4 AM UTC daily
	}
	if c.Scheduler.RetryFailedRefunds == "" {
		c.Scheduler.RetryFailedRefunds = "0 0 5 * * *" // 5 AM UTC daily
	}
	if c.Scheduler.GrantMonthlyPoints == "" {
		c.Scheduler.GrantMonthlyPoints = "0 0 1 1 * *" // 1st of month at 1 AM UTC
	}
	if c.Scheduler.ExpireGiftablePoints == "" {
		c.Scheduler.ExpireGiftablePoints = "0 30 0 1 * *" // 1st of month at 00:30 UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
