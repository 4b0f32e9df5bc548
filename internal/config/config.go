package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Processor ProcessorConfig `yaml:"processor"`
	Blackout  BlackoutConfig  `yaml:"blackout"`
	Matcher   MatcherConfig   `yaml:"matcher"`
	Sweeper   SweeperConfig   `yaml:"sweeper"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig contains HTTP and gRPC listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
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

// JWTConfig contains partner token settings. Tokens are issued elsewhere.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// IngestConfig guards the confirmation webhook
type IngestConfig struct {
	TokenHash string `yaml:"token_hash"` // bcrypt hash of the shared ingest token
}

// SIMConfig maps a SIM name to its gateway GSM port
type SIMConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

// GatewayConfig contains USSD gateway settings
type GatewayConfig struct {
	BaseURL        string      `yaml:"base_url"`
	Username       string      `yaml:"username"`
	Password       string      `yaml:"password"`
	PIN            string      `yaml:"pin"`
	TimeoutSeconds int         `yaml:"timeout_seconds"`
	SIMStrategy    string      `yaml:"sim_strategy"` // "round_robin", "primary" or "random"
	SIMs           []SIMConfig `yaml:"sims"`
	PrimarySIM     string      `yaml:"primary_sim"`
	SecondarySIM   string      `yaml:"secondary_sim"`
}

// ProcessorConfig contains queue processor settings
type ProcessorConfig struct {
	BatchSize             int `yaml:"batch_size"`
	ChannelTimeoutSeconds int `yaml:"channel_timeout_seconds"`
	MaxRetries            int `yaml:"max_retries"`
}

// BlackoutConfig contains per-kind cooldowns
type BlackoutConfig struct {
	PushPullMinutes int `yaml:"push_pull_minutes"`
	AirtimeMinutes  int `yaml:"airtime_minutes"`
}

// MatcherConfig contains confirmation matching settings
type MatcherConfig struct {
	TimeWindowMinutes int `yaml:"time_window_minutes"`
}

// SweeperConfig contains stale transaction settings
type SweeperConfig struct {
	DeadlineHours int `yaml:"deadline_hours"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ProcessQueue string `yaml:"process_queue"`
	SweepStale   string `yaml:"sweep_stale"`
}

// RabbitMQConfig contains the confirmation notice consumer settings
type RabbitMQConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	Queue      string `yaml:"queue"`
	RoutingKey string `yaml:"routing_key"`
}

// AlertsConfig contains operator alert settings
type AlertsConfig struct {
	SendGridAPIKey string   `yaml:"sendgrid_api_key"`
	FromEmail      string   `yaml:"from_email"`
	FromName       string   `yaml:"from_name"`
	OperatorEmails []string `yaml:"operator_emails"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a validated Config from YAML bytes
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

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

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Ingest
	if val := os.Getenv("INGEST_TOKEN_HASH"); val != "" {
		c.Ingest.TokenHash = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("GRPC_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.GRPCPort)
	}

	// Gateway
	if val := os.Getenv("GATEWAY_BASE_URL"); val != "" {
		c.Gateway.BaseURL = val
	}
	if val := os.Getenv("GATEWAY_USERNAME"); val != "" {
		c.Gateway.Username = val
	}
	if val := os.Getenv("GATEWAY_PASSWORD"); val != "" {
		c.Gateway.Password = val
	}
	if val := os.Getenv("GATEWAY_PIN"); val != "" {
		c.Gateway.PIN = val
	}

	// RabbitMQ
	if val := os.Getenv("RABBITMQ_URL"); val != "" {
		c.RabbitMQ.URL = val
	}

	// Alerts
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Alerts.SendGridAPIKey = val
	}
	if val := os.Getenv("OPERATOR_EMAILS"); val != "" {
		c.Alerts.OperatorEmails = strings.Split(val, ",")
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = c.Server.Port + 1
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway base url is required")
	}
	if len(c.Gateway.SIMs) == 0 {
		return fmt.Errorf("at least one gateway SIM is required")
	}
	if c.Gateway.TimeoutSeconds == 0 {
		c.Gateway.TimeoutSeconds = 30
	}
	switch c.Gateway.SIMStrategy {
	case "":
		c.Gateway.SIMStrategy = "round_robin"
	case "round_robin", "primary", "random":
	default:
		return fmt.Errorf("unknown SIM strategy: %s", c.Gateway.SIMStrategy)
	}
	if c.Gateway.PrimarySIM == "" {
		c.Gateway.PrimarySIM = c.Gateway.SIMs[0].Name
	}

	if c.Processor.BatchSize == 0 {
		c.Processor.BatchSize = 6
	}
	if c.Processor.ChannelTimeoutSeconds == 0 {
		c.Processor.ChannelTimeoutSeconds = c.Gateway.TimeoutSeconds
	}
	if c.Processor.MaxRetries == 0 {
		c.Processor.MaxRetries = 3
	}

	if c.Blackout.PushPullMinutes == 0 {
		c.Blackout.PushPullMinutes = 10
	}
	if c.Blackout.AirtimeMinutes == 0 {
		c.Blackout.AirtimeMinutes = 4
	}
	if c.Matcher.TimeWindowMinutes == 0 {
		c.Matcher.TimeWindowMinutes = 120
	}
	if c.Sweeper.DeadlineHours == 0 {
		c.Sweeper.DeadlineHours = 24
	}

	if c.RabbitMQ.Enabled && c.RabbitMQ.URL == "" {
		return fmt.Errorf("rabbitmq url is required when the consumer is enabled")
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "momo.notices"
	}
	if c.RabbitMQ.Queue == "" {
		c.RabbitMQ.Queue = "momo.notices.confirmations"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "notice.#"
	}

	if c.Alerts.FromName == "" {
		c.Alerts.FromName = "MoMo Proxy"
	}

	// Scheduler defaults
	if c.Scheduler.ProcessQueue == "" {
		c.Scheduler.ProcessQueue = "@every 10s"
	}
	if c.Scheduler.SweepStale == "" {
		c.Scheduler.SweepStale = "0 */5 * * * *" // every 5 minutes
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

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the gRPC health listen address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}

func (c *Config) ChannelTimeout() time.Duration {
	return time.Duration(c.Processor.ChannelTimeoutSeconds) * time.Second
}

func (c *Config) MatchWindow() time.Duration {
	return time.Duration(c.Matcher.TimeWindowMinutes) * time.Minute
}

func (c *Config) SweepDeadline() time.Duration {
	return time.Duration(c.Sweeper.DeadlineHours) * time.Hour
}
