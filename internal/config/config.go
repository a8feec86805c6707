// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// URLPlaceholder is the substitution site for the reference URL in message templates.
const URLPlaceholder = "{url}"

const envPrefix = "DISPATCH"

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	SMS           SMSConfig           `mapstructure:"sms"`
	Dispatch      DispatchConfig      `mapstructure:"dispatch"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Events        EventsConfig        `mapstructure:"events"`
	Certification CertificationConfig `mapstructure:"certification"`
	Geocoding     GeocodingConfig     `mapstructure:"geocoding"`
	Middleware    MiddlewareConfig    `mapstructure:"middleware"`
}

type ServerConfig struct {
	Port           string `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`
	WriteTimeout   int    `mapstructure:"write_timeout"`
	RequestTimeout int    `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	DBName         string `mapstructure:"dbname"`
	SSLMode        string `mapstructure:"sslmode"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl_hours"`
}

// SMSConfig selects and configures the outbound SMS provider.
type SMSConfig struct {
	Provider       string               `mapstructure:"provider"`
	From           string               `mapstructure:"from"`
	Timeout        int                  `mapstructure:"timeout"`
	Twilio         TwilioConfig         `mapstructure:"twilio"`
	Webhook        WebhookConfig        `mapstructure:"webhook"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	BaseURL    string `mapstructure:"base_url"`
}

type WebhookConfig struct {
	URL     string `mapstructure:"url"`
	AuthKey string `mapstructure:"auth_key"`
}

type CircuitBreakerConfig struct {
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"`
	Timeout          int     `mapstructure:"timeout"`
	FailureRatio     float64 `mapstructure:"failure_ratio"`
	ConsecutiveFails uint32  `mapstructure:"consecutive_fails"`
}

// DispatchConfig holds the batch send rules.
type DispatchConfig struct {
	CountryPrefix     string `mapstructure:"country_prefix"`
	Template          string `mapstructure:"template"`
	ReferenceURL      string `mapstructure:"reference_url"`
	CreditsEnabled    bool   `mapstructure:"credits_enabled"`
	AdminTotalCredits int    `mapstructure:"admin_total_credits"`
	MaxBatchSize      int    `mapstructure:"max_batch_size"`
}

// AuthConfig maps user names to bcrypt password hashes.
type AuthConfig struct {
	AdminUser string            `mapstructure:"admin_user"`
	Users     map[string]string `mapstructure:"users"`
}

type EventsConfig struct {
	NatsURL string `mapstructure:"nats_url"`
	Subject string `mapstructure:"subject"`
}

type CertificationConfig struct {
	APIURL                string               `mapstructure:"api_url"`
	APIKey                string               `mapstructure:"api_key"`
	AccountKey            string               `mapstructure:"account_key"`
	Timeout               int                  `mapstructure:"timeout"`
	FilesPerRequest       int                  `mapstructure:"files_per_request"`
	SessionRefreshMinutes int                  `mapstructure:"session_refresh_minutes"`
	CircuitBreaker        CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type GeocodingConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"`
}

type MiddlewareConfig struct {
	RateLimit      int      `mapstructure:"rate_limit"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
	EnableCORS     bool     `mapstructure:"enable_cors"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 120)
	v.SetDefault("server.request_timeout", 120)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("database.migrations_path", "./migrations")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl_hours", 24)
	v.SetDefault("sms.provider", "twilio")
	v.SetDefault("sms.timeout", 30)
	v.SetDefault("sms.twilio.base_url", "https://api.twilio.com")
	v.SetDefault("sms.circuit_breaker.max_requests", 3)
	v.SetDefault("sms.circuit_breaker.interval", 60)
	v.SetDefault("sms.circuit_breaker.timeout", 60)
	v.SetDefault("sms.circuit_breaker.failure_ratio", 0.6)
	v.SetDefault("sms.circuit_breaker.consecutive_fails", 5)
	v.SetDefault("dispatch.country_prefix", "+33")
	v.SetDefault("dispatch.template", "Bonjour, veuillez remplir votre formulaire ici : {url}")
	v.SetDefault("dispatch.credits_enabled", false)
	v.SetDefault("dispatch.admin_total_credits", 0)
	v.SetDefault("dispatch.max_batch_size", 1000)
	v.SetDefault("auth.admin_user", "admin")
	v.SetDefault("events.subject", "sms.batches")
	v.SetDefault("certification.timeout", 60)
	v.SetDefault("certification.files_per_request", 12)
	v.SetDefault("certification.session_refresh_minutes", 20)
	v.SetDefault("certification.circuit_breaker.max_requests", 1)
	v.SetDefault("certification.circuit_breaker.interval", 60)
	v.SetDefault("certification.circuit_breaker.timeout", 120)
	v.SetDefault("certification.circuit_breaker.failure_ratio", 0.5)
	v.SetDefault("certification.circuit_breaker.consecutive_fails", 3)
	v.SetDefault("geocoding.base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("geocoding.timeout", 10)
	v.SetDefault("middleware.rate_limit", 100)
	v.SetDefault("middleware.rate_limit_burst", 1000)
	v.SetDefault("middleware.enable_cors", true)
	v.SetDefault("middleware.allowed_origins", []string{"*"})
}

// LoadConfig reads the YAML file at configPath. Values from a .env file and
// DISPATCH_* environment variables take precedence over the file.
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional; the process environment is used as is when absent.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks the settings the dispatch core cannot run without.
func (c *Config) Validate() error {
	var errs []error

	if c.Dispatch.CountryPrefix == "" {
		errs = append(errs, errors.New("dispatch.country_prefix must not be empty"))
	}
	if !strings.Contains(c.Dispatch.Template, URLPlaceholder) {
		errs = append(errs, fmt.Errorf("dispatch.template must contain %s", URLPlaceholder))
	}
	if c.Dispatch.AdminTotalCredits < 0 {
		errs = append(errs, errors.New("dispatch.admin_total_credits must not be negative"))
	}

	switch c.SMS.Provider {
	case "twilio", "webhook", "log":
	default:
		errs = append(errs, fmt.Errorf("sms.provider %q is not supported", c.SMS.Provider))
	}

	if c.Auth.AdminUser == "" {
		errs = append(errs, errors.New("auth.admin_user must not be empty"))
	}

	return errors.Join(errs...)
}

// GetDSN returns PostgreSQL connection string.
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// GetURL returns the PostgreSQL connection URL used by the migration runner.
func (d *DatabaseConfig) GetURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}
