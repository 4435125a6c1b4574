package internal

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Session       SessionConfig       `mapstructure:"session"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Mail          MailConfig          `mapstructure:"mail"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

// SessionConfig selects the session backend and the authenticated-session
// lifetime. Backend is "memory" unless a Redis address is configured.
type SessionConfig struct {
	TTL       time.Duration `mapstructure:"ttl"`
	Backend   string        `mapstructure:"backend"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
}

// AuthConfig carries the knobs the auth services need: hashing cost, token
// lifetimes, the password change window limit, and the defaults applied to
// newly registered users.
type AuthConfig struct {
	BCryptCost           int           `mapstructure:"bcrypt_cost"`
	VerificationTokenTTL time.Duration `mapstructure:"verification_token_ttl"`
	ResetTokenTTL        time.Duration `mapstructure:"reset_token_ttl"`
	MaxPasswordChanges   int           `mapstructure:"max_password_changes"`
	PasswordChangeWindow time.Duration `mapstructure:"password_change_window"`
	DefaultRoleName      string        `mapstructure:"default_role_name"`
	DefaultVisibility    string        `mapstructure:"default_visibility"`
}

type MailConfig struct {
	FromAddress      string `mapstructure:"from_address"`
	SMTPAddr         string `mapstructure:"smtp_addr"`
	WebPage          string `mapstructure:"web_page"`
	VerificationPage string `mapstructure:"verification_page"`
	ResetPage        string `mapstructure:"reset_page"`
	VerifySubject    string `mapstructure:"verify_subject"`
	VerifyBody       string `mapstructure:"verify_body"`
	ResetSubject     string `mapstructure:"reset_subject"`
	ResetBody        string `mapstructure:"reset_body"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- DEFAULTS -----------------

const (
	DefaultSessionTTL           = time.Hour
	DefaultVerificationTokenTTL = 24 * time.Hour
	DefaultResetTokenTTL        = time.Hour
	DefaultMaxPasswordChanges   = 3
	DefaultPasswordChangeWindow = 365 * 24 * time.Hour
	DefaultRoleName             = "User"
	DefaultVisibility           = "public"
	DefaultBCryptCost           = 12
)

// ApplyDefaults fills zero values so a partial config file still yields a
// usable configuration.
func (c *Config) ApplyDefaults() {
	if c.Session.TTL <= 0 {
		c.Session.TTL = DefaultSessionTTL
	}
	if c.Session.Backend == "" {
		c.Session.Backend = "memory"
	}
	if c.Auth.BCryptCost == 0 {
		c.Auth.BCryptCost = DefaultBCryptCost
	}
	if c.Auth.VerificationTokenTTL <= 0 {
		c.Auth.VerificationTokenTTL = DefaultVerificationTokenTTL
	}
	if c.Auth.ResetTokenTTL <= 0 {
		c.Auth.ResetTokenTTL = DefaultResetTokenTTL
	}
	if c.Auth.MaxPasswordChanges == 0 {
		c.Auth.MaxPasswordChanges = DefaultMaxPasswordChanges
	}
	if c.Auth.PasswordChangeWindow <= 0 {
		c.Auth.PasswordChangeWindow = DefaultPasswordChangeWindow
	}
	if c.Auth.DefaultRoleName == "" {
		c.Auth.DefaultRoleName = DefaultRoleName
	}
	if c.Auth.DefaultVisibility == "" {
		c.Auth.DefaultVisibility = DefaultVisibility
	}
	if c.Mail.VerificationPage == "" {
		c.Mail.VerificationPage = "verification"
	}
	if c.Mail.ResetPage == "" {
		c.Mail.ResetPage = "forgot"
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds a Config entirely from environment variables, used
// for container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:           getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			ReadHeaderTimeout: getEnvAsDuration("SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			IdleTimeout:       getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DB_SOURCE", ""),
		},
		Session: SessionConfig{
			TTL:       getEnvAsDuration("SESSION_TTL", DefaultSessionTTL),
			Backend:   getEnv("SESSION_BACKEND", "memory"),
			RedisAddr: getEnv("SESSION_REDIS_ADDR", ""),
			RedisDB:   getEnvAsInt("SESSION_REDIS_DB", 0),
		},
		Auth: AuthConfig{
			BCryptCost:           getEnvAsInt("AUTH_BCRYPT_COST", DefaultBCryptCost),
			VerificationTokenTTL: getEnvAsDuration("AUTH_VERIFICATION_TOKEN_TTL", DefaultVerificationTokenTTL),
			ResetTokenTTL:        getEnvAsDuration("AUTH_RESET_TOKEN_TTL", DefaultResetTokenTTL),
			MaxPasswordChanges:   getEnvAsInt("AUTH_MAX_PASSWORD_CHANGES", DefaultMaxPasswordChanges),
			PasswordChangeWindow: getEnvAsDuration("AUTH_PASSWORD_CHANGE_WINDOW", DefaultPasswordChangeWindow),
			DefaultRoleName:      getEnv("AUTH_DEFAULT_ROLE_NAME", DefaultRoleName),
			DefaultVisibility:    getEnv("AUTH_DEFAULT_VISIBILITY", DefaultVisibility),
		},
		Mail: MailConfig{
			FromAddress:      getEnv("MAIL_FROM_ADDRESS", ""),
			SMTPAddr:         getEnv("MAIL_SMTP_ADDR", ""),
			WebPage:          getEnv("MAIL_WEB_PAGE", ""),
			VerificationPage: getEnv("MAIL_VERIFICATION_PAGE", "verification"),
			ResetPage:        getEnv("MAIL_RESET_PAGE", "forgot"),
			VerifySubject:    getEnv("MAIL_VERIFY_SUBJECT", "Verify your account"),
			VerifyBody:       getEnv("MAIL_VERIFY_BODY", "Follow this link to verify your account: {{action_link}}"),
			ResetSubject:     getEnv("MAIL_RESET_SUBJECT", "Reset your password"),
			ResetBody:        getEnv("MAIL_RESET_BODY", "Follow this link to reset your password: {{action_link}}"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}
	if err := c.Session.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("session config: %v", err))
	}
	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("auth config: %v", err))
	}
	if err := c.Mail.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("mail config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil {
			return fmt.Errorf("invalid base URL %s: %w", c.BaseURL, err)
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SessionConfig) Validate() error {
	switch c.Backend {
	case "", "memory":
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("redis backend requires redis_addr")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Backend)
	}
	return nil
}

func (c *AuthConfig) Validate() error {
	if c.BCryptCost != 0 && (c.BCryptCost < 10 || c.BCryptCost > 15) {
		return errors.New("bcrypt_cost must be between 10 and 15")
	}
	if c.MaxPasswordChanges < 0 {
		return errors.New("max_password_changes cannot be negative")
	}
	return nil
}

func (c *MailConfig) Validate() error {
	if c.FromAddress != "" {
		if _, err := mail.ParseAddress(c.FromAddress); err != nil {
			return fmt.Errorf("invalid from address %s: %w", c.FromAddress, err)
		}
	}
	return nil
}
