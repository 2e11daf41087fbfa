// Package config loads runtime settings for the inventory server from the
// process environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"inventory-backend/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all settings of the server.
//
// Field groups:
//   - server: Env (normalized by utils.NormalizeEnvironment), Port, GinMode,
//     CORSAllowedOrigins, ShutdownTimeout
//   - database: DB* (PostgreSQL through gorm)
//   - logging: LogLevel, LogFormat
//   - otp: OTPStore selects "memory" or "redis"; OTPValidity is the window
//     during which an issued code may be validated
//   - mail: SMTP* and FromEmail; an empty SMTPUsername disables delivery
//   - auth: JWTSecret, JWTTTL, BcryptCost; AdminEmails lists the addresses
//     that receive the admin role when they register
type Config struct {
	Env                string        `mapstructure:"GO_ENV"`
	Port               string        `mapstructure:"PORT" validate:"required,numeric"`
	GinMode            string        `mapstructure:"GIN_MODE" validate:"oneof=debug release test"`
	CORSAllowedOrigins string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"gt=0"`

	DBHost     string `mapstructure:"DB_HOST" validate:"required"`
	DBPort     string `mapstructure:"DB_PORT" validate:"required,numeric"`
	DBUser     string `mapstructure:"DB_USER" validate:"required"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME" validate:"required"`
	DBSSLMode  string `mapstructure:"DB_SSL_MODE" validate:"required"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"oneof=json text"`

	OTPStore         string        `mapstructure:"OTP_STORE" validate:"oneof=memory redis"`
	OTPValidity      time.Duration `mapstructure:"OTP_VALIDITY" validate:"gt=0"`
	OTPSweepInterval time.Duration `mapstructure:"OTP_SWEEP_INTERVAL" validate:"gt=0"`
	OTPStoreShards   int           `mapstructure:"OTP_STORE_SHARDS" validate:"gte=1,lte=4096"`
	RedisAddr        string        `mapstructure:"REDIS_ADDR" validate:"required_if=OTPStore redis"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB          int           `mapstructure:"REDIS_DB" validate:"gte=0,lte=16"`

	SMTPHost      string        `mapstructure:"SMTP_HOST"`
	SMTPPort      int           `mapstructure:"SMTP_PORT" validate:"gte=0,lte=65535"`
	SMTPUsername  string        `mapstructure:"SMTP_USERNAME"`
	SMTPPassword  string        `mapstructure:"SMTP_PASSWORD"`
	FromEmail     string        `mapstructure:"FROM_EMAIL" validate:"omitempty,email"`
	SMTPTimeout   time.Duration `mapstructure:"SMTP_TIMEOUT" validate:"gt=0"`
	MailWorkers   int           `mapstructure:"MAIL_WORKERS" validate:"gte=1"`
	MailQueueSize int           `mapstructure:"MAIL_QUEUE_SIZE" validate:"gte=1"`

	JWTSecret   string        `mapstructure:"JWT_SECRET" validate:"required,min=16"`
	JWTTTL      time.Duration `mapstructure:"JWT_TTL" validate:"gt=0"`
	BcryptCost  int           `mapstructure:"BCRYPT_COST" validate:"gte=4,lte=31"`
	AdminEmails string        `mapstructure:"ADMIN_EMAILS"`
}

var defaults = map[string]any{
	"GO_ENV":               "dev",
	"PORT":                 "8080",
	"GIN_MODE":             "release",
	"CORS_ALLOWED_ORIGINS": "",
	"SHUTDOWN_TIMEOUT":     "10s",

	"DB_HOST":     "localhost",
	"DB_PORT":     "5432",
	"DB_USER":     "postgres",
	"DB_PASSWORD": "postgres",
	"DB_NAME":     "inventory",
	"DB_SSL_MODE": "disable",

	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "json",

	"OTP_STORE":          "memory",
	"OTP_VALIDITY":       "5m",
	"OTP_SWEEP_INTERVAL": "1m",
	"OTP_STORE_SHARDS":   32,
	"REDIS_ADDR":         "localhost:6379",
	"REDIS_PASSWORD":     "",
	"REDIS_DB":           0,

	"SMTP_HOST":       "smtp.gmail.com",
	"SMTP_PORT":       587,
	"SMTP_USERNAME":   "",
	"SMTP_PASSWORD":   "",
	"FROM_EMAIL":      "",
	"SMTP_TIMEOUT":    "10s",
	"MAIL_WORKERS":    2,
	"MAIL_QUEUE_SIZE": 100,

	"JWT_SECRET":   "",
	"JWT_TTL":      "1h",
	"BCRYPT_COST":  10,
	"ADMIN_EMAILS": "",
}

// Load reads envFile into the process environment when it exists, then builds
// a validated Config from defaults overlaid with environment variables.
// A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.Env = utils.NormalizeEnvironment(cfg.Env)

	return &cfg, nil
}

// MailEnabled reports whether SMTP credentials are configured
func (c *Config) MailEnabled() bool {
	return c.SMTPUsername != "" && c.SMTPPassword != ""
}

// Sender returns the From address for outgoing mail, defaulting to the SMTP username
func (c *Config) Sender() string {
	if c.FromEmail != "" {
		return c.FromEmail
	}
	return c.SMTPUsername
}

// AdminEmailList returns the normalized, non-empty entries of AdminEmails
func (c *Config) AdminEmailList() []string {
	var emails []string
	for _, e := range strings.Split(c.AdminEmails, ",") {
		if e = utils.NormalizeEmail(e); e != "" {
			emails = append(emails, e)
		}
	}
	return emails
}
