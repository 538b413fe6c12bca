package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Paystack     PaystackConfig
	Mail         MailConfig
	Delivery     DeliveryConfig
	Idempotency  IdempotencyConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Mail.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"STOREFRONT_DB_DSN"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PaystackConfig is optional at boot; the webhook refuses requests while the secret is empty.
type PaystackConfig struct {
	SecretKey string `envconfig:"STOREFRONT_PAYSTACK_SECRET_KEY"`
}

type MailConfig struct {
	Transport    string `envconfig:"STOREFRONT_MAIL_TRANSPORT" default:"log"`
	FromAddress  string `envconfig:"STOREFRONT_MAIL_FROM_ADDRESS" default:"orders@localhost"`
	FromName     string `envconfig:"STOREFRONT_MAIL_FROM_NAME" default:"Storefront"`
	SupportEmail string `envconfig:"STOREFRONT_MAIL_SUPPORT_EMAIL" default:"support@localhost"`
	SupportPhone string `envconfig:"STOREFRONT_MAIL_SUPPORT_PHONE"`

	SMTPHost     string `envconfig:"STOREFRONT_SMTP_HOST"`
	SMTPPort     int    `envconfig:"STOREFRONT_SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"STOREFRONT_SMTP_USERNAME"`
	SMTPPassword string `envconfig:"STOREFRONT_SMTP_PASSWORD"`

	SendgridAPIKey string `envconfig:"STOREFRONT_SENDGRID_API_KEY"`
}

func (m MailConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(m.Transport)) {
	case MailTransportLog:
		return nil
	case MailTransportSMTP:
		if m.SMTPHost == "" {
			return fmt.Errorf("%s is required for the smtp transport", EnvSMTPHost)
		}
		return nil
	case MailTransportSendgrid:
		if m.SendgridAPIKey == "" {
			return fmt.Errorf("%s is required for the sendgrid transport", EnvSendgridAPIKey)
		}
		return nil
	default:
		return fmt.Errorf("unsupported mail transport %q", m.Transport)
	}
}

// DeliveryConfig holds the flat-rate delivery fees shown in order emails, in major units.
type DeliveryConfig struct {
	CapitalRegion string          `envconfig:"STOREFRONT_DELIVERY_CAPITAL_REGION" default:"Greater Accra"`
	CapitalFee    decimal.Decimal `envconfig:"STOREFRONT_DELIVERY_CAPITAL_FEE" default:"30"`
	StandardFee   decimal.Decimal `envconfig:"STOREFRONT_DELIVERY_STANDARD_FEE" default:"50"`
}

type IdempotencyConfig struct {
	WebhookTTL time.Duration `envconfig:"STOREFRONT_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"STOREFRONT_OUTBOX_BATCH_SIZE" default:"25"`
	PollIntervalMS int           `envconfig:"STOREFRONT_OUTBOX_POLL_MS" default:"1000"`
	MaxAttempts    int           `envconfig:"STOREFRONT_OUTBOX_MAX_ATTEMPTS" default:"8"`
	GracePeriod    time.Duration `envconfig:"STOREFRONT_OUTBOX_GRACE_PERIOD" default:"2m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
