package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AuthRateLimit AuthRateLimitConfig
	Password      PasswordConfig
	FeatureFlags  FeatureFlagsConfig
	Gateway       GatewayConfig
	Payouts       PayoutsConfig
	Mailer        MailerConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Webhooks      WebhooksConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KASUWA_APP_ENV" required:"true"`
	Port         string `envconfig:"KASUWA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KASUWA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KASUWA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KASUWA_DB_DSN"`
	Driver string `envconfig:"KASUWA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KASUWA_DB_HOST"`
	LegacyPort     int    `envconfig:"KASUWA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KASUWA_DB_USER"`
	LegacyPassword string `envconfig:"KASUWA_DB_PASSWORD"`
	LegacyName     string `envconfig:"KASUWA_DB_NAME"`
	LegacySSLMode  string `envconfig:"KASUWA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KASUWA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KASUWA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KASUWA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KASUWA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KASUWA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KASUWA_REDIS_ADDR"`
	Password     string        `envconfig:"KASUWA_REDIS_PASSWORD"`
	DB           int           `envconfig:"KASUWA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KASUWA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KASUWA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KASUWA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KASUWA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KASUWA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KASUWA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KASUWA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KASUWA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AuthRateLimitConfig throttles the login endpoint. Zero limits disable the
// middleware entirely.
type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"KASUWA_LOGIN_RATE_WINDOW" default:"5m"`
	LoginIPLimit    int           `envconfig:"KASUWA_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"KASUWA_LOGIN_RATE_EMAIL_LIMIT" default:"5"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KASUWA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KASUWA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KASUWA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KASUWA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KASUWA_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KASUWA_AUTO_MIGRATE" default:"false"`
}

// GatewayConfig holds the payment gateway credentials. An empty webhook
// secret disables signature verification; the client logs that loudly.
type GatewayConfig struct {
	BaseURL       string        `envconfig:"KASUWA_GATEWAY_BASE_URL" default:"https://api.paystack.co"`
	SecretKey     string        `envconfig:"KASUWA_GATEWAY_SECRET_KEY"`
	WebhookSecret string        `envconfig:"KASUWA_GATEWAY_WEBHOOK_SECRET"`
	Timeout       time.Duration `envconfig:"KASUWA_GATEWAY_TIMEOUT" default:"10s"`
	Currency      string        `envconfig:"KASUWA_GATEWAY_CURRENCY" default:"NGN"`
}

type PayoutsConfig struct {
	HoldPeriod time.Duration `envconfig:"KASUWA_PAYOUT_HOLD_PERIOD" default:"168h"`
	RunLockTTL time.Duration `envconfig:"KASUWA_PAYOUT_RUN_LOCK_TTL" default:"15m"`
	BatchLimit int           `envconfig:"KASUWA_PAYOUT_BATCH_LIMIT" default:"100"`
}

type MailerConfig struct {
	Endpoint    string `envconfig:"KASUWA_MAILER_ENDPOINT"`
	APIKey      string `envconfig:"KASUWA_MAILER_API_KEY"`
	DefaultFrom string `envconfig:"KASUWA_MAILER_FROM_EMAIL" default:"no-reply@kasuwa.app"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"KASUWA_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"KASUWA_PUBSUB_DOMAIN_TOPIC" default:"kasuwa-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"KASUWA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"KASUWA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"KASUWA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type WebhooksConfig struct {
	IdempotencyTTL time.Duration `envconfig:"KASUWA_WEBHOOK_EVENT_TTL" default:"720h"`
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
