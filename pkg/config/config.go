package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Session      SessionConfig
	Mail         MailConfig
	PayPal       PayPalConfig
	RateLimit    RateLimitConfig
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
	Env          string `envconfig:"ORDERFORMS_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERFORMS_APP_PORT" required:"true"`
	Domain       string `envconfig:"ORDERFORMS_DOMAIN" default:"localhost:8080"`
	LogLevel     string `envconfig:"ORDERFORMS_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"ORDERFORMS_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"ORDERFORMS_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list for the storefront.
	CORSOrigins []string `envconfig:"ORDERFORMS_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BaseURL is the public origin used in links sent to buyers.
func (a AppConfig) BaseURL() string {
	domain := strings.TrimSuffix(strings.TrimSpace(a.Domain), "/")
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + domain
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERFORMS_DB_DSN"`
	Driver string `envconfig:"ORDERFORMS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORDERFORMS_DB_HOST"`
	LegacyPort     int    `envconfig:"ORDERFORMS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORDERFORMS_DB_USER"`
	LegacyPassword string `envconfig:"ORDERFORMS_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORDERFORMS_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORDERFORMS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDERFORMS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDERFORMS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERFORMS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERFORMS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite one.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERFORMS_REDIS_URL"`
	Address      string        `envconfig:"ORDERFORMS_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERFORMS_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERFORMS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERFORMS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERFORMS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERFORMS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERFORMS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERFORMS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ORDERFORMS_AUTO_MIGRATE" default:"false"`
	// SubmitSerialize takes a per-form lock around validate+persist. Off by
	// default, which keeps concurrent submits able to oversell a cap.
	SubmitSerialize bool          `envconfig:"ORDERFORMS_SUBMIT_SERIALIZE" default:"false"`
	SubmitLockTTL   time.Duration `envconfig:"ORDERFORMS_SUBMIT_LOCK_TTL" default:"10s"`
}

// RateLimitConfig throttles public order submission per client IP and per
// buyer email. A zero limit disables that dimension.
type RateLimitConfig struct {
	SubmitWindow     time.Duration `envconfig:"ORDERFORMS_SUBMIT_RATE_WINDOW" default:"10m"`
	SubmitIPLimit    int           `envconfig:"ORDERFORMS_SUBMIT_RATE_IP_LIMIT" default:"30"`
	SubmitEmailLimit int           `envconfig:"ORDERFORMS_SUBMIT_RATE_EMAIL_LIMIT" default:"10"`
}

type SessionConfig struct {
	CookieName string        `envconfig:"ORDERFORMS_SESSION_COOKIE" default:"orderforms_session"`
	TTL        time.Duration `envconfig:"ORDERFORMS_SESSION_TTL" default:"336h"`
	Secure     bool          `envconfig:"ORDERFORMS_SESSION_SECURE" default:"true"`
}

type MailConfig struct {
	Driver         string `envconfig:"ORDERFORMS_MAIL_DRIVER" default:"log"`
	SMTPHost       string `envconfig:"ORDERFORMS_SMTP_HOST"`
	SMTPPort       int    `envconfig:"ORDERFORMS_SMTP_PORT" default:"587"`
	SMTPUser       string `envconfig:"ORDERFORMS_SMTP_USER"`
	SMTPPassword   string `envconfig:"ORDERFORMS_SMTP_PASSWORD"`
	FromAddress    string `envconfig:"ORDERFORMS_MAIL_FROM" default:"noreply@localhost"`
	DefaultReplyTo string `envconfig:"ORDERFORMS_MAIL_REPLY_TO"`
}

func (m MailConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(m.Driver)) {
	case MailDriverLog:
		return nil
	case MailDriverSMTP:
		if m.SMTPHost == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvSMTPHost, EnvMailDriver, MailDriverSMTP)
		}
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvMailDriver, m.Driver)
	}
}

type PayPalConfig struct {
	BusinessEmail string `envconfig:"ORDERFORMS_PAYPAL_EMAIL"`
	CustomKey     string `envconfig:"ORDERFORMS_PAYPAL_CUSTOM_KEY"`
	Sandbox       bool   `envconfig:"ORDERFORMS_PAYPAL_SANDBOX" default:"true"`
	Currency      string `envconfig:"ORDERFORMS_PAYPAL_CURRENCY" default:"GBP"`
	VerifyIPN     bool   `envconfig:"ORDERFORMS_PAYPAL_VERIFY_IPN" default:"true"`
	// Blank URLs are derived from the public domain.
	NotifyURL string `envconfig:"ORDERFORMS_PAYPAL_NOTIFY_URL"`
	ReturnURL string `envconfig:"ORDERFORMS_PAYPAL_RETURN_URL"`
	CancelURL string `envconfig:"ORDERFORMS_PAYPAL_CANCEL_URL"`
}

// Enabled reports whether payment initiation can be offered at all.
func (p PayPalConfig) Enabled() bool {
	return p.BusinessEmail != "" && p.CustomKey != ""
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DBDriverSQLite)
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
