package config

// EnvPrefix is empty because every envconfig tag spells out its full name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	MailDriverLog  = "log"
	MailDriverSMTP = "smtp"
)

const (
	EnvAppEnv     = "ORDERFORMS_APP_ENV"
	EnvPort       = "ORDERFORMS_APP_PORT"
	EnvDomain     = "ORDERFORMS_DOMAIN"
	EnvDBDSN      = "ORDERFORMS_DB_DSN"
	EnvDBDriver   = "ORDERFORMS_DB_DRIVER"
	EnvDBHost     = "ORDERFORMS_DB_HOST"
	EnvDBUser     = "ORDERFORMS_DB_USER"
	EnvDBName     = "ORDERFORMS_DB_NAME"
	EnvDBPassword = "ORDERFORMS_DB_PASSWORD"
	EnvRedisURL   = "ORDERFORMS_REDIS_URL"
	EnvMailDriver = "ORDERFORMS_MAIL_DRIVER"
	EnvSMTPHost   = "ORDERFORMS_SMTP_HOST"
	EnvSerialize  = "ORDERFORMS_SUBMIT_SERIALIZE"
	EnvPayPalMail = "ORDERFORMS_PAYPAL_EMAIL"
	EnvPayPalKey  = "ORDERFORMS_PAYPAL_CUSTOM_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
