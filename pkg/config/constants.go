package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	MailTransportLog      = "log"
	MailTransportSMTP     = "smtp"
	MailTransportSendgrid = "sendgrid"
)

const (
	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvPort           = "STOREFRONT_APP_PORT"
	EnvDBDSN          = "STOREFRONT_DB_DSN"
	EnvDBHost         = "STOREFRONT_DB_HOST"
	EnvDBUser         = "STOREFRONT_DB_USER"
	EnvDBName         = "STOREFRONT_DB_NAME"
	EnvDBPassword     = "STOREFRONT_DB_PASSWORD"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
	EnvPaystackSecret = "STOREFRONT_PAYSTACK_SECRET_KEY"
	EnvMailTransport  = "STOREFRONT_MAIL_TRANSPORT"
	EnvSMTPHost       = "STOREFRONT_SMTP_HOST"
	EnvSendgridAPIKey = "STOREFRONT_SENDGRID_API_KEY"
	EnvCapitalFee     = "STOREFRONT_DELIVERY_CAPITAL_FEE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
