package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "MCSTORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	CartBackendRedis  = "redis"
	CartBackendDB     = "db"
	CartBackendMemory = "memory"
)

const DefaultSQLiteDSN = "file:mcstore.db?cache=shared"

const (
	EnvAppEnv         = "MCSTORE_APP_ENV"
	EnvPort           = "MCSTORE_APP_PORT"
	EnvLogLevel       = "MCSTORE_LOG_LEVEL"
	EnvDBDSN          = "MCSTORE_DB_DSN"
	EnvDBHost         = "MCSTORE_DB_HOST"
	EnvDBUser         = "MCSTORE_DB_USER"
	EnvDBPassword     = "MCSTORE_DB_PASSWORD"
	EnvDBName         = "MCSTORE_DB_NAME"
	EnvRedisURL       = "MCSTORE_REDIS_URL"
	EnvCartBackend    = "MCSTORE_CART_BACKEND"
	EnvCartStorageKey = "MCSTORE_CART_STORAGE_KEY"
	EnvCartTTL        = "MCSTORE_CART_TTL"
	EnvUseSQLite      = "MCSTORE_USE_SQLITE"
	EnvWhatsAppPhone  = "MCSTORE_WHATSAPP_PHONE"
	EnvGCPProjectID   = "MCSTORE_GCP_PROJECT_ID"
	EnvOrdersTopic    = "MCSTORE_PUBSUB_ORDERS_TOPIC"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
