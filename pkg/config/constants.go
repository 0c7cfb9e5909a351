package config

const EnvPrefix = "POS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv = "POS_APP_ENV"
	EnvPort   = "POS_APP_PORT"

	EnvDBDSN  = "POS_DB_DSN"
	EnvDBHost = "POS_DB_HOST"
	EnvDBUser = "POS_DB_USER"
	EnvDBName = "POS_DB_NAME"

	EnvRedisURL = "POS_REDIS_URL"

	EnvCatalogBaseURL       = "POS_CATALOG_BASE_URL"
	EnvSalesBaseURL         = "POS_SALES_BASE_URL"
	EnvSalesBreakerFailures = "POS_SALES_BREAKER_MAX_FAILURES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
