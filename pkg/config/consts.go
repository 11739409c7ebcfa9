package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "ruac"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "RUAC_DB_DSN"
	EnvDBHost = "RUAC_DB_HOST"
	EnvDBUser = "RUAC_DB_USER"
	EnvDBName = "RUAC_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
