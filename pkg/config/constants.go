package config

// EnvPrefix is empty because every field carries its fully qualified
// KASUWA_* variable name in its envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "KASUWA_DB_DSN"
	EnvDBHost = "KASUWA_DB_HOST"
	EnvDBUser = "KASUWA_DB_USER"
	EnvDBName = "KASUWA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
