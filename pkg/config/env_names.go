package config

// EnvPrefix namespaces every environment variable the app reads.
const EnvPrefix = "GRANARY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "GRANARY_APP_ENV"
	EnvPort       = "GRANARY_APP_PORT"
	EnvDBDSN      = "GRANARY_DB_DSN"
	EnvDBHost     = "GRANARY_DB_HOST"
	EnvDBUser     = "GRANARY_DB_USER"
	EnvDBName     = "GRANARY_DB_NAME"
	EnvRedisURL   = "GRANARY_REDIS_URL"
	EnvJWTSecret  = "GRANARY_JWT_SECRET"
	EnvJWTIssuer  = "GRANARY_JWT_ISSUER"
	EnvJWTExpMins = "GRANARY_JWT_EXPIRATION_MINUTES"
)
