package config

// EnvPrefix namespaces every variable the service reads.
const EnvPrefix = "PERFUMICHI"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "PERFUMICHI_APP_ENV"
	EnvPort     = "PERFUMICHI_APP_PORT"
	EnvDBDSN    = "PERFUMICHI_DB_DSN"
	EnvDBHost   = "PERFUMICHI_DB_HOST"
	EnvDBUser   = "PERFUMICHI_DB_USER"
	EnvDBName   = "PERFUMICHI_DB_NAME"
	EnvRedisURL = "PERFUMICHI_REDIS_URL"

	EnvJWTSecret              = "PERFUMICHI_JWT_SECRET"
	EnvJWTIssuer              = "PERFUMICHI_JWT_ISSUER"
	EnvJWTExpMins             = "PERFUMICHI_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "PERFUMICHI_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
