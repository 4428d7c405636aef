package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "READS"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv                 = "READS_APP_ENV"
	EnvPort                   = "READS_APP_PORT"
	EnvDBDSN                  = "READS_DB_DSN"
	EnvDBHost                 = "READS_DB_HOST"
	EnvDBUser                 = "READS_DB_USER"
	EnvDBName                 = "READS_DB_NAME"
	EnvRedisURL               = "READS_REDIS_URL"
	EnvJWTSecret              = "READS_JWT_SECRET"
	EnvJWTIssuer              = "READS_JWT_ISSUER"
	EnvJWTExpMins             = "READS_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "READS_REFRESH_TOKEN_TTL_MINUTES"
	EnvStripeAPIKey           = "READS_STRIPE_API_KEY"
	EnvPublicBaseURL          = "READS_PUBLIC_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
