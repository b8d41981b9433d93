package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Cart          CartConfig
	Checkout      CheckoutConfig
	Stripe        StripeConfig
	Email         EmailConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PERFUMICHI_APP_ENV" required:"true"`
	Port         string `envconfig:"PERFUMICHI_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PERFUMICHI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PERFUMICHI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PERFUMICHI_DB_DSN"`
	Driver string `envconfig:"PERFUMICHI_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PERFUMICHI_DB_HOST"`
	LegacyPort     int    `envconfig:"PERFUMICHI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PERFUMICHI_DB_USER"`
	LegacyPassword string `envconfig:"PERFUMICHI_DB_PASSWORD"`
	LegacyName     string `envconfig:"PERFUMICHI_DB_NAME"`
	LegacySSLMode  string `envconfig:"PERFUMICHI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PERFUMICHI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PERFUMICHI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PERFUMICHI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PERFUMICHI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PERFUMICHI_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PERFUMICHI_REDIS_ADDR"`
	Password     string        `envconfig:"PERFUMICHI_REDIS_PASSWORD"`
	DB           int           `envconfig:"PERFUMICHI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PERFUMICHI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PERFUMICHI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PERFUMICHI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PERFUMICHI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PERFUMICHI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PERFUMICHI_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PERFUMICHI_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PERFUMICHI_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PERFUMICHI_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PERFUMICHI_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PERFUMICHI_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PERFUMICHI_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PERFUMICHI_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PERFUMICHI_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PERFUMICHI_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PERFUMICHI_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PERFUMICHI_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PERFUMICHI_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PERFUMICHI_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PERFUMICHI_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PERFUMICHI_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PERFUMICHI_AUTO_MIGRATE" default:"false"`
}

type CartConfig struct {
	KeyTTL time.Duration `envconfig:"PERFUMICHI_CART_KEY_TTL" default:"720h"`
}

type CheckoutConfig struct {
	Currency              string        `envconfig:"PERFUMICHI_CHECKOUT_CURRENCY" default:"eur"`
	FreeShippingThreshold int64         `envconfig:"PERFUMICHI_CHECKOUT_FREE_SHIPPING_CENTS" default:"8000"`
	ShippingCostCents     int64         `envconfig:"PERFUMICHI_CHECKOUT_SHIPPING_CENTS" default:"599"`
	Locale                string        `envconfig:"PERFUMICHI_CHECKOUT_LOCALE" default:"es"`
	FallbackOrigin        string        `envconfig:"PERFUMICHI_CHECKOUT_FALLBACK_ORIGIN" default:"https://perfumichi.com"`
	AllowedCountries      []string      `envconfig:"PERFUMICHI_CHECKOUT_ALLOWED_COUNTRIES" default:"ES,PT,FR,IT,DE,BE,NL,AT"`
	SubmitGuardTTL        time.Duration `envconfig:"PERFUMICHI_CHECKOUT_SUBMIT_GUARD_TTL" default:"1m"`
}

type StripeConfig struct {
	APIKey string `envconfig:"PERFUMICHI_STRIPE_API_KEY"`
	Env    string `envconfig:"PERFUMICHI_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type EmailConfig struct {
	Endpoint        string        `envconfig:"PERFUMICHI_EMAIL_ENDPOINT" default:"https://api.emailjs.com/api/v1.0/email/send"`
	ServiceID       string        `envconfig:"PERFUMICHI_EMAIL_SERVICE_ID"`
	AdminTemplateID string        `envconfig:"PERFUMICHI_EMAIL_ADMIN_TEMPLATE_ID"`
	UserTemplateID  string        `envconfig:"PERFUMICHI_EMAIL_USER_TEMPLATE_ID"`
	PublicKey       string        `envconfig:"PERFUMICHI_EMAIL_PUBLIC_KEY"`
	AdminAddress    string        `envconfig:"PERFUMICHI_EMAIL_ADMIN_ADDRESS"`
	SendTimeout     time.Duration `envconfig:"PERFUMICHI_EMAIL_SEND_TIMEOUT" default:"10s"`
	MaxRetries      int           `envconfig:"PERFUMICHI_EMAIL_MAX_RETRIES" default:"2"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
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
