package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable read by Load.
	EnvPrefix = "MITRAPONICS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	APIRateLimit  APIRateLimitConfig
	Cart          CartConfig
	Checkout      CheckoutConfig
	Uploads       UploadsConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"MITRAPONICS_APP_ENV" required:"true"`
	Port         string `envconfig:"MITRAPONICS_APP_PORT" default:"8000"`
	LogLevel     string `envconfig:"MITRAPONICS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MITRAPONICS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"MITRAPONICS_DB_DSN"`

	Host     string `envconfig:"MITRAPONICS_DB_HOST"`
	Port     int    `envconfig:"MITRAPONICS_DB_PORT" default:"5432"`
	User     string `envconfig:"MITRAPONICS_DB_USER"`
	Password string `envconfig:"MITRAPONICS_DB_PASSWORD"`
	Name     string `envconfig:"MITRAPONICS_DB_NAME"`
	SSLMode  string `envconfig:"MITRAPONICS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MITRAPONICS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MITRAPONICS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MITRAPONICS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MITRAPONICS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MITRAPONICS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MITRAPONICS_REDIS_ADDR"`
	Password     string        `envconfig:"MITRAPONICS_REDIS_PASSWORD"`
	DB           int           `envconfig:"MITRAPONICS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MITRAPONICS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MITRAPONICS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MITRAPONICS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MITRAPONICS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MITRAPONICS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MITRAPONICS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MITRAPONICS_JWT_ISSUER" default:"mitraponics"`
	ExpirationMinutes int    `envconfig:"MITRAPONICS_JWT_EXPIRATION_MINUTES" default:"10080"`
}

// AccessTokenTTL returns the configured access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MITRAPONICS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MITRAPONICS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MITRAPONICS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MITRAPONICS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MITRAPONICS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MITRAPONICS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MITRAPONICS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MITRAPONICS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MITRAPONICS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MITRAPONICS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MITRAPONICS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type APIRateLimitConfig struct {
	Limit  int64         `envconfig:"MITRAPONICS_API_RATE_LIMIT" default:"120"`
	Window time.Duration `envconfig:"MITRAPONICS_API_RATE_LIMIT_WINDOW" default:"1m"`
}

type CartConfig struct {
	SessionCookieName string        `envconfig:"MITRAPONICS_CART_SESSION_COOKIE" default:"cart_session_id"`
	SessionTTL        time.Duration `envconfig:"MITRAPONICS_CART_SESSION_TTL" default:"720h"`
	CookieSecure      bool          `envconfig:"MITRAPONICS_CART_COOKIE_SECURE" default:"false"`
}

type CheckoutConfig struct {
	IdempotencyTTL time.Duration `envconfig:"MITRAPONICS_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
}

type UploadsConfig struct {
	Dir         string `envconfig:"MITRAPONICS_UPLOADS_DIR" default:"public/uploads"`
	PublicBase  string `envconfig:"MITRAPONICS_UPLOADS_PUBLIC_BASE" default:"/uploads"`
	MaxUploadMB int    `envconfig:"MITRAPONICS_MAX_UPLOAD_MB" default:"2"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MITRAPONICS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		"MITRAPONICS_DB_HOST": db.Host,
		"MITRAPONICS_DB_USER": db.User,
		"MITRAPONICS_DB_NAME": db.Name,
	}
	for _, key := range []string{"MITRAPONICS_DB_HOST", "MITRAPONICS_DB_USER", "MITRAPONICS_DB_NAME"} {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either MITRAPONICS_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
