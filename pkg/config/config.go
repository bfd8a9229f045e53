package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Features FeaturesConfig
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
	Env          string `envconfig:"GRANARY_APP_ENV" required:"true"`
	Port         string `envconfig:"GRANARY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GRANARY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GRANARY_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"GRANARY_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"GRANARY_DB_DSN"`

	Host     string `envconfig:"GRANARY_DB_HOST"`
	Port     int    `envconfig:"GRANARY_DB_PORT" default:"5432"`
	User     string `envconfig:"GRANARY_DB_USER"`
	Password string `envconfig:"GRANARY_DB_PASSWORD"`
	Name     string `envconfig:"GRANARY_DB_NAME"`
	SSLMode  string `envconfig:"GRANARY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GRANARY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GRANARY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GRANARY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GRANARY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GRANARY_REDIS_URL"`
	Address      string        `envconfig:"GRANARY_REDIS_ADDR"`
	Password     string        `envconfig:"GRANARY_REDIS_PASSWORD"`
	DB           int           `envconfig:"GRANARY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GRANARY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GRANARY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GRANARY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GRANARY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GRANARY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GRANARY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GRANARY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GRANARY_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"GRANARY_SESSION_TTL_MINUTES" default:"720"`
}

// SessionTTL returns the server-side session lifetime.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GRANARY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GRANARY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GRANARY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GRANARY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GRANARY_ARGON_KEY_LEN" default:"32"`
}

type FeaturesConfig struct {
	AutoMigrate       bool   `envconfig:"GRANARY_AUTO_MIGRATE" default:"false"`
	SeedAdminUser     bool   `envconfig:"GRANARY_SEED_ADMIN_USER" default:"false"`
	SeedAdminEmail    string `envconfig:"GRANARY_SEED_ADMIN_EMAIL" default:"admin@granary.local"`
	SeedAdminPassword string `envconfig:"GRANARY_SEED_ADMIN_PASSWORD" default:""`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range []string{EnvDBHost, EnvDBUser, EnvDBName} {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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
