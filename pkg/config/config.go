package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Cart         CartConfig
	Store        StoreConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"MCSTORE_APP_ENV" required:"true"`
	Port         string   `envconfig:"MCSTORE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"MCSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"MCSTORE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"MCSTORE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MCSTORE_DB_DSN"`
	Driver string `envconfig:"MCSTORE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MCSTORE_DB_HOST"`
	Port     int    `envconfig:"MCSTORE_DB_PORT" default:"5432"`
	User     string `envconfig:"MCSTORE_DB_USER"`
	Password string `envconfig:"MCSTORE_DB_PASSWORD"`
	Name     string `envconfig:"MCSTORE_DB_NAME"`
	SSLMode  string `envconfig:"MCSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MCSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MCSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MCSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MCSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"MCSTORE_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MCSTORE_REDIS_URL"`
	Address      string        `envconfig:"MCSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"MCSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"MCSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MCSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MCSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MCSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MCSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MCSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// CartConfig selects where cart snapshots live between requests. IdleTTL
// bounds how long an untouched session cart stays in API memory.
type CartConfig struct {
	Backend       string        `envconfig:"MCSTORE_CART_BACKEND" default:"redis"`
	StorageKey    string        `envconfig:"MCSTORE_CART_STORAGE_KEY" default:"mc-cart-v1"`
	TTL           time.Duration `envconfig:"MCSTORE_CART_TTL" default:"720h"`
	IdleTTL       time.Duration `envconfig:"MCSTORE_CART_IDLE_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"MCSTORE_CART_SWEEP_INTERVAL" default:"5m"`
}

func (c CartConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case CartBackendRedis, CartBackendDB, CartBackendMemory:
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s", EnvCartBackend, CartBackendRedis, CartBackendDB, CartBackendMemory)
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return fmt.Errorf("%s must not be empty", EnvCartStorageKey)
	}
	return nil
}

// BackendName returns the normalized persistence backend.
func (c CartConfig) BackendName() string {
	return strings.ToLower(strings.TrimSpace(c.Backend))
}

// StoreConfig carries the storefront identity used when building invoices.
type StoreConfig struct {
	Name          string `envconfig:"MCSTORE_STORE_NAME" default:"MC Beauty & Fragrance"`
	WhatsAppPhone string `envconfig:"MCSTORE_WHATSAPP_PHONE" default:"18297283652"`
	DeliveryNote  string `envconfig:"MCSTORE_DELIVERY_NOTE" default:"El costo de delivery se paga al mensajero."`
	Timezone      string `envconfig:"MCSTORE_TIMEZONE" default:"America/Santo_Domingo"`
}

// Location resolves the configured timezone, falling back to UTC.
func (s StoreConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(strings.TrimSpace(s.Timezone)); err == nil && s.Timezone != "" {
		return loc
	}
	return time.UTC
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MCSTORE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MCSTORE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"MCSTORE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic  string        `envconfig:"MCSTORE_PUBSUB_ORDERS_TOPIC" default:"mc-order-events"`
	PublishDelay time.Duration `envconfig:"MCSTORE_PUBSUB_PUBLISH_DELAY" default:"10ms"`
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"MCSTORE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"MCSTORE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"MCSTORE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	MetricsAddr    string `envconfig:"MCSTORE_OUTBOX_METRICS_ADDR" default:":9102"`
}

// RateLimitConfig bounds anonymous page-view tracking per session.
type RateLimitConfig struct {
	PageViewLimit  int           `envconfig:"MCSTORE_RATE_LIMIT_PAGE_VIEWS" default:"120"`
	PageViewWindow time.Duration `envconfig:"MCSTORE_RATE_LIMIT_PAGE_VIEW_WINDOW" default:"1m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = DefaultSQLiteDSN
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
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
