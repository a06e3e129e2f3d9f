package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/fx"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Module = fx.Provide(NewConfig)

type IConfig interface {
	Get(key string) interface{}
	GetBool(key string) bool
	GetFloat64(key string) float64
	GetInt(key string) int
	GetInt64(key string) int64
	GetIntSlice(key string) []int
	GetString(key string) string
	GetStringMap(key string) map[string]interface{}
	GetStringMapString(key string) map[string]string
	UnmarshalKey(key string, val interface{}) error
	GetStringSlice(key string) []string
	GetDuration(key string) time.Duration
}

type config struct {
	cfg *viper.Viper
}

func NewConfig() IConfig {
	_ = godotenv.Load()

	cfg := viper.New()
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	setDefaults(cfg)

	_ = cfg.BindEnv("server.host", "SERVICE_HOST")
	_ = cfg.BindEnv("server.port", "SERVICE_HTTP_PORT")
	_ = cfg.BindEnv("server.allowed_origins", "SERVER_ALLOWED_ORIGINS")
	_ = cfg.BindEnv("secret_key", "SECRET_KEY")
	_ = cfg.BindEnv("log.level", "LOG_LEVEL")
	_ = cfg.BindEnv("storage.driver", "STORAGE_DRIVER")
	_ = cfg.BindEnv("database.dns", "DATABASE_DNS")
	_ = cfg.BindEnv("database.migration", "DATABASE_MIGRATION")
	_ = cfg.BindEnv("database.host", "POSTGRES_HOST")
	_ = cfg.BindEnv("database.user", "POSTGRES_USER")
	_ = cfg.BindEnv("database.password", "POSTGRES_PASSWORD")
	_ = cfg.BindEnv("database.dbname", "POSTGRES_DATABASE")
	_ = cfg.BindEnv("database.port", "POSTGRES_PORT")
	_ = cfg.BindEnv("database.sslmode", "POSTGRES_SSLMODE")
	_ = cfg.BindEnv("database.pool_max_conns", "POSTGRES_MAX_CONNECTION")
	_ = cfg.BindEnv("database.pool_max_conn_lifetime", "POSTGRES_POOL_MAX_CONN_LIFETIME")
	_ = cfg.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = cfg.BindEnv("redis.addrs", "REDIS_ADDRS")
	_ = cfg.BindEnv("geocode.host", "GEOCODE_HOST")
	_ = cfg.BindEnv("geocode.user_agent", "GEOCODE_USER_AGENT")
	_ = cfg.BindEnv("geocode.timeout", "GEOCODE_TIMEOUT")
	_ = cfg.BindEnv("api.host", "API_HOST")
	_ = cfg.BindEnv("api.timeout", "API_TIMEOUT")
	_ = cfg.BindEnv("delivery.origin_lat", "DELIVERY_ORIGIN_LAT")
	_ = cfg.BindEnv("delivery.origin_lng", "DELIVERY_ORIGIN_LNG")
	_ = cfg.BindEnv("delivery.radius_km", "DELIVERY_RADIUS_KM")
	_ = cfg.BindEnv("checkout.min_order_amount", "CHECKOUT_MIN_ORDER_AMOUNT")
	_ = cfg.BindEnv("checkout.brand_name", "CHECKOUT_BRAND_NAME")
	_ = cfg.BindEnv("checkout.idle_ttl", "CHECKOUT_IDLE_TTL")
	_ = cfg.BindEnv("location.timeout", "LOCATION_TIMEOUT")
	_ = cfg.BindEnv("location.maximum_age", "LOCATION_MAXIMUM_AGE")
	_ = cfg.BindEnv("payment.success_pattern", "PAYMENT_SUCCESS_PATTERN")
	_ = cfg.BindEnv("payment.failure_pattern", "PAYMENT_FAILURE_PATTERN")
	_ = cfg.BindEnv("notify.bot_token", "BOT_TOKEN")
	_ = cfg.BindEnv("notify.admin_chat_id", "ADMIN_CHAT_ID")
	_ = cfg.BindEnv("email.host", "SMTP_HOST")
	_ = cfg.BindEnv("email.port", "SMTP_PORT")
	_ = cfg.BindEnv("email.login", "SMTP_LOGIN")
	_ = cfg.BindEnv("email.password", "SMTP_PASSWORD")

	if addrs := os.Getenv("REDIS_ADDRS"); addrs != "" {
		cfg.Set("redis.addrs", strings.Split(addrs, ","))
	}

	if cfg.GetString("database.dns") == "" {
		if dsn := BuildPostgresDSNFromViper(cfg); dsn != "" {
			cfg.Set("database.dns", dsn)
		}
	}
	if cfg.GetString("database.migration") == "" {
		if migrationURL := BuildPostgresURLFromViper(cfg); migrationURL != "" {
			cfg.Set("database.migration", migrationURL)
		}
	}

	return &config{cfg: cfg}
}

// setDefaults keeps the service runnable with an empty environment: in-memory
// storage, the public nominatim host and the bus-stand delivery origin.
func setDefaults(cfg *viper.Viper) {
	cfg.SetDefault("server.port", ":8080")
	cfg.SetDefault("log.level", "debug")
	cfg.SetDefault("storage.driver", "memory")
	cfg.SetDefault("redis.prefix", "storefront")
	cfg.SetDefault("geocode.host", "https://nominatim.openstreetmap.org")
	cfg.SetDefault("geocode.user_agent", "storefront-checkout/1.0")
	cfg.SetDefault("geocode.timeout", 10*time.Second)
	cfg.SetDefault("api.timeout", 20*time.Second)
	cfg.SetDefault("delivery.origin_lat", 12.4962)
	cfg.SetDefault("delivery.origin_lng", 78.5696)
	cfg.SetDefault("delivery.radius_km", 5.0)
	cfg.SetDefault("checkout.min_order_amount", 100)
	cfg.SetDefault("checkout.brand_name", "Storefront")
	cfg.SetDefault("checkout.idle_ttl", 30*time.Minute)
	cfg.SetDefault("location.timeout", 15*time.Second)
	cfg.SetDefault("location.maximum_age", 10*time.Second)
	cfg.SetDefault("payment.success_pattern", "/payment-success")
	cfg.SetDefault("payment.failure_pattern", "/payment-failed")
	cfg.SetDefault("email.port", "465")
	cfg.SetDefault("email.timeout", 15*time.Second)
}

func (c *config) Get(key string) interface{} {
	return c.cfg.Get(key)
}

func (c *config) GetBool(key string) bool {
	return c.cfg.GetBool(key)
}

func (c *config) GetFloat64(key string) float64 {
	return c.cfg.GetFloat64(key)
}

func (c *config) GetInt(key string) int {
	return c.cfg.GetInt(key)
}

func (c *config) GetInt64(key string) int64 {
	return c.cfg.GetInt64(key)
}

func (c *config) GetIntSlice(key string) []int {
	return c.cfg.GetIntSlice(key)
}

func (c *config) GetString(key string) string {
	return c.cfg.GetString(key)
}

func (c *config) GetStringSlice(key string) []string {
	return c.cfg.GetStringSlice(key)
}

func (c *config) GetStringMap(key string) map[string]interface{} {
	return c.cfg.GetStringMap(key)
}
func (c *config) GetStringMapString(key string) map[string]string {
	return c.cfg.GetStringMapString(key)
}

func (c *config) UnmarshalKey(key string, val interface{}) error {
	return c.cfg.UnmarshalKey(key, val)
}

func (c *config) GetDuration(key string) time.Duration {
	return c.cfg.GetDuration(key)
}

type postgresParams struct {
	User         string
	Password     string
	Host         string
	Port         string
	DBName       string
	SSLMode      string
	PoolMaxConns int
	PoolLifetime string
}

func readPostgres(v *viper.Viper) postgresParams {
	p := postgresParams{
		User:         v.GetString("database.user"),
		Password:     v.GetString("database.password"),
		Host:         v.GetString("database.host"),
		Port:         v.GetString("database.port"),
		DBName:       v.GetString("database.dbname"),
		SSLMode:      v.GetString("database.sslmode"),
		PoolMaxConns: v.GetInt("database.pool_max_conns"),
		PoolLifetime: v.GetString("database.pool_max_conn_lifetime"),
	}
	if p.Port == "" {
		p.Port = "5432"
	}
	if p.SSLMode == "" {
		p.SSLMode = "disable"
	}
	if p.PoolMaxConns == 0 {
		p.PoolMaxConns = 30
	}
	if p.PoolLifetime == "" {
		p.PoolLifetime = "1h30m"
	}
	return p
}

// BuildPostgresDSNFromViper renders the pgxpool keyword/value string, or ""
// when no postgres connection is configured.
func BuildPostgresDSNFromViper(v *viper.Viper) string {
	p := readPostgres(v)
	if p.User == "" && p.Host == "" && p.DBName == "" {
		return ""
	}

	parts := []string{}
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, key+"="+value)
		}
	}
	add("user", p.User)
	add("password", p.Password)
	add("dbname", p.DBName)
	add("host", p.Host)
	add("port", p.Port)
	add("sslmode", p.SSLMode)
	parts = append(parts, fmt.Sprintf("pool_max_conns=%d", p.PoolMaxConns))
	parts = append(parts, "pool_max_conn_lifetime="+p.PoolLifetime)

	return strings.Join(parts, " ")
}

// BuildPostgresURLFromViper renders the URL golang-migrate expects.
func BuildPostgresURLFromViper(v *viper.Viper) string {
	p := readPostgres(v)
	if p.User == "" || p.Host == "" || p.DBName == "" {
		return ""
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     "/" + p.DBName,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	return u.String()
}
