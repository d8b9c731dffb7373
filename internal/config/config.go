package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"

	"stage-analytics-service/internal/window"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type AnalyticsConfig struct {
	Timezone       string
	Location       *time.Location
	DefaultWindows []string
	MaxRangeDays   int
	Workers        int
}

type Config struct {
	Environment string
	StoreDriver string
	HTTP        HTTPConfig
	DB          DBConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Analytics   AnalyticsConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		StoreDriver: strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Mongo: MongoConfig{
			URI:        v.GetString("MONGO_URI"),
			Database:   v.GetString("MONGO_DATABASE"),
			Collection: v.GetString("MONGO_COLLECTION"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("CACHE_TTL"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Analytics: AnalyticsConfig{
			Timezone:       v.GetString("ANALYTICS_TIMEZONE"),
			DefaultWindows: splitList(v.GetString("ANALYTICS_DEFAULT_WINDOWS")),
			MaxRangeDays:   v.GetInt("ANALYTICS_MAX_RANGE_DAYS"),
			Workers:        v.GetInt("ANALYTICS_WORKERS"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = StoreMongo
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "service_center"
	}
	if cfg.Mongo.Collection == "" {
		cfg.Mongo.Collection = "vehicles"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 30 * time.Second
	}
	if cfg.Analytics.Timezone == "" {
		cfg.Analytics.Timezone = "Asia/Kolkata"
	}
	if len(cfg.Analytics.DefaultWindows) == 0 {
		cfg.Analytics.DefaultWindows = []string{"today", "thisWeek", "thisMonth", "lastMonth"}
	}
	if cfg.Analytics.MaxRangeDays <= 0 {
		cfg.Analytics.MaxRangeDays = 366
	}
	if cfg.Analytics.Workers <= 0 {
		cfg.Analytics.Workers = runtime.NumCPU()
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.Mongo.URI == "" {
			return fmt.Errorf("MONGO_URI is required")
		}
	case StorePostgres:
		if cfg.DB.DSN == "" {
			return fmt.Errorf("DB_DSN is required")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMongo, StorePostgres, cfg.StoreDriver)
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	loc, err := time.LoadLocation(cfg.Analytics.Timezone)
	if err != nil {
		return fmt.Errorf("ANALYTICS_TIMEZONE: %w", err)
	}
	cfg.Analytics.Location = loc
	for _, name := range cfg.Analytics.DefaultWindows {
		kind, err := window.ParseKind(name)
		if err != nil {
			return fmt.Errorf("ANALYTICS_DEFAULT_WINDOWS: %w", err)
		}
		if kind == window.Custom {
			return fmt.Errorf("ANALYTICS_DEFAULT_WINDOWS: %q needs explicit bounds", name)
		}
	}
	return nil
}

func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
