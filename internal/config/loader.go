package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/jkromann/virkdata/internal/db"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// RedisConfig holds the payload cache settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// RegistryConfig holds the upstream CVR API settings.
type RegistryConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// AdminConfig holds credentials for the admin endpoints. An empty key
// disables the admin surface entirely.
type AdminConfig struct {
	APIKey string
}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig
	Database db.Config
	Redis    RedisConfig
	Registry RegistryConfig
	Admin    AdminConfig
}

// Default returns the configuration used when no config file or environment
// overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: db.DefaultConfig(),
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			CacheTTL: 6 * time.Hour,
		},
		Registry: RegistryConfig{
			BaseURL: "http://distribution.virk.dk",
			Timeout: 15 * time.Second,
		},
	}
}

// Load reads config.yaml from the given path, with environment overrides
// mapped under the VIRKDATA prefix (e.g. VIRKDATA_DATABASE_HOST).
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv() // allow environment overrides
	v.SetEnvPrefix("VIRKDATA")

	// Map nested keys to flat env vars
	v.BindEnv("server.addr")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("redis.addr")
	v.BindEnv("redis.password")
	v.BindEnv("registry.base_url")
	v.BindEnv("registry.api_key")
	v.BindEnv("admin.api_key")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("redis.addr") {
		cfg.Redis.Addr = v.GetString("redis.addr")
	}
	if v.IsSet("redis.password") {
		cfg.Redis.Password = v.GetString("redis.password")
	}
	if v.IsSet("redis.db") {
		cfg.Redis.DB = v.GetInt("redis.db")
	}
	if v.IsSet("redis.cache_ttl") {
		cfg.Redis.CacheTTL = v.GetDuration("redis.cache_ttl")
	}
	if v.IsSet("registry.base_url") {
		cfg.Registry.BaseURL = v.GetString("registry.base_url")
	}
	if v.IsSet("registry.api_key") {
		cfg.Registry.APIKey = v.GetString("registry.api_key")
	}
	if v.IsSet("registry.timeout") {
		cfg.Registry.Timeout = v.GetDuration("registry.timeout")
	}
	if v.IsSet("admin.api_key") {
		cfg.Admin.APIKey = v.GetString("admin.api_key")
	}

	return cfg, nil
}
