// config/config.go
package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config mirrors config.yaml; every key can be overridden by env (server.address -> SERVER_ADDRESS).
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Gateway        GatewayConfig        `mapstructure:"gateway"`
	Twitter        TwitterConfig        `mapstructure:"twitter"`
	R2             R2Config             `mapstructure:"r2"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
}

type ServerConfig struct {
	Address        string `mapstructure:"address"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig is optional; an empty address keeps rate limiting in process.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type GatewayConfig struct {
	ServiceToken string `mapstructure:"service_token"`
}

type TwitterConfig struct {
	SyndicationURL string        `mapstructure:"syndication_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequiredTag    string        `mapstructure:"required_tag"`
}

type R2Config struct {
	AccountID       string `mapstructure:"account_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	Bucket          string `mapstructure:"bucket"`
}

// Enabled reports whether report uploads can be configured.
func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.Bucket != ""
}

type ReconciliationConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Repair   bool          `mapstructure:"repair"`
}

var defaults = map[string]any{
	"server.address":          ":5200",
	"server.allowed_origins":  "http://localhost:3000",
	"database.url":            "",
	"redis.address":           "",
	"redis.password":          "",
	"redis.db":                0,
	"gateway.service_token":   "",
	"twitter.syndication_url": "https://cdn.syndication.twimg.com",
	"twitter.timeout":         5 * time.Second,
	"twitter.required_tag":    "#kabbalahcode",
	"r2.account_id":           "",
	"r2.access_key_id":        "",
	"r2.access_key_secret":    "",
	"r2.bucket":               "",
	"reconciliation.enabled":  true,
	"reconciliation.interval": time.Hour,
	"reconciliation.repair":   false,
}

// Load reads .env, then config.yaml (optional), then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Println("⚠️  No config.yaml found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits the comma-separated CORS list and trims each entry.
func (s ServerConfig) Origins() []string {
	var out []string
	for _, origin := range strings.Split(s.AllowedOrigins, ",") {
		if o := strings.TrimSpace(origin); o != "" {
			out = append(out, o)
		}
	}
	return out
}
