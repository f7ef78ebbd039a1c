package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Posts     PostsConfig     `mapstructure:"posts"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Log       LogConfig       `mapstructure:"log"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver       string        `mapstructure:"driver"` // postgres, sqlite
	DSN          string        `mapstructure:"dsn"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	ConnMaxLife  time.Duration `mapstructure:"conn_max_life"`
	AutoMigrate  bool          `mapstructure:"auto_migrate"`
	LogLevel     string        `mapstructure:"log_level"` // silent, error, warn, info
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 身份令牌校验。HS256 使用 Secret，RS256 使用 PublicKeyPEM。
type AuthConfig struct {
	Algorithm    string `mapstructure:"algorithm"`
	Secret       string `mapstructure:"secret"`
	PublicKeyPEM string `mapstructure:"public_key_pem"`
	Issuer       string `mapstructure:"issuer"`
}

type RateLimitConfig struct {
	Backend string        `mapstructure:"backend"` // redis, memory
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
	Prefix  string        `mapstructure:"prefix"`
}

type IdentityConfig struct {
	Provider     string        `mapstructure:"provider"` // http, directory
	BaseURL      string        `mapstructure:"base_url"`
	SecretKey    string        `mapstructure:"secret_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RequestsPerS float64       `mapstructure:"requests_per_second"`
	Burst        int           `mapstructure:"burst"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	SeedUsers    []SeedUser    `mapstructure:"seed_users"`
}

// SeedUser 目录模式下启动时写入的用户
type SeedUser struct {
	ID              string `mapstructure:"id"`
	FirstName       string `mapstructure:"first_name"`
	LastName        string `mapstructure:"last_name"`
	Email           string `mapstructure:"email"`
	ProfileImageURL string `mapstructure:"profile_image_url"`
}

type PostsConfig struct {
	EmojiMode string `mapstructure:"emoji_mode"` // only, single
	MaxLength int    `mapstructure:"max_length"`
}

type FeedConfig struct {
	PageSize int `mapstructure:"page_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, console
}

type SentryConfig struct {
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:emojifeed.db?cache=shared")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_life", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("auth.algorithm", "HS256")

	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.limit", 3)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("ratelimit.prefix", "ratelimit:posts")

	v.SetDefault("identity.provider", "directory")
	v.SetDefault("identity.base_url", "https://api.clerk.com")
	v.SetDefault("identity.timeout", 5*time.Second)
	v.SetDefault("identity.requests_per_second", 20.0)
	v.SetDefault("identity.burst", 10)
	v.SetDefault("identity.cache_ttl", time.Duration(0))

	v.SetDefault("posts.emoji_mode", "only")
	v.SetDefault("posts.max_length", 255)

	v.SetDefault("feed.page_size", 100)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("sentry.sample_rate", 1.0)

	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.service_name", "emoji-feed")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// Load 读取配置：config/config.yaml（可选）+ EMOJIFEED_ 前缀的环境变量
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("EMOJIFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 启动前检查配置组合是否可用
func (c *Config) Validate() error {
	if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("ratelimit: limit and window must be positive")
	}
	if c.RateLimit.Backend == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("ratelimit: redis backend requires redis.enabled")
	}
	if c.Identity.CacheTTL > 0 && !c.Redis.Enabled {
		return fmt.Errorf("identity: cache_ttl requires redis.enabled")
	}
	if c.Identity.Provider == "http" && c.Identity.SecretKey == "" {
		return fmt.Errorf("identity: http provider requires secret_key")
	}
	if c.Feed.PageSize <= 0 || c.Feed.PageSize > 100 {
		return fmt.Errorf("feed: page_size must be in [1, 100]")
	}
	switch c.Posts.EmojiMode {
	case "only", "single":
	default:
		return fmt.Errorf("posts: unknown emoji_mode %q", c.Posts.EmojiMode)
	}
	return nil
}
