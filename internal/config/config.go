package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Sources  SourcesConfig  `yaml:"sources"`
	Output   OutputConfig   `yaml:"output"`
	Store    StoreConfig    `yaml:"store"`
	Cache    CacheConfig    `yaml:"cache"`
	Telegram TelegramConfig `yaml:"telegram"`
	Run      RunConfig      `yaml:"run"`
	Server   ServerConfig   `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	Output string `yaml:"output" default:"stdout"`
}

type OracleConfig struct {
	Provider     string        `yaml:"provider" default:"openai" validate:"oneof=openai gemini"`
	OpenAIAPIKey string        `yaml:"openai_api_key"`
	OpenAIModel  string        `yaml:"openai_model" default:"gpt-4o"`
	GeminiAPIKey string        `yaml:"gemini_api_key"`
	GeminiModel  string        `yaml:"gemini_model" default:"gemini-2.5-flash"`
	Timeout      time.Duration `yaml:"timeout" default:"60s"`
}

type SourcesConfig struct {
	ProductHuntToken string        `yaml:"product_hunt_token"`
	GitHubLimit      int           `yaml:"github_limit" default:"20" validate:"min=1,max=100"`
	ProductHuntLimit int           `yaml:"product_hunt_limit" default:"10" validate:"min=1,max=50"`
	RSSPerFeed       int           `yaml:"rss_per_feed" default:"5" validate:"min=1,max=50"`
	ManifoldLimit    int           `yaml:"manifold_limit" default:"10" validate:"min=1,max=200"`
	HTTPTimeout      time.Duration `yaml:"http_timeout" default:"30s"`
	UserAgent        string        `yaml:"user_agent" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"`
}

type OutputConfig struct {
	Dir string `yaml:"dir" default:"processed_data" validate:"required"`
}

type StoreConfig struct {
	Backend     string           `yaml:"backend" default:"supabase" validate:"oneof=supabase clickhouse sqlite none"`
	Table       string           `yaml:"table" default:"tech_pulses" validate:"required"`
	SupabaseURL string           `yaml:"supabase_url"`
	SupabaseKey string           `yaml:"supabase_key"`
	SQLitePath  string           `yaml:"sqlite_path"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
}

type ClickHouseConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port" default:"9000"`
	Database string        `yaml:"database" default:"techpulse"`
	User     string        `yaml:"user" default:"default"`
	Password string        `yaml:"password"`
	UseHTTP  bool          `yaml:"use_http"`
	Timeout  time.Duration `yaml:"timeout" default:"10s"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend" default:"none" validate:"oneof=none memory redis"`
	TTL           time.Duration `yaml:"ttl" default:"24h"`
	RedisAddr     string        `yaml:"redis_addr" default:"localhost:6379"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

type RunConfig struct {
	Interval time.Duration `yaml:"interval" default:"24h" validate:"gt=0"`
}

type ServerConfig struct {
	Port int `yaml:"port" default:"8080" validate:"min=1,max=65535"`
}

var validate = validator.New()

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence (environment wins).
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Oracle.Provider = getEnv("ORACLE_PROVIDER", c.Oracle.Provider)
	c.Oracle.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.Oracle.OpenAIAPIKey)
	c.Oracle.OpenAIModel = getEnv("OPENAI_MODEL", c.Oracle.OpenAIModel)
	c.Oracle.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.Oracle.GeminiAPIKey)
	c.Oracle.GeminiModel = getEnv("GEMINI_MODEL", c.Oracle.GeminiModel)
	c.Oracle.Timeout = getEnvAsDuration("ORACLE_TIMEOUT", c.Oracle.Timeout)

	c.Sources.ProductHuntToken = getEnv("PRODUCT_HUNT_TOKEN", c.Sources.ProductHuntToken)

	c.Output.Dir = getEnv("OUTPUT_DIR", c.Output.Dir)

	c.Store.Backend = getEnv("STORE_BACKEND", c.Store.Backend)
	c.Store.SupabaseURL = getEnv("SUPABASE_URL", c.Store.SupabaseURL)
	c.Store.SupabaseKey = getEnv("SUPABASE_KEY", c.Store.SupabaseKey)
	c.Store.SQLitePath = getEnv("SQLITE_PATH", c.Store.SQLitePath)
	c.Store.ClickHouse.Host = getEnv("CLICKHOUSE_HOST", c.Store.ClickHouse.Host)
	c.Store.ClickHouse.Port = getEnvAsInt("CLICKHOUSE_PORT", c.Store.ClickHouse.Port)
	c.Store.ClickHouse.Database = getEnv("CLICKHOUSE_DATABASE", c.Store.ClickHouse.Database)
	c.Store.ClickHouse.User = getEnv("CLICKHOUSE_USER", c.Store.ClickHouse.User)
	c.Store.ClickHouse.Password = getEnv("CLICKHOUSE_PASSWORD", c.Store.ClickHouse.Password)

	c.Cache.Backend = getEnv("CACHE_BACKEND", c.Cache.Backend)
	c.Cache.TTL = getEnvAsDuration("CACHE_TTL", c.Cache.TTL)
	c.Cache.RedisAddr = getEnv("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = getEnv("REDIS_PASSWORD", c.Cache.RedisPassword)

	c.Telegram.Token = getEnv("TELEGRAM_BOT_TOKEN", c.Telegram.Token)
	c.Telegram.ChatID = getEnvAsInt64("TELEGRAM_CHAT_ID", c.Telegram.ChatID)

	c.Run.Interval = getEnvAsDuration("RUN_INTERVAL", c.Run.Interval)
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)
}

// OracleAPIKey returns the credential of the selected oracle provider.
func (c *Config) OracleAPIKey() string {
	if c.Oracle.Provider == "gemini" {
		return c.Oracle.GeminiAPIKey
	}
	return c.Oracle.OpenAIAPIKey
}

func (c *Config) OracleEnabled() bool {
	return c.OracleAPIKey() != ""
}

// StoreEnabled reports whether the selected remote backend has what it needs
// to connect.
func (c *Config) StoreEnabled() bool {
	switch c.Store.Backend {
	case "supabase":
		return c.Store.SupabaseURL != "" && c.Store.SupabaseKey != ""
	case "clickhouse":
		return c.Store.ClickHouse.Host != ""
	case "sqlite":
		return c.Store.SQLitePath != ""
	default:
		return false
	}
}

func (c *Config) TelegramEnabled() bool {
	return c.Telegram.Token != "" && c.Telegram.ChatID != 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
