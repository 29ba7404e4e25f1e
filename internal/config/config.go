package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Market     MarketConfig     `mapstructure:"market"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Model      ModelConfig      `mapstructure:"model"`
	API        APIConfig        `mapstructure:"api"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"` // json, console
}

// LLMConfig contains language-model gateway settings
type LLMConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`    // "https://api.deepseek.com/v1/chat/completions"
	APIKey      string  `mapstructure:"api_key"`     // also read from DEEPSEEK_API_KEY
	Model       string  `mapstructure:"model"`       // "deepseek-chat"
	Temperature float64 `mapstructure:"temperature"` // 0.7
	MaxTokens   int     `mapstructure:"max_tokens"`  // 1000
	Timeout     int     `mapstructure:"timeout"`     // ms, 0 = transport default
}

// MarketConfig contains market-data gateway settings
type MarketConfig struct {
	BaseURL           string   `mapstructure:"base_url"`            // "https://api.financialdatasets.ai"
	APIKey            string   `mapstructure:"api_key"`             // also read from FINANCIAL_DATASETS_API_KEY
	Timeout           int      `mapstructure:"timeout"`             // ms, 0 = transport default
	RequestsPerSecond float64  `mapstructure:"requests_per_second"` // 0 disables pacing
	Burst             int      `mapstructure:"burst"`
	BreakerEnabled    bool     `mapstructure:"breaker_enabled"`
	WatchList         []string `mapstructure:"watch_list"`
}

// RedisConfig contains Redis cache settings
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds
}

// DatabaseConfig contains PostgreSQL settings for the consultation log
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	PoolSize int    `mapstructure:"pool_size"`
}

// ModelConfig points at the trained model bundle
type ModelConfig struct {
	BundlePath string `mapstructure:"bundle_path"`
}

// APIConfig contains REST API settings
type APIConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AuthEnabled    bool     `mapstructure:"auth_enabled"`
	AuthHeader     string   `mapstructure:"auth_header"`
	APIKeys        []string `mapstructure:"api_keys"` // also RISKWISE_API_API_KEYS, comma separated
}

// MonitoringConfig contains monitoring settings
type MonitoringConfig struct {
	PrometheusPort int  `mapstructure:"prometheus_port"`
	EnableMetrics  bool `mapstructure:"enable_metrics"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("RISKWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyLegacyKeys(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "riskwise")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "console")

	v.SetDefault("llm.endpoint", "https://api.deepseek.com/v1/chat/completions")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "deepseek-chat")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.timeout", 0)

	v.SetDefault("market.base_url", "https://api.financialdatasets.ai")
	v.SetDefault("market.api_key", "")
	v.SetDefault("market.timeout", 0)
	v.SetDefault("market.requests_per_second", 5.0)
	v.SetDefault("market.burst", 5)
	v.SetDefault("market.breaker_enabled", true)
	v.SetDefault("market.watch_list", []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"})

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 300)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.url", "")
	v.SetDefault("database.pool_size", 5)

	v.SetDefault("model.bundle_path", "./models/risk_bundle.json")

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8081)
	v.SetDefault("api.allowed_origins", []string{"*"})
	v.SetDefault("api.auth_enabled", false)
	v.SetDefault("api.auth_header", "X-API-Key")
	v.SetDefault("api.api_keys", []string{})

	v.SetDefault("monitoring.prometheus_port", 9100)
	v.SetDefault("monitoring.enable_metrics", true)
}

// applyLegacyKeys fills API keys from the variable names the services document
func applyLegacyKeys(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("DEEPSEEK_API_KEY")
	}
	if cfg.Market.APIKey == "" {
		cfg.Market.APIKey = os.Getenv("FINANCIAL_DATASETS_API_KEY")
	}
}

// GetTimeout returns the LLM timeout as time.Duration
func (c *LLMConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// GetTimeout returns the market-data timeout as time.Duration
func (c *MarketConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// GetRedisAddr returns the Redis address
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetTTL returns the cache TTL as time.Duration
func (c *RedisConfig) GetTTL() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// GetAPIAddr returns the API server address
func (c *APIConfig) GetAPIAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
