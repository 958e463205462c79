package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	IG       IG       `mapstructure:"ig"`
	Polygon  Polygon  `mapstructure:"polygon"`
	LLM      LLM      `mapstructure:"llm"`
	Trading  Trading  `mapstructure:"trading"`
	Budget   Budget   `mapstructure:"budget"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// IG holds the credentials and account selection for the IG REST API.
// All of these are normally supplied through the environment (IG_USERNAME,
// IG_PASSWORD, IG_API_KEY, IG_ACCOUNT_ID, IG_ACC_TYPE, IG_ACCOUNT_CURRENCY).
type IG struct {
	Username        string  `mapstructure:"username"`
	Password        string  `mapstructure:"password"`
	APIKey          string  `mapstructure:"api_key"`
	AccountID       string  `mapstructure:"account_id"`
	AccType         string  `mapstructure:"acc_type"` // DEMO or LIVE
	AccountCurrency string  `mapstructure:"account_currency"`
	RateLimit       float64 `mapstructure:"rate_limit"`
	RateLimitBurst  int     `mapstructure:"rate_limit_burst"`
}

// Polygon holds the configuration for the Polygon.io market data API.
type Polygon struct {
	APIKey         string  `mapstructure:"api_key"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// LLM holds the configuration for the decision model endpoint.
type LLM struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

// Trading holds the configuration for the decision cycle.
type Trading struct {
	Epics        []string `mapstructure:"epics"`
	TickInterval int      `mapstructure:"tick_interval"` // seconds between cycles
	DryRun       bool     `mapstructure:"dry_run"`
	ResultsPath  string   `mapstructure:"results_path"` // executor JSONL audit log
}

// Budget holds the spend limits for LLM calls.
type Budget struct {
	DailyLimit   float64 `mapstructure:"daily_limit"`   // USD per day
	CostEstimate float64 `mapstructure:"cost_estimate"` // estimated USD per executor call
}

// Server holds the configuration for the HTTP status and trade-log servers.
type Server struct {
	Port   int `mapstructure:"port"`
	UIPort int `mapstructure:"ui_port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")

	// Allow environment variables to override config file,
	// e.g. IG_USERNAME overrides ig.username.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The original deployment keeps the LLM key under OPENAI_API_KEY.
	_ = viper.BindEnv("llm.api_key", "OPENAI_API_KEY", "LLM_API_KEY")
	_ = viper.BindEnv("polygon.api_key", "POLYGON_API_KEY")

	// Set default values. Every key needs a default so that env-only
	// overrides are picked up by Unmarshal.
	viper.SetDefault("ig.username", "")
	viper.SetDefault("ig.password", "")
	viper.SetDefault("ig.api_key", "")
	viper.SetDefault("ig.account_id", "")
	viper.SetDefault("ig.acc_type", "DEMO")
	viper.SetDefault("ig.account_currency", "GBP")
	viper.SetDefault("ig.rate_limit", 2) // requests per second
	viper.SetDefault("ig.rate_limit_burst", 5)
	viper.SetDefault("polygon.api_key", "")
	viper.SetDefault("polygon.rate_limit", 5)
	viper.SetDefault("polygon.rate_limit_burst", 5)
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.model", "gpt-4-turbo-preview")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("budget.daily_limit", 10.0)
	viper.SetDefault("budget.cost_estimate", 0.60)
	viper.SetDefault("trading.tick_interval", 300)
	viper.SetDefault("trading.dry_run", true)
	viper.SetDefault("trading.results_path", "data/executor_results.jsonl")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.ui_port", 8081)
	viper.SetDefault("database.dsn", "data/forest.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
