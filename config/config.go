package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log       Logger       `mapstructure:"logger"`
	DB        Database     `mapstructure:"database"`
	API       API          `mapstructure:"api"`
	Cache     Cache        `mapstructure:"cache"`
	Provider  Provider     `mapstructure:"provider"`
	Pipeline  Pipeline     `mapstructure:"pipeline"`
	Queue     Queue        `mapstructure:"queue"`
	Task      Task         `mapstructure:"task"`
	Refresher Refresher    `mapstructure:"refresher"`
	Gemini    GeminiConfig `mapstructure:"gemini"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port int `mapstructure:"port"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	OHLCVTTL          time.Duration `mapstructure:"ohlcv_ttl"`
}

// Provider configures the external market-data chart endpoint.
type Provider struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	HistoryRange        string        `mapstructure:"history_range"`
	Interval            string        `mapstructure:"interval"`
}

type Pipeline struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

type Queue struct {
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	JobTimeout      time.Duration `mapstructure:"job_timeout"`
	ResultRetention time.Duration `mapstructure:"result_retention"`
}

type Task struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type Refresher struct {
	Enabled    bool          `mapstructure:"enabled"`
	CronSpec   string        `mapstructure:"cron_spec"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
	BatchLimit int           `mapstructure:"batch_limit"`
}

type GeminiConfig struct {
	APIKey              string        `mapstructure:"api_key"`
	Model               string        `mapstructure:"model"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win either way.
	_ = godotenv.Load()

	viper.SetConfigType("yaml")
	viper.SetConfigName("config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")

	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.log_level", "Warn")

	viper.SetDefault("api.port", 8080)

	viper.SetDefault("cache.default_expiration", time.Hour)
	viper.SetDefault("cache.cleanup_interval", 10*time.Minute)
	viper.SetDefault("cache.ohlcv_ttl", time.Hour)

	viper.SetDefault("provider.base_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	viper.SetDefault("provider.timeout", 30*time.Second)
	viper.SetDefault("provider.max_request_per_minute", 30)
	viper.SetDefault("provider.history_range", "2y")
	viper.SetDefault("provider.interval", "1d")

	viper.SetDefault("pipeline.max_attempts", 3)
	viper.SetDefault("pipeline.retry_delay", 5*time.Second)

	viper.SetDefault("queue.max_concurrency", 4)
	viper.SetDefault("queue.job_timeout", 5*time.Minute)
	viper.SetDefault("queue.result_retention", 24*time.Hour)

	viper.SetDefault("task.ttl", 24*time.Hour)

	viper.SetDefault("refresher.enabled", false)
	viper.SetDefault("refresher.cron_spec", "0 * * * *")
	viper.SetDefault("refresher.stale_after", 24*time.Hour)
	viper.SetDefault("refresher.batch_limit", 20)

	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("gemini.timeout", 60*time.Second)
	viper.SetDefault("gemini.max_request_per_minute", 10)
}
