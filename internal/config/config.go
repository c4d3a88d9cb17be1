package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL        string        `yaml:"base_url"`
		Symbol         string        `yaml:"symbol"`
		FallbackSymbol string        `yaml:"fallback_symbol"`
		FallbackRate   float64       `yaml:"fallback_rate"`
		Timeout        time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Series struct {
		Capacity   int `yaml:"capacity"`
		RSIPeriod  int `yaml:"rsi_period"`
		FastWindow int `yaml:"fast_window"`
		SlowWindow int `yaml:"slow_window"`
	} `yaml:"series"`
	Schedule struct {
		TickCron  string `yaml:"tick_cron"`
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Database struct {
		Driver     string `yaml:"driver"` // sqlite or memory
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TICK_CRON"); v != "" {
		cfg.Schedule.TickCron = v
	}
	if v := os.Getenv("FALLBACK_RATE"); v != "" {
		var rate float64
		if _, err := fmt.Sscanf(v, "%f", &rate); err == nil {
			cfg.DataSource.FallbackRate = rate
		}
	}

	// Defaults
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "BTCEUR"
	}
	if cfg.DataSource.FallbackSymbol == "" {
		cfg.DataSource.FallbackSymbol = "BTCUSDT"
	}
	if cfg.DataSource.FallbackRate == 0 {
		cfg.DataSource.FallbackRate = 0.92
	}
	if cfg.DataSource.Timeout == 0 {
		cfg.DataSource.Timeout = 10 * time.Second
	}
	if cfg.Series.Capacity == 0 {
		cfg.Series.Capacity = 300
	}
	if cfg.Series.RSIPeriod == 0 {
		cfg.Series.RSIPeriod = 14
	}
	if cfg.Series.FastWindow == 0 {
		cfg.Series.FastWindow = 20
	}
	if cfg.Series.SlowWindow == 0 {
		cfg.Series.SlowWindow = 50
	}
	if cfg.Schedule.TickCron == "" {
		cfg.Schedule.TickCron = "@every 5s"
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 0 22 * * *"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/coin_sentinel.db"
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = time.Minute
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}

	return cfg, nil
}

// TelegramEnabled reports whether the bot should run.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.TelegramEnabled() && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when bot_token is set")
	}
	if c.DataSource.FallbackRate <= 0 {
		return fmt.Errorf("data_source.fallback_rate must be positive")
	}
	if c.DataSource.Timeout <= 0 {
		return fmt.Errorf("data_source.timeout must be positive")
	}
	if c.Series.RSIPeriod < 1 || c.Series.FastWindow < 1 || c.Series.SlowWindow < 1 {
		return fmt.Errorf("series windows must be positive")
	}
	if c.Series.FastWindow >= c.Series.SlowWindow {
		return fmt.Errorf("series.fast_window must be shorter than series.slow_window")
	}
	if c.Series.Capacity < c.Series.SlowWindow {
		return fmt.Errorf("series.capacity (%d) must hold at least slow_window (%d) samples",
			c.Series.Capacity, c.Series.SlowWindow)
	}
	switch c.Database.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("database.driver must be sqlite or memory, got %q", c.Database.Driver)
	}
	return nil
}
