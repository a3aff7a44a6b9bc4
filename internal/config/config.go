package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"QuoteKeeper/internal/model"
)

// Config holds all application configuration. It is loaded once at startup
// and handed to components by value.
type Config struct {
	Log       LogConfig          `yaml:"log"`
	Schedule  ScheduleConfig     `yaml:"schedule"`
	Source    SourceConfig       `yaml:"source"`
	Browser   BrowserConfig      `yaml:"browser"`
	Watchlist []model.WatchEntry `yaml:"watchlist" ignored:"true"`
	Database  DatabaseConfig     `yaml:"database"`
	Telegram  TelegramConfig     `yaml:"telegram"`
	HTTP      HTTPConfig         `yaml:"http"`
	Kafka     KafkaConfig        `yaml:"kafka"`
	Redis     RedisConfig        `yaml:"redis"`
	Proxy     string             `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"` // "console" or "json"
}

type ScheduleConfig struct {
	DailyAt    string `yaml:"daily_at" envconfig:"DAILY_AT"` // HH:MM, process-local time
	RunOnStart bool   `yaml:"run_on_start" envconfig:"RUN_ON_START"`
}

// SourceConfig describes the quote page and the DOM selectors scraped from it.
type SourceConfig struct {
	BaseURL        string        `yaml:"base_url" envconfig:"SOURCE_BASE_URL"`
	Language       string        `yaml:"language" envconfig:"SOURCE_LANGUAGE"`
	ElementTimeout time.Duration `yaml:"element_timeout" envconfig:"SOURCE_ELEMENT_TIMEOUT"`
	NameSelector   string        `yaml:"name_selector"`
	PriceSelector  string        `yaml:"price_selector"`
	ChangeSelector string        `yaml:"change_selector"`
}

type BrowserConfig struct {
	ExecPath string `yaml:"exec_path" envconfig:"CHROME_PATH"`
	Headless bool   `yaml:"headless" envconfig:"CHROME_HEADLESS"`
}

// DatabaseConfig holds connection settings for the observation store.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" envconfig:"DB_DRIVER"` // mysql, postgres, sqlite, none
	Host     string `yaml:"host" envconfig:"DB_HOST"`
	Port     int    `yaml:"port" envconfig:"DB_PORT"`
	User     string `yaml:"user" envconfig:"DB_USER"`
	Password string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name     string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode  string `yaml:"ssl_mode" envconfig:"DB_SSLMODE"`
	Path     string `yaml:"path" envconfig:"SQLITE_PATH"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" envconfig:"HTTP_ADDR"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers" envconfig:"KAFKA_BROKERS"`
	Topic   string   `yaml:"topic" envconfig:"KAFKA_TOPIC"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// DefaultWatchlist is used when the config file lists no symbols.
var DefaultWatchlist = []model.WatchEntry{
	{Symbol: "AAPL", Exchange: "NASDAQ"},
	{Symbol: "GOOGL", Exchange: "NASDAQ"},
	{Symbol: "MSFT", Exchange: "NASDAQ"},
	{Symbol: "AMZN", Exchange: "NASDAQ"},
	{Symbol: "TSLA", Exchange: "NASDAQ"},
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{Browser: BrowserConfig{Headless: true}}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "debug"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Schedule.DailyAt == "" {
		c.Schedule.DailyAt = "11:48"
	}
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = "https://www.google.com/finance/quote"
	}
	c.Source.BaseURL = strings.TrimRight(c.Source.BaseURL, "/")
	if c.Source.Language == "" {
		c.Source.Language = "en"
	}
	if c.Source.ElementTimeout == 0 {
		c.Source.ElementTimeout = 10 * time.Second
	}
	if c.Source.NameSelector == "" {
		c.Source.NameSelector = ".zzDege"
	}
	if c.Source.PriceSelector == "" {
		c.Source.PriceSelector = ".YMlKec.fxKbKc"
	}
	if c.Source.ChangeSelector == "" {
		c.Source.ChangeSelector = "span.P2Luy.Ez2loe.ZYVHBb"
	}
	if len(c.Watchlist) == 0 {
		c.Watchlist = append([]model.WatchEntry(nil), DefaultWatchlist...)
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		switch c.Database.Driver {
		case "postgres":
			c.Database.Port = 5432
		default:
			c.Database.Port = 3306
		}
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Name == "" {
		c.Database.Name = "stock_data"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/stock_data.db"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "stock-quotes"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if _, _, err := ParseDailyAt(c.Schedule.DailyAt); err != nil {
		return fmt.Errorf("schedule.daily_at: %w", err)
	}
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist must not be empty")
	}
	for i, w := range c.Watchlist {
		if w.Symbol == "" || w.Exchange == "" {
			return fmt.Errorf("watchlist[%d]: symbol and exchange are required", i)
		}
	}
	if c.Source.ElementTimeout <= 0 {
		return fmt.Errorf("source.element_timeout must be positive")
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite", "none":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// ParseDailyAt parses an HH:MM time of day.
func ParseDailyAt(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	return t.Hour(), t.Minute(), nil
}

// DSN returns the data source name for the configured driver.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.User, d.Password),
			Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
			Path:     "/" + d.Name,
			RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
		}
		return u.String()
	case "sqlite":
		return d.Path
	case "mysql":
		mc := mysql.NewConfig()
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
		mc.User = d.User
		mc.Passwd = d.Password
		mc.DBName = d.Name
		return mc.FormatDSN()
	default:
		return ""
	}
}
