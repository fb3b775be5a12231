package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Content    ContentConfig    `yaml:"content"`
	Cache      CacheConfig      `yaml:"cache"`
	Database   DatabaseConfig   `yaml:"database"`
	Views      ViewsConfig      `yaml:"views"`
	Redis      RedisConfig      `yaml:"redis"`
	RabbitMQ   RabbitMQConfig   `yaml:"rabbitmq"`
	Revalidate RevalidateConfig `yaml:"revalidate"`
	Export     ExportConfig     `yaml:"export"`
	LogLevel   string           `yaml:"log_level"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// BaseURL is the public origin used for absolute links in the feed.
	BaseURL         string        `yaml:"base_url"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ContentConfig describes the headless content API.
type ContentConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	AccessToken  string        `yaml:"access_token"`
	DocumentType string        `yaml:"document_type"`
	PageSize     int           `yaml:"page_size"`
	FeedSize     int           `yaml:"feed_size"`
	Timeout      time.Duration `yaml:"timeout"`
	Retry        RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type CacheConfig struct {
	Store      string        `yaml:"store"` // memory, postgres or sqlite
	SQLitePath string        `yaml:"sqlite_path"`
	ListingTTL time.Duration `yaml:"listing_ttl"`
	PostTTL    time.Duration `yaml:"post_ttl"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type ViewsConfig struct {
	Store string        `yaml:"store"` // memory or redis
	TTL   time.Duration `yaml:"ttl"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RabbitMQConfig enables the cross-instance invalidation bus when URL is set.
type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type RevalidateConfig struct {
	Secret   string        `yaml:"secret"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

type ExportConfig struct {
	Dir string   `yaml:"dir"`
	S3  S3Config `yaml:"s3"`
}

// S3Config selects the S3 sink when Bucket is set. Endpoint points at a
// MinIO-compatible server for local development.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	DisableSSL      bool   `yaml:"disable_ssl"`
}

// Load reads the YAML config at path, expanding environment variables.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:3000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Content.DocumentType == "" {
		c.Content.DocumentType = "posts"
	}
	if c.Content.PageSize == 0 {
		c.Content.PageSize = 1
	}
	if c.Content.FeedSize == 0 {
		c.Content.FeedSize = 20
	}
	if c.Content.Timeout == 0 {
		c.Content.Timeout = 10 * time.Second
	}
	if c.Content.Retry.MaxAttempts == 0 {
		c.Content.Retry.MaxAttempts = 3
	}
	if c.Content.Retry.InitialBackoff == 0 {
		c.Content.Retry.InitialBackoff = 500 * time.Millisecond
	}
	if c.Content.Retry.MaxBackoff == 0 {
		c.Content.Retry.MaxBackoff = 5 * time.Second
	}
	if c.Cache.Store == "" {
		c.Cache.Store = "memory"
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = "spacetraveling.db"
	}
	if c.Cache.ListingTTL == 0 {
		c.Cache.ListingTTL = 24 * time.Hour
	}
	if c.Cache.PostTTL == 0 {
		c.Cache.PostTTL = time.Hour
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Views.Store == "" {
		c.Views.Store = "memory"
	}
	if c.Views.TTL == 0 {
		c.Views.TTL = 30 * time.Minute
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "spacetraveling.invalidate"
	}
	if c.Revalidate.Interval == 0 {
		c.Revalidate.Interval = time.Hour
	}
	if c.Revalidate.Timeout == 0 {
		c.Revalidate.Timeout = 5 * time.Minute
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "out"
	}
	if c.Export.S3.Region == "" {
		c.Export.S3.Region = "us-east-1"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if c.Content.Endpoint == "" {
		return fmt.Errorf("content.endpoint is required")
	}
	switch c.Cache.Store {
	case "memory", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown cache.store %q", c.Cache.Store)
	}
	switch c.Views.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown views.store %q", c.Views.Store)
	}
	if c.Content.PageSize < 1 || c.Content.PageSize > 100 {
		return fmt.Errorf("content.page_size must be between 1 and 100")
	}
	if c.Content.FeedSize < 1 || c.Content.FeedSize > 100 {
		return fmt.Errorf("content.feed_size must be between 1 and 100")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"content.timeout", c.Content.Timeout},
		{"cache.listing_ttl", c.Cache.ListingTTL},
		{"cache.post_ttl", c.Cache.PostTTL},
		{"views.ttl", c.Views.TTL},
		{"revalidate.interval", c.Revalidate.Interval},
		{"revalidate.timeout", c.Revalidate.Timeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive", d.name)
		}
	}
	return nil
}
