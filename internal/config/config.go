package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageTypePostgres = "postgres"
	StorageTypeRedis    = "redis"

	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	LanguageEnglish  = "en"
	LanguageJapanese = "ja"
)

type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Generation GenerationConfig `yaml:"generation"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Notify     NotifyConfig     `yaml:"notify"`
	HTTP       HTTPConfig       `yaml:"http"`
	LogLevel   string           `yaml:"log_level"`
}

type StorageConfig struct {
	Type     string         `yaml:"type"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
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

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// GenerationConfig selects the text-generation backend and the retry budget
// used against it.
type GenerationConfig struct {
	Provider       string        `yaml:"provider"`
	ModelID        string        `yaml:"model_id"`
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxTokens      int           `yaml:"max_tokens"`
	OutputLanguage string        `yaml:"output_language"`
	MaxRetries     *int          `yaml:"max_retries"`
	BaseDelay      time.Duration `yaml:"base_delay"`
}

// Retries returns the configured retry budget, defaulting to 8 when unset.
// An explicit zero disables retries.
func (g GenerationConfig) Retries() int {
	if g.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *g.MaxRetries
}

type PipelineConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	SourceFilter  string        `yaml:"source_filter"`
	ItemPause     time.Duration `yaml:"item_pause"`
	BatchPauseMin time.Duration `yaml:"batch_pause_min"`
	BatchPauseMax time.Duration `yaml:"batch_pause_max"`
	Interval      time.Duration `yaml:"interval"`
	RunTimeout    time.Duration `yaml:"run_timeout"`
}

type NotifyConfig struct {
	Slack    SlackConfig    `yaml:"slack"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Email    EmailConfig    `yaml:"email"`
}

type SlackConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

func (s SlackConfig) Enabled() bool {
	return s.WebhookURL != ""
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

type EmailConfig struct {
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

func (e EmailConfig) Enabled() bool {
	return e.SMTPHost != "" && e.To != ""
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

const (
	DefaultMaxRetries = 8
	DefaultOllamaURL  = "http://localhost:11434"
)

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding environment variables first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Storage.Type == "" {
		c.Storage.Type = StorageTypePostgres
	}
	if c.Storage.Database.Port == 0 {
		c.Storage.Database.Port = 5432
	}
	if c.Storage.Database.SSLMode == "" {
		c.Storage.Database.SSLMode = "disable"
	}
	if c.Storage.Redis.Addr == "" {
		c.Storage.Redis.Addr = "localhost:6379"
	}
	if c.Storage.Redis.KeyPrefix == "" {
		c.Storage.Redis.KeyPrefix = "news"
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = ProviderOpenAI
	}
	if c.Generation.Provider == ProviderOllama && c.Generation.BaseURL == "" {
		c.Generation.BaseURL = DefaultOllamaURL
	}
	if c.Generation.ModelID == "" {
		c.Generation.ModelID = "gpt-4o-mini"
	}
	if c.Generation.Timeout == 0 {
		c.Generation.Timeout = 2 * time.Minute
	}
	if c.Generation.MaxTokens == 0 {
		c.Generation.MaxTokens = 1000
	}
	if c.Generation.OutputLanguage == "" {
		c.Generation.OutputLanguage = LanguageEnglish
	}
	if c.Generation.BaseDelay == 0 {
		c.Generation.BaseDelay = time.Second
	}
	if c.Pipeline.BatchSize == 0 {
		c.Pipeline.BatchSize = 1
	}
	if c.Pipeline.ItemPause == 0 {
		c.Pipeline.ItemPause = 500 * time.Millisecond
	}
	if c.Pipeline.BatchPauseMin == 0 {
		c.Pipeline.BatchPauseMin = 5 * time.Second
	}
	if c.Pipeline.BatchPauseMax == 0 {
		c.Pipeline.BatchPauseMax = 15 * time.Second
	}
	if c.Pipeline.Interval == 0 {
		c.Pipeline.Interval = time.Hour
	}
	if c.Pipeline.RunTimeout == 0 {
		c.Pipeline.RunTimeout = 30 * time.Minute
	}
	if c.Notify.Slack.Timeout == 0 {
		c.Notify.Slack.Timeout = 10 * time.Second
	}
	if c.Notify.RabbitMQ.Exchange == "" {
		c.Notify.RabbitMQ.Exchange = "news_summarizer"
	}
	if c.Notify.RabbitMQ.RoutingKey == "" {
		c.Notify.RabbitMQ.RoutingKey = "digests"
	}
	if c.Notify.RabbitMQ.QueueName == "" {
		c.Notify.RabbitMQ.QueueName = "news_digests"
	}
	if c.Notify.Email.SMTPPort == 0 {
		c.Notify.Email.SMTPPort = 587
	}
	if c.Notify.Email.From == "" {
		c.Notify.Email.From = c.Notify.Email.To
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = "127.0.0.1:8088"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Type {
	case StorageTypePostgres, StorageTypeRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}

	switch c.Generation.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown generation provider %q", c.Generation.Provider))
	}

	switch c.Generation.OutputLanguage {
	case LanguageEnglish, LanguageJapanese:
	default:
		errs = append(errs, fmt.Errorf("unsupported output language %q", c.Generation.OutputLanguage))
	}

	if c.Generation.Retries() < 0 {
		errs = append(errs, errors.New("max_retries must not be negative"))
	}
	if c.Pipeline.BatchSize < 1 {
		errs = append(errs, errors.New("batch_size must be at least 1"))
	}
	if c.Pipeline.BatchPauseMax < c.Pipeline.BatchPauseMin {
		errs = append(errs, errors.New("batch_pause_max must not be below batch_pause_min"))
	}

	return errors.Join(errs...)
}
