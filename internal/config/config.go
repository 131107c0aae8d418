package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Upstream  UpstreamConfig
	Batch     BatchConfig
	Verify    VerifyConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// UpstreamConfig настройки обращения к ulvis.net
type UpstreamConfig struct {
	BaseURL      string        // Адрес API (write/read)
	ShortBaseURL string        // Хост для восстановления короткой ссылки по алиасу
	Timeout      time.Duration // Таймаут одного исходящего запроса
	MaxAttempts  int           // Потолок попыток при коллизии алиаса
	AliasLength  int
	UserAgent    string
	PreviewLimit int // Сколько символов сырого ответа отдавать для диагностики
}

type BatchConfig struct {
	Mode        string
	Concurrency int
	Delay       time.Duration
	MaxURLs     int
	Timeout     time.Duration // Общий бюджет одного /bulk; недоделанные элементы получают network_error
}

type VerifyConfig struct {
	Timezone string
	CacheTTL time.Duration
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Enabled сообщает, настроен ли журнал выданных ссылок
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

type RedisConfig struct {
	Host string
	Port string
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type AuthConfig struct {
	APIKeys map[string]string // API key -> name/description
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// .env не обязателен: в контейнере всё приходит через окружение
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.ShutdownTimeout = v.GetDuration("APP_SHUTDOWN_TIMEOUT")

	cfg.Upstream.BaseURL = strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/")
	cfg.Upstream.ShortBaseURL = strings.TrimRight(v.GetString("SHORT_BASE_URL"), "/")
	cfg.Upstream.Timeout = v.GetDuration("UPSTREAM_TIMEOUT")
	cfg.Upstream.MaxAttempts = v.GetInt("UPSTREAM_MAX_ATTEMPTS")
	cfg.Upstream.AliasLength = v.GetInt("ALIAS_LENGTH")
	cfg.Upstream.UserAgent = v.GetString("UPSTREAM_USER_AGENT")
	cfg.Upstream.PreviewLimit = v.GetInt("UPSTREAM_PREVIEW_LIMIT")

	cfg.Batch.Mode = strings.ToLower(v.GetString("BATCH_MODE"))
	cfg.Batch.Concurrency = v.GetInt("BATCH_CONCURRENCY")
	cfg.Batch.Delay = v.GetDuration("BATCH_DELAY")
	cfg.Batch.MaxURLs = v.GetInt("BATCH_MAX_URLS")
	cfg.Batch.Timeout = v.GetDuration("BATCH_TIMEOUT")

	cfg.Verify.Timezone = v.GetString("VERIFY_TIMEZONE")
	cfg.Verify.CacheTTL = v.GetDuration("VERIFY_CACHE_TTL")

	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")

	// Auth config - parse API keys from comma-separated string
	// Format: key1:name1,key2:name2
	cfg.Auth.APIKeys = parseAPIKeys(v.GetString("API_KEYS"))

	cfg.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	cfg.RateLimit.BurstSize = v.GetInt("RATE_LIMIT_BURST")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_SHUTDOWN_TIMEOUT", 5*time.Second)

	v.SetDefault("UPSTREAM_BASE_URL", "https://ulvis.net")
	v.SetDefault("SHORT_BASE_URL", "https://ulvis.net")
	v.SetDefault("UPSTREAM_TIMEOUT", 15*time.Second)
	v.SetDefault("UPSTREAM_MAX_ATTEMPTS", 4)
	v.SetDefault("ALIAS_LENGTH", 4)
	v.SetDefault("UPSTREAM_USER_AGENT", defaultUserAgent)
	v.SetDefault("UPSTREAM_PREVIEW_LIMIT", 200)

	v.SetDefault("BATCH_MODE", "parallel")
	v.SetDefault("BATCH_CONCURRENCY", 8)
	v.SetDefault("BATCH_DELAY", 300*time.Millisecond)
	v.SetDefault("BATCH_MAX_URLS", 100)
	v.SetDefault("BATCH_TIMEOUT", 45*time.Second)

	v.SetDefault("VERIFY_TIMEZONE", "UTC")
	v.SetDefault("VERIFY_CACHE_TTL", time.Duration(0))

	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("REDIS_PORT", "6379")

	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
}

var errInvalidBatchMode = errors.New("BATCH_MODE must be parallel or throttled")

func (c *Config) validate() error {
	if c.Batch.Mode != "parallel" && c.Batch.Mode != "throttled" {
		return errInvalidBatchMode
	}
	if c.Upstream.MaxAttempts < 1 {
		return errors.New("UPSTREAM_MAX_ATTEMPTS must be at least 1")
	}
	if c.Upstream.AliasLength < 1 {
		return errors.New("ALIAS_LENGTH must be at least 1")
	}
	if c.Batch.Timeout <= 0 {
		return errors.New("BATCH_TIMEOUT must be positive")
	}
	if c.Batch.Concurrency < 1 {
		c.Batch.Concurrency = 1
	}
	return nil
}

// parseAPIKeys parses comma-separated API keys in format "key1:name1,key2:name2"
func parseAPIKeys(raw string) map[string]string {
	keys := make(map[string]string)
	if raw == "" {
		return keys
	}

	pairs := strings.Split(raw, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) == 2 {
			keys[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}

	return keys
}
