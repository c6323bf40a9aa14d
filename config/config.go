package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string `env:"DATABASE_URL, required"`
	JWTSecretKey string `env:"JWT_SECRET_KEY, required"`
	ServerPort   int    `env:"SERVER_PORT, default=8080"`
	LogLevel     string `env:"LOG_LEVEL, default=info"`

	// Пустые значения отключают соответствующие интеграции.
	RedisAddr string `env:"REDIS_ADDR"`
	RedisDB   int    `env:"REDIS_DB, default=0"`
	NATSURL   string `env:"NATS_URL"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=*"`
	// Cookies клиента и токена ставятся с флагом Secure; отключается для локального http.
	SecureCookies bool `env:"SECURE_COOKIES, default=true"`

	GuardWaitTimeout   time.Duration `env:"GUARD_WAIT_TIMEOUT, default=8s"`
	SessionInitTimeout time.Duration `env:"SESSION_INIT_TIMEOUT, default=15s"`
	SessionIdleTTL     time.Duration `env:"SESSION_IDLE_TTL, default=30m"`
	TokenTTL           time.Duration `env:"TOKEN_TTL, default=24h"`

	RoutesFile string `env:"ROUTES_FILE"`
	StaticDir  string `env:"STATIC_DIR"`

	R2 R2Config
}

// R2Config описывает S3-совместимое хранилище для архивов матчей.
type R2Config struct {
	AccountID       string `env:"R2_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	Bucket          string `env:"R2_BUCKET_NAME"`
	PublicBaseURL   string `env:"R2_PUBLIC_BASE_URL"`
}

func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.Bucket != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadWith(context.Background(), envconfig.OsLookuper())
}

// LoadWith читает конфигурацию через произвольный lookuper (используется в тестах).
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}
	if cfg.GuardWaitTimeout <= 0 || cfg.SessionInitTimeout <= 0 {
		return nil, fmt.Errorf("GUARD_WAIT_TIMEOUT and SESSION_INIT_TIMEOUT must be positive")
	}
	for i, o := range cfg.CORSAllowedOrigins {
		cfg.CORSAllowedOrigins[i] = strings.TrimSpace(o)
	}

	return &cfg, nil
}
