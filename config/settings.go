package config

import (
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type DatabaseSettings struct {
	// mysql (default) or sqlite
	Driver          string        `env:"DRIVER" envDefault:"mysql"`
	User            string        `env:"USER"`
	Password        string        `env:"PASSWORD"`
	Host            string        `env:"HOST" envDefault:"127.0.0.1"`
	Port            string        `env:"PORT" envDefault:"3306"`
	Name            string        `env:"NAME" envDefault:"financial_control"`
	SqlitePath      string        `env:"SQLITE_PATH" envDefault:"financial_control.db"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"50"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"25"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"1m"`
	// gorm logger level: silent, error, warn, info
	LogLevel string `env:"LOG_LEVEL" envDefault:"error"`
}

type RateLimitSettings struct {
	Enabled     bool `env:"ENABLED"`
	MaxRequests int  `env:"MAX_REQUESTS" envDefault:"600"`
	// window length in seconds
	WindowSeconds int `env:"WINDOW_SECONDS" envDefault:"60"`
}

type OtelSettings struct {
	Endpoint string `env:"ENDPOINT"`
	Enabled  bool   `env:"ENABLED" envDefault:"true"`
}

type PubSubSettings struct {
	ProjectID             string `env:"PROJECT_ID"`
	CredentialsJSON       string `env:"CREDENTIALS_JSON"`
	ExpenseStatusTopic    string `env:"TOPIC_EXPENSE_STATUS"`
	CreateTopicIfNotExist bool   `env:"CREATE_TOPIC"`
}

type Settings struct {
	Port               string   `env:"PORT" envDefault:"8080"`
	Env                string   `env:"GO_ENV" envDefault:"development"`
	CorsAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	SkipMigrations     bool     `env:"SKIP_MIGRATIONS"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	RedisAddress       string   `env:"REDIS_ADDRESS"`
	ServiceName        string   `env:"SERVICE_NAME" envDefault:"financial-control"`

	RateLimit RateLimitSettings `envPrefix:"RATE_LIMIT_"`
	Otel      OtelSettings      `envPrefix:"OTEL_"`
	PubSub    PubSubSettings    `envPrefix:"PUBSUB_"`
	Database  DatabaseSettings  `envPrefix:"DB_"`
}

func (s Settings) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(s.Env), "production")
}

var (
	settings     *Settings
	settingsOnce sync.Once
	settingsErr  error
)

func init() {
	// Load env from .env
	godotenv.Load()
}

// LoadSettings parses the environment into a fresh Settings value.
func LoadSettings() (*Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSettings returns the process-wide settings, parsed once.
func GetSettings() (*Settings, error) {
	settingsOnce.Do(func() {
		settings, settingsErr = LoadSettings()
	})
	return settings, settingsErr
}
