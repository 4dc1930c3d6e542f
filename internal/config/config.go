package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns     int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"true"`

	JWTSecret   string `envconfig:"JWT_SECRET" default:"dev-secret-please-change"`
	JWTTTLHours int    `envconfig:"JWT_TTL_HOURS" default:"24"`

	RedisURL     string        `envconfig:"REDIS_URL"`
	ViewCacheTTL time.Duration `envconfig:"VIEW_CACHE_TTL" default:"5m"`

	KafkaBrokers    string `envconfig:"KAFKA_BROKERS"`
	KafkaOrderTopic string `envconfig:"KAFKA_ORDER_TOPIC" default:"order-events"`

	MidtransServerKey  string `envconfig:"MIDTRANS_SERVER_KEY"`
	MidtransProduction bool   `envconfig:"MIDTRANS_PRODUCTION" default:"false"`

	ResendAPIKey  string `envconfig:"RESEND_API_KEY"`
	MailFrom      string `envconfig:"MAIL_FROM" default:"Storefront <onboarding@resend.dev>"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080/api"`

	UseEmailReputation  bool   `envconfig:"USE_EMAIL_REPUTATION" default:"false"`
	AbstractEmailAPIKey string `envconfig:"ABSTRACT_EMAIL_API_KEY"`

	TaxRate           float64       `envconfig:"TAX_RATE" default:"0.08"`
	LoginRatePerSec   float64       `envconfig:"LOGIN_RATE_PER_SEC" default:"1"`
	LoginBurst        int           `envconfig:"LOGIN_BURST" default:"5"`
	StaleOrderAfter   time.Duration `envconfig:"STALE_ORDER_AFTER" default:"48h"`
	LowStockThreshold int           `envconfig:"LOW_STOCK_THRESHOLD" default:"5"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Brokers splits KAFKA_BROKERS on commas. It is empty when events are off.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
