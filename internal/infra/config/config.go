package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию бота.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Telegram struct {
		Token         string `envconfig:"TG_BOT_TOKEN" required:"true"`
		WebhookURL    string `envconfig:"TG_WEBHOOK_URL"`
		WebhookSecret string `envconfig:"TG_WEBHOOK_SECRET"`
	} `envconfig:""`

	Admin struct {
		ID      int64  `envconfig:"ADMIN_ID" required:"true"`
		Contact string `envconfig:"ADMIN_CONTACT"`
	} `envconfig:""`

	Content struct {
		ChannelID     int64         `envconfig:"CONTENT_CHANNEL_ID"`
		ChannelLink   string        `envconfig:"CONTENT_CHANNEL_LINK"`
		FlushInterval time.Duration `envconfig:"VIEW_FLUSH_INTERVAL" default:"5s"`
		TopLimit      int           `envconfig:"TOP_LIMIT" default:"10"`
	} `envconfig:""`

	Store struct {
		Driver     string `envconfig:"STORE_DRIVER" default:"postgres"`
		PGDSN      string `envconfig:"PG_DSN"`
		SQLitePath string `envconfig:"SQLITE_PATH" default:"content.db"`
	} `envconfig:""`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Broadcast struct {
		Workers     int           `envconfig:"BROADCAST_WORKERS" default:"8"`
		SendTimeout time.Duration `envconfig:"BROADCAST_SEND_TIMEOUT" default:"10s"`
		DedupTTL    time.Duration `envconfig:"BROADCAST_DEDUP_TTL" default:"10m"`
	} `envconfig:""`

	Membership struct {
		Timeout   time.Duration `envconfig:"MEMBERSHIP_TIMEOUT" default:"5s"`
		CacheTTL  time.Duration `envconfig:"MEMBERSHIP_CACHE_TTL" default:"0s"`
		CacheSize int           `envconfig:"MEMBERSHIP_CACHE_SIZE" default:"10000"`
	} `envconfig:""`
}

// Parse читает конфиг из окружения.
func Parse() (AppConfig, error) {
	var cfg AppConfig
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
