package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Env string

const (
	Dev        Env = "development"
	Test       Env = "test"
	Preview    Env = "preview"
	Production Env = "production"
)

type Config struct {
	AppName string
	ENV     Env
	AppPort int

	LogLevel string

	CORSAllowedOrigins []string

	Session  SessionConfig
	Chrome   ChromeConfig
	WhatsApp WhatsAppConfig
	Outbox   OutboxConfig

	// Delivery log (optional; enabled only when DB_DSN is set).
	DB DBConfig

	// Redis (optional; enabled only when RedisHost is set).
	RedisUser     string
	RedisPassword string
	RedisHost     string
	RedisPort     int
	RedisScheme   string
	RedisChannel  string

	RabbitMQ RabbitMQConfig
	Inngest  InngestConfig
}

type SessionConfig struct {
	Dir        string
	LockPrefix string
}

type ChromeConfig struct {
	// Explicit executable overrides, checked in this order.
	PuppeteerExecutablePath string
	ChromeBin               string

	Headless bool

	// When DebugPort is set the client attaches to a running Chrome over CDP
	// instead of launching its own.
	DebugHost string
	DebugPort string
}

type WhatsAppConfig struct {
	URL          string
	PollInterval time.Duration
	ReadyTimeout time.Duration
}

type OutboxConfig struct {
	Buffer      int
	BulkDelay   time.Duration
	SendTimeout time.Duration
}

type DBConfig struct {
	DSN         string
	AuthToken   string
	AutoMigrate bool
}

type RabbitMQConfig struct {
	URL             string
	Exchange        string
	Queue           string
	RoutingKey      string
	Prefetch        int
	DeclareTopology bool
}

type InngestConfig struct {
	AppID      string
	Dev        string
	SigningKey string
	ServeHost  string
	ServePath  string
}

func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "whatsapp-notifier")
	v.SetDefault("APP_ENV", string(Dev))
	v.SetDefault("PORT", 3000)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("SESSION_DIR", "./whatsapp-session")
	v.SetDefault("SESSION_LOCK_PREFIX", "Singleton")

	v.SetDefault("BROWSER_HEADLESS", true)
	v.SetDefault("CHROME_DEBUG_HOST", "")
	v.SetDefault("CHROME_DEBUG_PORT", "")

	v.SetDefault("WHATSAPP_URL", "https://web.whatsapp.com")
	v.SetDefault("WHATSAPP_POLL_INTERVAL", 2*time.Second)
	v.SetDefault("WHATSAPP_READY_TIMEOUT", 45*time.Second)

	v.SetDefault("OUTBOX_BUFFER", 64)
	v.SetDefault("BULK_SEND_DELAY", 2*time.Second)
	v.SetDefault("SEND_TIMEOUT", 60*time.Second)

	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_SCHEME", "redis")
	v.SetDefault("REDIS_CHANNEL", "whatsapp:lifecycle")

	v.SetDefault("RABBITMQ_EXCHANGE", "events")
	v.SetDefault("RABBITMQ_QUEUE", "whatsapp.notification.requested.v1")
	v.SetDefault("RABBITMQ_ROUTING_KEY", "whatsapp.notification.requested.v1")
	v.SetDefault("RABBITMQ_PREFETCH", 1)
	v.SetDefault("RABBITMQ_DECLARE_TOPOLOGY", false)

	v.SetDefault("INNGEST_SERVE_PATH", "/api/inngest")

	return v
}

func NewConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppName: v.GetString("APP_NAME"),
		ENV:     Env(strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV")))),
		AppPort: v.GetInt("PORT"),

		LogLevel: v.GetString("LOG_LEVEL"),

		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		Session: SessionConfig{
			Dir:        v.GetString("SESSION_DIR"),
			LockPrefix: v.GetString("SESSION_LOCK_PREFIX"),
		},
		Chrome: ChromeConfig{
			PuppeteerExecutablePath: v.GetString("PUPPETEER_EXECUTABLE_PATH"),
			ChromeBin:               v.GetString("CHROME_BIN"),
			Headless:                v.GetBool("BROWSER_HEADLESS"),
			DebugHost:               v.GetString("CHROME_DEBUG_HOST"),
			DebugPort:               v.GetString("CHROME_DEBUG_PORT"),
		},
		WhatsApp: WhatsAppConfig{
			URL:          v.GetString("WHATSAPP_URL"),
			PollInterval: v.GetDuration("WHATSAPP_POLL_INTERVAL"),
			ReadyTimeout: v.GetDuration("WHATSAPP_READY_TIMEOUT"),
		},
		Outbox: OutboxConfig{
			Buffer:      v.GetInt("OUTBOX_BUFFER"),
			BulkDelay:   v.GetDuration("BULK_SEND_DELAY"),
			SendTimeout: v.GetDuration("SEND_TIMEOUT"),
		},
		DB: DBConfig{
			DSN:         v.GetString("DB_DSN"),
			AuthToken:   v.GetString("DB_AUTH_TOKEN"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},

		RedisUser:     v.GetString("REDIS_USER"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisHost:     v.GetString("REDIS_HOST"),
		RedisPort:     v.GetInt("REDIS_PORT"),
		RedisScheme:   v.GetString("REDIS_SCHEME"),
		RedisChannel:  v.GetString("REDIS_CHANNEL"),

		RabbitMQ: RabbitMQConfig{
			URL:             v.GetString("RABBITMQ_URL"),
			Exchange:        v.GetString("RABBITMQ_EXCHANGE"),
			Queue:           v.GetString("RABBITMQ_QUEUE"),
			RoutingKey:      v.GetString("RABBITMQ_ROUTING_KEY"),
			Prefetch:        v.GetInt("RABBITMQ_PREFETCH"),
			DeclareTopology: v.GetBool("RABBITMQ_DECLARE_TOPOLOGY"),
		},
		Inngest: InngestConfig{
			AppID:      v.GetString("INNGEST_APP_ID"),
			Dev:        v.GetString("INNGEST_DEV"),
			SigningKey: v.GetString("INNGEST_SIGNING_KEY"),
			ServeHost:  v.GetString("INNGEST_SERVE_HOST"),
			ServePath:  v.GetString("INNGEST_SERVE_PATH"),
		},
	}

	switch cfg.ENV {
	case Dev, Test, Preview, Production:
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q", cfg.ENV)
	}
	if cfg.AppPort <= 0 || cfg.AppPort > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", cfg.AppPort)
	}
	if cfg.RedisPort <= 0 || cfg.RedisPort > 65535 {
		return nil, fmt.Errorf("invalid REDIS_PORT %d", cfg.RedisPort)
	}
	if strings.TrimSpace(cfg.Session.Dir) == "" {
		return nil, fmt.Errorf("SESSION_DIR must not be empty")
	}
	if cfg.Outbox.BulkDelay < 0 {
		return nil, fmt.Errorf("invalid BULK_SEND_DELAY %s", cfg.Outbox.BulkDelay)
	}
	if cfg.Outbox.Buffer < 0 {
		return nil, fmt.Errorf("invalid OUTBOX_BUFFER %d", cfg.Outbox.Buffer)
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
