package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the process-level settings read from the environment (and an optional app.env).
type Config struct {
	Port           string `mapstructure:"PORT"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	ProfileStore   string `mapstructure:"PROFILE_STORE"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	ServiceToken     string `mapstructure:"SERVICE_TOKEN"`
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	InitDataMaxAge   int    `mapstructure:"INIT_DATA_MAX_AGE"`

	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`

	BalanceFile     string `mapstructure:"BALANCE_FILE"`
	DefaultTimezone string `mapstructure:"DEFAULT_TIMEZONE"`

	MessagingWebhookURL string `mapstructure:"MESSAGING_WEBHOOK_URL"`
	MiniAppDir          string `mapstructure:"MINIAPP_DIR"`

	CloudflareAccountID string `mapstructure:"CLOUDFLARE_ACCOUNT_ID"`
	R2AccessKeyID       string `mapstructure:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret   string `mapstructure:"R2_ACCESS_KEY_SECRET"`
	R2BucketName        string `mapstructure:"R2_BUCKET_NAME"`
	CDNBaseURL          string `mapstructure:"CDN_BASE_URL"`

	StoreMaxRetries     int `mapstructure:"STORE_MAX_RETRIES"`
	StoreRetryBackoffMS int `mapstructure:"STORE_RETRY_BACKOFF_MS"`
}

var keys = []string{
	"PORT", "DATABASE_URL", "PROFILE_STORE", "ALLOWED_ORIGINS",
	"SERVICE_TOKEN", "TELEGRAM_BOT_TOKEN", "INIT_DATA_MAX_AGE",
	"REDIS_ADDR", "RATE_LIMIT_PER_MINUTE",
	"BALANCE_FILE", "DEFAULT_TIMEZONE",
	"MESSAGING_WEBHOOK_URL", "MINIAPP_DIR",
	"CLOUDFLARE_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_ACCESS_KEY_SECRET", "R2_BUCKET_NAME", "CDN_BASE_URL",
	"STORE_MAX_RETRIES", "STORE_RETRY_BACKOFF_MS",
}

// Load reads .env (if present), then app.env under path, then the process environment.
func Load(path string) (Config, error) {
	var cfg Config
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.SetDefault("PORT", "5200")
	v.SetDefault("PROFILE_STORE", "postgres")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("INIT_DATA_MAX_AGE", 86400)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	v.SetDefault("DEFAULT_TIMEZONE", "Asia/Singapore")
	v.SetDefault("MINIAPP_DIR", "./public/miniapp")
	v.SetDefault("STORE_MAX_RETRIES", 3)
	v.SetDefault("STORE_RETRY_BACKOFF_MS", 50)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ProfileStore = strings.ToLower(strings.TrimSpace(cfg.ProfileStore))
	return cfg, nil
}

// Origins splits ALLOWED_ORIGINS and trims each entry.
func (c Config) Origins() string {
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}

// R2Enabled reports whether journal export storage is configured.
func (c Config) R2Enabled() bool {
	return c.CloudflareAccountID != "" && c.R2BucketName != "" && c.R2AccessKeyID != ""
}
