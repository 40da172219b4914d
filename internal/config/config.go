package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderRazorpay = "razorpay"
	ProviderStripe   = "stripe"
	ProviderFake     = "fake"
)

type Config struct {
	Environment string
	HTTPAddr    string
	DBDSN       string
	JWTSecret   string
	RedisAddr   string
	NatsURL     string

	TelegramToken string

	PaymentProvider   string
	RazorpayKeyID     string
	RazorpayKeySecret string
	StripeSecretKey   string
	DefaultCurrency   string

	CallTokenSecret string
	CallTokenTTL    time.Duration
	EnableTestCalls bool

	GoogleCredentialsFile string
	GoogleCalendarID      string

	RateLimitPerMinute int
	CORSOrigins        []string
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	log.Printf("Config loaded (env=%s, payments=%s)\n", cfg.Environment, cfg.PaymentProvider)
	return cfg, nil
}

// FromEnv читает конфигурацию из переменных окружения и проставляет дефолты
func FromEnv() (*Config, error) {
	cfg := &Config{
		Environment:           os.Getenv("ENV"),
		HTTPAddr:              os.Getenv("HTTP_ADDR"),
		DBDSN:                 os.Getenv("DB_DSN"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		NatsURL:               os.Getenv("NATS_URL"),
		TelegramToken:         os.Getenv("TELEGRAM_TOKEN"),
		PaymentProvider:       strings.ToLower(os.Getenv("PAYMENT_PROVIDER")),
		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		StripeSecretKey:       os.Getenv("STRIPE_SECRET_KEY"),
		DefaultCurrency:       strings.ToUpper(os.Getenv("DEFAULT_CURRENCY")),
		CallTokenSecret:       os.Getenv("CALL_TOKEN_SECRET"),
		GoogleCredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		GoogleCalendarID:      os.Getenv("GOOGLE_CALENDAR_ID"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.PaymentProvider == "" {
		cfg.PaymentProvider = ProviderRazorpay
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "INR"
	}
	if cfg.CallTokenSecret == "" {
		cfg.CallTokenSecret = cfg.JWTSecret
	}

	var err error
	if cfg.CallTokenTTL, err = durationEnv("CALL_TOKEN_TTL", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = intEnv("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return nil, err
	}
	if cfg.EnableTestCalls, err = boolEnv("ENABLE_TEST_CALLS", false); err != nil {
		return nil, err
	}
	if cfg.IsProduction() {
		cfg.EnableTestCalls = false
	}

	for _, origin := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	switch cfg.PaymentProvider {
	case ProviderRazorpay, ProviderStripe, ProviderFake:
	default:
		return nil, fmt.Errorf("PAYMENT_PROVIDER must be razorpay, stripe or fake, got %q", cfg.PaymentProvider)
	}

	return cfg, nil
}

// ValidateAPI ключи, без которых не поднимается HTTP API
func (c *Config) ValidateAPI() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}

	switch c.PaymentProvider {
	case ProviderRazorpay:
		if c.RazorpayKeyID == "" || c.RazorpayKeySecret == "" {
			return fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required for razorpay")
		}
	case ProviderStripe:
		if c.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required for stripe")
		}
	case ProviderFake:
		if c.IsProduction() {
			return fmt.Errorf("fake payment provider is not allowed in production")
		}
	}
	return nil
}

// ValidateNotifier ключи телеграм-уведомлений
func (c *Config) ValidateNotifier() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}
	if c.NatsURL == "" {
		return fmt.Errorf("NATS_URL is required but not set")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
