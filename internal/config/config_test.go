package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"ENV", "HTTP_ADDR", "DB_DSN", "JWT_SECRET", "REDIS_ADDR", "NATS_URL", "TELEGRAM_TOKEN",
	"PAYMENT_PROVIDER", "RAZORPAY_KEY_ID", "RAZORPAY_KEY_SECRET", "STRIPE_SECRET_KEY",
	"DEFAULT_CURRENCY", "CALL_TOKEN_SECRET", "CALL_TOKEN_TTL", "ENABLE_TEST_CALLS",
	"GOOGLE_CREDENTIALS_FILE", "GOOGLE_CALENDAR_ID", "RATE_LIMIT_PER_MINUTE", "CORS_ORIGINS",
}

func clearEnv(t *testing.T) {
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/wellness")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, ProviderRazorpay, cfg.PaymentProvider)
	require.Equal(t, "INR", cfg.DefaultCurrency)
	require.Equal(t, "s3cret", cfg.CallTokenSecret)
	require.Equal(t, 2*time.Hour, cfg.CallTokenTTL)
	require.Equal(t, 120, cfg.RateLimitPerMinute)
	require.False(t, cfg.EnableTestCalls)
	require.Empty(t, cfg.CORSOrigins)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/wellness")
	t.Setenv("PAYMENT_PROVIDER", "Stripe")
	t.Setenv("DEFAULT_CURRENCY", "usd")
	t.Setenv("CALL_TOKEN_TTL", "45m")
	t.Setenv("ENABLE_TEST_CALLS", "true")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, http://localhost:5173 ,")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, ProviderStripe, cfg.PaymentProvider)
	require.Equal(t, "USD", cfg.DefaultCurrency)
	require.Equal(t, 45*time.Minute, cfg.CallTokenTTL)
	require.True(t, cfg.EnableTestCalls)
	require.Equal(t, []string{"https://app.example.com", "http://localhost:5173"}, cfg.CORSOrigins)
}

func TestFromEnv_ProductionDisablesTestCalls(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("DB_DSN", "postgres://db/wellness")
	t.Setenv("ENABLE_TEST_CALLS", "1")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.False(t, cfg.EnableTestCalls)
}

func TestFromEnv_Errors(t *testing.T) {
	clearEnv(t)
	_, err := FromEnv()
	require.ErrorContains(t, err, "DB_DSN")

	t.Setenv("DB_DSN", "postgres://localhost/wellness")
	t.Setenv("PAYMENT_PROVIDER", "paypal")
	_, err = FromEnv()
	require.ErrorContains(t, err, "PAYMENT_PROVIDER")

	t.Setenv("PAYMENT_PROVIDER", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")
	_, err = FromEnv()
	require.ErrorContains(t, err, "RATE_LIMIT_PER_MINUTE")
}

func TestValidate(t *testing.T) {
	cfg := &Config{Environment: "development", PaymentProvider: ProviderRazorpay}
	require.ErrorContains(t, cfg.ValidateAPI(), "JWT_SECRET")

	cfg.JWTSecret = "x"
	require.ErrorContains(t, cfg.ValidateAPI(), "RAZORPAY")

	cfg.RazorpayKeyID, cfg.RazorpayKeySecret = "rzp_test", "secret"
	require.NoError(t, cfg.ValidateAPI())

	cfg.PaymentProvider = ProviderFake
	require.NoError(t, cfg.ValidateAPI())
	cfg.Environment = "production"
	require.Error(t, cfg.ValidateAPI())

	require.ErrorContains(t, cfg.ValidateNotifier(), "TELEGRAM_TOKEN")
	cfg.TelegramToken = "123:abc"
	require.ErrorContains(t, cfg.ValidateNotifier(), "NATS_URL")
	cfg.NatsURL = "nats://localhost:4222"
	require.NoError(t, cfg.ValidateNotifier())
}
