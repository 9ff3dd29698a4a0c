package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-order-fulfillment/internal/platform/resilience"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "RPC_TIMEOUT", "BREAKER_WINDOW", "BREAKER_MIN_REQUESTS", "BREAKER_FAILURE_RATIO",
		"BREAKER_COOLDOWN", "BREAKER_HALF_OPEN_PROBES", "BREAKER_COUNT_REJECTIONS", "PUBLISH_TIMEOUT",
		"PAYMENTS_ENABLED", "OPS_RECIPIENTS", "POSTGRES_DSN", "RABBITMQ_URL", "TEMPORAL_DISABLED", "PAYMENT_DECLINE_CVV",
		"NOTIFICATION_EXCHANGE", "NOTIFICATION_QUEUE", "SMTP_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load("8081")
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Addr())
	assert.True(t, cfg.PaymentsEnabled)
	assert.Equal(t, 3*time.Second, cfg.RPCTimeout)
	assert.Equal(t, 2*time.Second, cfg.PublishTimeout)
	assert.Equal(t, 10*time.Second, cfg.SMTPTimeout)
	assert.Equal(t, "notificationExchange", cfg.NotificationExchange)
	assert.Equal(t, "notificationQueue", cfg.NotificationQueue)
	assert.Equal(t, "999", cfg.PaymentDeclineCVV)
	assert.Empty(t, cfg.PostgresDSN)
	if diff := cmp.Diff(resilience.DefaultSettings(), cfg.Breaker); diff != "" {
		t.Fatalf("breaker settings mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PAYMENTS_ENABLED", "false")
	t.Setenv("OPS_RECIPIENTS", " ops@demo.com, ,audit@demo.com,ops@demo.com")
	t.Setenv("BREAKER_WINDOW", "1m")
	t.Setenv("BREAKER_MIN_REQUESTS", "3")
	t.Setenv("BREAKER_FAILURE_RATIO", "1")
	t.Setenv("BREAKER_COUNT_REJECTIONS", "yes")
	t.Setenv("TEMPORAL_DISABLED", "1")

	cfg, err := Load("8080")
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.PaymentsEnabled)
	assert.Equal(t, []string{"ops@demo.com", "audit@demo.com"}, cfg.OpsRecipients)
	assert.Equal(t, time.Minute, cfg.Breaker.Window)
	assert.EqualValues(t, 3, cfg.Breaker.MinRequests)
	assert.Equal(t, 1.0, cfg.Breaker.FailureRatio)
	assert.True(t, cfg.Breaker.CountRejections)
	assert.True(t, cfg.TemporalDisabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"RPC_TIMEOUT":              "soon",
		"BREAKER_COOLDOWN":         "-1s",
		"BREAKER_MIN_REQUESTS":     "0",
		"BREAKER_HALF_OPEN_PROBES": "two",
		"BREAKER_FAILURE_RATIO":    "1.5",
		"PORT":                     "http",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("8080")
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
