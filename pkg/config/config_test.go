package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg := fromViper(newTestViper())

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 10*time.Second, cfg.Enrollment.TxTimeout)
	assert.Equal(t, 2, cfg.Enrollment.EventWorkers)
	assert.Equal(t, 2*time.Minute, cfg.Panel.CacheTTL)
	assert.Equal(t, "UAGRM", cfg.Panel.University)
	assert.True(t, cfg.Panel.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperEnvironmentOverrides(t *testing.T) {
	t.Setenv("ENROLLMENT_TX_TIMEOUT", "3s")
	t.Setenv("ENROLLMENT_EVENT_WORKERS", "0")
	t.Setenv("PANEL_CACHE_TTL", "not-a-duration")
	t.Setenv("OTEL_SAMPLER_RATIO", "4")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("ENABLE_REDIS", "true")

	cfg := fromViper(newTestViper())

	assert.Equal(t, 3*time.Second, cfg.Enrollment.TxTimeout)
	assert.Equal(t, 1, cfg.Enrollment.EventWorkers)
	assert.Equal(t, 2*time.Minute, cfg.Panel.CacheTTL)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Redis.Enabled)
}
