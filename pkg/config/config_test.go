package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 2000000, cfg.Scheduler.MaxNodes)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.Timeout)
	assert.Equal(t, "identity", cfg.Scheduler.Optimizer)
	assert.Equal(t, 2, cfg.Scheduler.Workers)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.JobTimeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "UTC", cfg.Calendar.TimeZone)
	assert.Equal(t, 4320*time.Hour, cfg.Calendar.FeedTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENV", EnvProduction)
	t.Setenv("SCHEDULER_MAX_NODES", "5000")
	t.Setenv("SCHEDULER_TIMEOUT", "45s")
	t.Setenv("SCHEDULER_OPTIMIZER", " Local_Search ")
	t.Setenv("SCHEDULE_CACHE_ENABLED", "false")
	t.Setenv("CALENDAR_TIMEZONE", "Asia/Jakarta")
	t.Setenv("PUBLIC_BASE_URL", "https://timetable.example.edu/")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.edu, https://b.example.edu,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, 5000, cfg.Scheduler.MaxNodes)
	assert.Equal(t, 45*time.Second, cfg.Scheduler.Timeout)
	assert.Equal(t, "local_search", cfg.Scheduler.Optimizer)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "Asia/Jakarta", cfg.Calendar.TimeZone)
	assert.Equal(t, "https://timetable.example.edu", cfg.Calendar.PublicURL)
	assert.Equal(t, []string{"https://a.example.edu", "https://b.example.edu"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Hour, parseDuration("2h", time.Minute))
}
