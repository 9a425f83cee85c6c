package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealsync/dealsync/internal/platform/cache"
	"github.com/dealsync/dealsync/internal/shared"
	"github.com/dealsync/dealsync/jobs"
	_ "github.com/dealsync/dealsync/testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 120*time.Second, cfg.AppRequestTimeout)
	assert.Equal(t, "https://api.katanamrp.com/v1", cfg.KatanaBaseURL)
	assert.Equal(t, 30*time.Second, cfg.KatanaTimeout)
	assert.Zero(t, cfg.PipedriveTimeout)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.PGDSN)

	s := cfg.Settings()
	assert.Equal(t, int64(166154), s.LocationID)
	assert.Equal(t, int64(423653), s.TaxRateEUR)
	assert.Equal(t, int64(459884), s.TaxRateGBP)
	assert.Equal(t, int64(38207669), s.CustomItemVariantID)
	assert.Equal(t, 14*24*time.Hour, s.LeadTime)
	assert.Equal(t, 1000, s.PageSize)
	assert.False(t, s.StrictDuplicateCheck)

	assert.Equal(t, "saunamo", cfg.PipedriveConfig().CompanyDomain)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("KATANA_LOCATION_ID", "1")
	t.Setenv("DELIVERY_LEAD_TIME", "48h")
	t.Setenv("STRICT_DUPLICATE_CHECK", "true")
	t.Setenv("KATANA_MAX_PAGES", "2")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	s := cfg.Settings()
	assert.Equal(t, int64(1), s.LocationID)
	assert.Equal(t, 48*time.Hour, s.LeadTime)
	assert.True(t, s.StrictDuplicateCheck)
	assert.Equal(t, 2, s.MaxPages)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("KATANA_PAGE_SIZE", "0")
	t.Setenv("DELIVERY_LEAD_TIME", "-1h")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KATANA_PAGE_SIZE")
	assert.Contains(t, err.Error(), "DELIVERY_LEAD_TIME")
}

func TestTestModeIsSet(t *testing.T) {
	RefreshTestMode()
	assert.True(t, InTestMode())
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&Config{LogFormat: "json", AppEnv: "test"}, &buf).Info("hello")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())
	assert.Contains(t, buf.String(), `"env":"test"`)

	buf.Reset()
	newLogger(&Config{LogFormat: "pretty"}, &buf).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestLoadConfigTimeoutOrdering(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cfg.AppWriteTimeout, cfg.AppRequestTimeout)
	assert.GreaterOrEqual(t, cfg.DealLockTTL, cfg.AppRequestTimeout)
	assert.GreaterOrEqual(t, cfg.DealLockTTL, jobs.DealSyncTimeout)
}

func TestLoadConfigRejectsShortTimeouts(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "lock shorter than queued sync", env: map[string]string{"DEAL_LOCK_TTL": "2m"}, want: "DEAL_LOCK_TTL"},
		{name: "lock shorter than request", env: map[string]string{"APP_REQUEST_TIMEOUT": "10m", "APP_WRITE_TIMEOUT": "11m"}, want: "DEAL_LOCK_TTL"},
		{name: "write shorter than request", env: map[string]string{"APP_WRITE_TIMEOUT": "60s"}, want: "APP_WRITE_TIMEOUT"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDealLockOutlivesQueuedSync(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	lock := cache.NewLock(client, cfg.DealLockTTL, nil)
	ctx := context.Background()
	key := shared.DealLockKey("42")

	_, ok, err := lock.Acquire(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(jobs.DealSyncTimeout - time.Second)
	_, ok, err = lock.Acquire(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "lock expired while the first sync could still be running")
}
