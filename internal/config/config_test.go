package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlowSentinel/internal/notifier"
)

const sampleYAML = `
timezone: Asia/Shanghai
carrier:
  timeout: 10s
store:
  driver: file
  state_dir: /tmp/flow
subscribers:
  - id: alice
    phone: "18612345678"
    cookie: "ecs_token=abc"
    notify:
      enabled: true
      channel: bark
      threshold_mb: 500
      title: "[package]"
      params:
        device_key: k1
  - id: bob
    phone: "18600001111"
    cron: "0 0 * * * *"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, 10*time.Second, cfg.Carrier.Timeout)
	assert.Equal(t, StoreFile, cfg.Store.Driver)
	assert.Equal(t, "https://m.client.10010.com", cfg.Carrier.BaseURL)
	require.NotNil(t, cfg.Notify.Retries)
	assert.Equal(t, DefaultRetries, *cfg.Notify.Retries)

	require.Len(t, cfg.Subscribers, 2)
	alice := cfg.Subscribers[0]
	assert.Equal(t, DefaultCron, alice.Cron)
	assert.True(t, alice.Notify.Enabled)
	assert.Equal(t, 500.0, alice.Notify.ThresholdMB)
	assert.Equal(t, "k1", alice.Notify.ChannelParams["device_key"])
	assert.Equal(t, "0 0 * * * *", cfg.Subscribers[1].Cron)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Shanghai", loc.String())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, "data/flow_sentinel.db", cfg.Database.SQLitePath)
	assert.Error(t, cfg.Validate(), "no subscribers configured")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(writeConfig(t, sampleYAML))
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Subscribers[0].Notify.ChannelType = "pigeon"
	require.ErrorIs(t, cfg.Validate(), notifier.ErrUnknownChannel)

	cfg = base()
	cfg.Subscribers[1].ID = "alice"
	assert.ErrorContains(t, cfg.Validate(), "duplicated")

	cfg = base()
	cfg.Subscribers[0].Phone = ""
	assert.ErrorContains(t, cfg.Validate(), "phone")

	cfg = base()
	cfg.Store.Driver = StoreRedis
	assert.ErrorContains(t, cfg.Validate(), "redis_addr")

	cfg = base()
	cfg.Timezone = "Mars/Olympus"
	assert.ErrorContains(t, cfg.Validate(), "timezone")

	cfg = base()
	cfg.Store.Driver = "etcd"
	assert.Error(t, cfg.Validate())
}

func TestLoadRetries(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML+"notify:\n  retries: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Notify.Retries)
	assert.Zero(t, *cfg.Notify.Retries, "explicit zero disables retries")
	require.NoError(t, cfg.Validate())

	t.Setenv("NOTIFY_RETRIES", "0")
	cfg, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Zero(t, *cfg.Notify.Retries)

	t.Setenv("NOTIFY_RETRIES", "-1")
	cfg, err = Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "retries")
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "subscribers: [\n"))
	assert.ErrorContains(t, err, "parse config")
}
