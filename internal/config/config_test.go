package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := loadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.StoreTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 7, cfg.Policy.WithdrawalGraceDays)
	assert.Equal(t, 5, cfg.Outbox.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Task.SyncInterval)
	assert.Equal(t, "reports", cfg.Cloudinary.Folder)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DON8_SERVER_PORT", "9090")
	t.Setenv("DON8_POLICY_WITHDRAWAL_GRACE_DAYS", "14")
	t.Setenv("DON8_TASK_OUTBOX_INTERVAL", "2s")

	cfg, err := loadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 14, cfg.Policy.WithdrawalGraceDays)
	assert.Equal(t, 2*time.Second, cfg.Task.OutboxInterval)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: "7000"
database:
  driver: postgres
  host: db.internal
  dbname: ledger
backup:
  mongo_uri: mongodb://backup:27017
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "mongodb://backup:27017", cfg.Backup.MongoURI)
	assert.Equal(t, "host=db.internal port=5432 user=postgres password= dbname=ledger sslmode=disable", cfg.Database.DSN())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("DON8_DATABASE_DRIVER", "mysql")
		_, err := loadFrom(viper.New())
		assert.ErrorContains(t, err, "unsupported database driver")
	})

	t.Run("negative grace days", func(t *testing.T) {
		t.Setenv("DON8_POLICY_WITHDRAWAL_GRACE_DAYS", "-1")
		_, err := loadFrom(viper.New())
		assert.Error(t, err)
	})
}
