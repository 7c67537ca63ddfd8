package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/absence-ledger/config"
)

var configKeys = []string{"PORT", "DB_PATH", "BACKUP_DATABASE_URL", "JWT_SECRET", "SESSION_TTL", "BACKUP_INTERVAL", "LOG_LEVEL", "CORS_ORIGINS", "STATIC_DIR"}

// clearEnv unsets every config key for the test and restores them after.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "absences.db", cfg.DBPath)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Hour, cfg.BackupInterval)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "./web/dist", cfg.StaticDir)
	assert.False(t, cfg.BackupEnabled())
	assert.ErrorIs(t, cfg.ValidateServe(), config.ErrMissingJWTSecret)
}

func TestLoad_DotEnvFileAndEnvironment(t *testing.T) {
	// GIVEN: A .env file and one variable already exported
	// WHEN: Config is loaded
	// THEN: File values are used, the exported variable wins
	clearEnv(t)
	t.Setenv("PORT", "9090")

	path := filepath.Join(t.TempDir(), ".env")
	content := "PORT=7070\nJWT_SECRET=s3cret\nSESSION_TTL=30m\nBACKUP_INTERVAL=0s\nCORS_ORIGINS=http://a.test, http://b.test\nBACKUP_DATABASE_URL=postgres://x\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Zero(t, cfg.BackupInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.True(t, cfg.BackupEnabled())
	assert.NoError(t, cfg.ValidateServe())
}

func TestLoad_RejectsBadValues(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Setenv("PORT", "eighty")
	_, err := config.Load(missing)
	assert.Error(t, err)

	require.NoError(t, os.Unsetenv("PORT"))
	t.Setenv("SESSION_TTL", "forever")
	_, err = config.Load(missing)
	assert.Error(t, err)

	require.NoError(t, os.Unsetenv("SESSION_TTL"))
	t.Setenv("LOG_LEVEL", "loud")
	_, err = config.Load(missing)
	assert.Error(t, err)
}

func TestNewLogger_Level(t *testing.T) {
	cfg := &config.Config{LogLevel: "debug"}
	assert.Equal(t, logrus.DebugLevel, cfg.NewLogger().GetLevel())
}
