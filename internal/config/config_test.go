package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "port: 8080\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, 500000, cfg.Agents.ContextBudget)
	assert.Equal(t, "normal", cfg.Agents.DefaultVerbosity)
	assert.Equal(t, 60, cfg.Agents.StreamTimeoutSeconds)
	assert.Equal(t, "has relevant perspective", cfg.Agents.DefaultAngle)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeConfig(t, "porte: 8080\n"))
	assert.Error(t, err)
}

func TestLoadValidatesVerbosity(t *testing.T) {
	_, err := Load(writeConfig(t, "agents:\n  default_verbosity: shouty\n"))
	assert.Error(t, err)
}

func TestLoadValidatesProviderID(t *testing.T) {
	_, err := Load(writeConfig(t, "ai:\n  providers:\n    - name: no-id\n"))
	assert.Error(t, err)
}

func TestDSNValue(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 3307, User: "u", Password: "p", Name: "marg", ParseTime: true}
	dsn := db.DSNValue()
	assert.Contains(t, dsn, "u:p@tcp(db:3307)/marg")
	assert.Contains(t, dsn, "parseTime=true")

	explicit := DatabaseConfig{DSN: "custom-dsn"}
	assert.Equal(t, "custom-dsn", explicit.DSNValue())
}

func TestRedisURLValue(t *testing.T) {
	rc := RedisConfig{Host: "cache", Port: 6380, DB: 2}
	assert.Equal(t, "redis://cache:6380/2", rc.URLValue())

	tls := RedisConfig{Host: "cache", Port: 6380, TLS: true}
	assert.Contains(t, tls.URLValue(), "rediss://")

	explicit := RedisConfig{URL: "redis://explicit:6379/0"}
	assert.Equal(t, "redis://explicit:6379/0", explicit.URLValue())
}

func TestShareExportConfigured(t *testing.T) {
	assert.False(t, ShareExportConfig{}.Configured())
	assert.False(t, ShareExportConfig{Enabled: true, Bucket: "b"}.Configured())
	assert.True(t, ShareExportConfig{
		Enabled: true, Bucket: "b", Region: "us-east-1",
		AccessKeyID: "k", SecretAccessKey: "s",
	}.Configured())
}
