package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("STUDIO_DB_PATH", filepath.Join(tmpDir, "studio.db"))

	yamlContent := `
app:
  name: studiodesk-test
database:
  path: "${STUDIO_DB_PATH}"
api:
  enabled: true
  auth:
    enabled: true
    api_keys:
      - key: k1
        extra: e1
        name: dashboard
reminders:
  enabled: true
  interval: 6h
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpDir, "studio.db"), cfg.Database.Path)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.True(t, cfg.API.HTTP.Enabled)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, 6*time.Hour, cfg.Reminders.Interval)
	assert.Equal(t, 15, cfg.Reminders.UpcomingDays)
	assert.Equal(t, "/default-logo.png", cfg.Storage.DefaultLogoURL)
	assert.Equal(t, "studiodesk-test", cfg.Monitoring.ServiceName)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid sqlite",
			cfg:     Config{Database: DatabaseConfig{Driver: DriverSQLite, Path: "studio.db"}},
			wantErr: false,
		},
		{
			name:    "missing sqlite path",
			cfg:     Config{Database: DatabaseConfig{Driver: DriverSQLite}},
			wantErr: true,
		},
		{
			name: "postgres without host",
			cfg: Config{Database: DatabaseConfig{
				Driver:   DriverPostgres,
				Postgres: PostgresConfig{DBName: "studio"},
			}},
			wantErr: true,
		},
		{
			name:    "unknown driver",
			cfg:     Config{Database: DatabaseConfig{Driver: "mysql", Path: "x"}},
			wantErr: true,
		},
		{
			name: "telegram without chat",
			cfg: Config{
				Database: DatabaseConfig{Driver: DriverSQLite, Path: "studio.db"},
				Telegram: TelegramConfig{BotToken: "token"},
			},
			wantErr: true,
		},
		{
			name: "duplicate api key",
			cfg: Config{
				Database: DatabaseConfig{Driver: DriverSQLite, Path: "studio.db"},
				API: APIConfig{Auth: APIAuthConfig{APIKeys: []APIClientKey{
					{Key: "a", Name: "one"},
					{Key: "a", Name: "two"},
				}}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "studio", Password: "secret", DBName: "studio", SSLMode: "disable", MaxConnections: 4}
	dsn := p.DSN()
	assert.Contains(t, dsn, "host=db")
	assert.Contains(t, dsn, "password=secret")
	assert.Contains(t, dsn, "pool_max_conns=4")
}
