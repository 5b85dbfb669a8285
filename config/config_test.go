package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Host: "127.0.0.1", Port: 3001},
		Database: DatabaseConfig{Path: "./test.db"},
		Security: SecurityConfig{JWTSecret: "secret"},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid config fills defaults", func(t *testing.T) {
		cfg := validConfig()
		require.NoError(t, cfg.Validate())

		assert.Equal(t, 24, cfg.Security.TokenTTLHours)
		assert.Equal(t, "UTC", cfg.Timezone)
	})

	t.Run("invalid port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Port = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

		cfg.Server.Port = 70000
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("missing database path", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.Path = ""
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("missing JWT secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.Security.JWTSecret = ""
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("unknown timezone", func(t *testing.T) {
		cfg := validConfig()
		cfg.Timezone = "Mars/Olympus_Mons"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("valid timezone", func(t *testing.T) {
		cfg := validConfig()
		cfg.Timezone = "Europe/Berlin"
		require.NoError(t, cfg.Validate())

		berlin, err := time.LoadLocation("Europe/Berlin")
		require.NoError(t, err)
		assert.Equal(t, berlin, cfg.Location())
	})
}

func TestTokenTTL(t *testing.T) {
	cfg := validConfig()
	cfg.Security.TokenTTLHours = 12
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL())
}

func TestLoad(t *testing.T) {
	t.Run("loads JSON file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		content := `{
			"server": {"host": "0.0.0.0", "port": 8080},
			"database": {"path": "/data/kidsafe.db"},
			"security": {"jwt_secret": "s3cret", "token_ttl_hours": 48, "allowed_origins": ["https://app.example.com"]},
			"timezone": "America/New_York",
			"logging": {"level": "debug", "format": "text"}
		}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "/data/kidsafe.db", cfg.Database.Path)
		assert.Equal(t, 48, cfg.Security.TokenTTLHours)
		assert.Equal(t, []string{"https://app.example.com"}, cfg.Security.AllowedOrigins)
		assert.Equal(t, "America/New_York", cfg.Timezone)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, ErrConfigFileNotFound)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("invalid config in file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"server": {"port": 8080}}`), 0o600))

		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KIDSAFE_JWT_SECRET", "env-secret")
	t.Setenv("KIDSAFE_PORT", "4000")
	t.Setenv("KIDSAFE_DB_PATH", "/tmp/env.db")
	t.Setenv("KIDSAFE_TIMEZONE", "UTC")
	t.Setenv("KIDSAFE_ALLOWED_ORIGINS", "https://front.example.com")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Security.JWTSecret)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.Equal(t, []string{"https://front.example.com"}, cfg.Security.AllowedOrigins)
}

func TestLoadFromEnvMissingSecret(t *testing.T) {
	t.Setenv("KIDSAFE_JWT_SECRET", "")

	_, err := LoadFromEnv()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("KIDSAFE_JWT_SECRET", "env-secret")
	t.Setenv("KIDSAFE_PORT", "")
	t.Setenv("KIDSAFE_DB_PATH", "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "./kidsafe.db", cfg.Database.Path)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "json", cfg.Logging.Format)
}
