package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "super-secret-value")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "development", cfg.Env)
	require.Equal(t, ":8080", cfg.Addr())
	require.Equal(t, 168*time.Hour, cfg.JWTExpiry)
	require.Equal(t, "auction_events", cfg.AMQPExchange)
	require.Empty(t, cfg.DatabaseURL)
	require.False(t, cfg.SeedDemo)
	require.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "PORT=9090\nAPP_ENV=production\nCORS_ORIGINS=https://a.example,https://b.example\nSEED_DEMO=true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("JWT_SECRET", "from-env")
	// godotenv does not override variables that are already set
	t.Setenv("PORT", "7070")
	t.Setenv("APP_ENV", "")
	require.NoError(t, os.Unsetenv("APP_ENV"))
	t.Cleanup(func() {
		os.Unsetenv("CORS_ORIGINS") //nolint:errcheck
		os.Unsetenv("SEED_DEMO")    //nolint:errcheck
	})

	cfg, err := Load(filepath.Join(dir, "nope.env"), path)
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Addr())
	require.True(t, cfg.IsProduction())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.True(t, cfg.SeedDemo)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestFields_MasksSecrets(t *testing.T) {
	cfg := &Config{
		JWTSecret:   "abcdefghijkl",
		DatabaseURL: "postgres://user:pw@db:5432/autobid",
		AMQPURL:     "short",
	}
	fields := cfg.Fields()
	require.Equal(t, "abc****jkl", fields["jwt_secret"])
	require.Equal(t, "pos****bid", fields["database_url"])
	require.Equal(t, "****", fields["amqp_url"])
	require.Equal(t, "", fields["redis_url"])
}
