package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]string) *viper.Viper {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, BackendHasura, cfg.Store.DataBackend)
	assert.Equal(t, BackendMemory, cfg.Store.LockBackend)
	assert.Equal(t, 5*time.Minute, cfg.Auth.CodeTTL)
	assert.Equal(t, 4, cfg.Auth.CodeLength)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Empty(t, cfg.HTTP.AllowedOrigins)
}

func TestFromViper_Overrides(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]string{
		"DATA_BACKEND":          "Postgres",
		"LOCK_BACKEND":          "redis",
		"CORS_ALLOWED_ORIGINS":  "https://admin.example.com, ,http://localhost:3000",
		"AUTH_CODE_TTL_SECONDS": "60",
		"HTTP_PORT":             "9090",
	}))
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Store.DataBackend)
	assert.Equal(t, BackendRedis, cfg.Store.LockBackend)
	assert.Equal(t, []string{"https://admin.example.com", "http://localhost:3000"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, time.Minute, cfg.Auth.CodeTTL)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestFromViper_Invalid(t *testing.T) {
	_, err := fromViper(newViper(map[string]string{"DATA_BACKEND": "mongo"}))
	assert.Error(t, err)

	_, err = fromViper(newViper(map[string]string{"APP_ENV": "production"}))
	assert.ErrorContains(t, err, "JWT_SECRET")

	_, err = fromViper(newViper(map[string]string{"ADMIN_BOOTSTRAP_PHONE": "13800000000"}))
	assert.ErrorContains(t, err, "ADMIN_BOOTSTRAP_PASSWORD")
}

func TestString_MasksSecrets(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]string{
		"JWT_SECRET":                  "super-secreto",
		"HASURA_GRAPHQL_ADMIN_SECRET": "admin-secreto",
		"DATABASE_URL":                "postgres://u:clave@db:5432/agro",
	}))
	require.NoError(t, err)

	s := cfg.String()
	for _, secret := range []string{"super-secreto", "admin-secreto", "clave"} {
		assert.False(t, strings.Contains(s, secret), secret)
	}
	assert.Contains(t, s, "postgres://u:xxxxx@db:5432/agro")
}

func TestDBConfig_DSN_EscapesPassword(t *testing.T) {
	c := DBConfig{Host: "h", Port: 5432, User: "u", Password: "p@ss", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@h:5432/d?sslmode=disable", c.DSN())
	assert.Equal(t, "postgres://x", DBConfig{DatabaseURL: "postgres://x"}.ConnectionString())
}
