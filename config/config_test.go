package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "GIN_MODE", "SHUTDOWN_TIMEOUT_SECONDS", "DATA_FILE", "LOG_LEVEL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CACHE_TTL", "CACHE_PREFIX",
	"RATE_LIMIT", "RATE_LIMIT_BURST",
}

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		k := k // per-iteration copy; go directive is 1.21 (pre-loopvar)
		if v, ok := os.LookupEnv(k); ok {
			require.NoError(t, os.Unsetenv(k))
			t.Cleanup(func() { os.Setenv(k, v) })
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DefaultDataFile, cfg.Data.Path)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Zero(t, cfg.RateLimit.Limit)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  shutdownTimeout: 5s
data:
  path: students.xlsx
redis:
  addr: "localhost:6379"
  ttl: 1m
rateLimit:
  limit: 10
  burst: 20
logLevel: debug
`), 0o600))

	t.Setenv("DATA_FILE", "override.csv")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "override.csv", cfg.Data.Path)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 10.0, cfg.RateLimit.Limit)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidEnv(t *testing.T) {
	tests := map[string]string{
		"PORT":                     "80 80",
		"REDIS_DB":                 "one",
		"CACHE_TTL":                "soon",
		"RATE_LIMIT":               "fast",
		"SHUTDOWN_TIMEOUT_SECONDS": "0",
		"GIN_MODE":                 "production",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestNormalizeAddr(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "8080", want: ":8080"},
		{in: ":9090", want: ":9090"},
		{in: "127.0.0.1:8080", want: "127.0.0.1:8080"},
		{in: "eighty", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := NormalizeAddr(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.RateLimit.Limit = 5
	cfg.RateLimit.Burst = 0
	cfg.Data.Path = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "burst")
	assert.Contains(t, err.Error(), "data path")
}
