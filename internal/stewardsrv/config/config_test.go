package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "steward.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func resetConfig(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		require.NoError(t, LoadConfig(""))
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	resetConfig(t)
	require.NoError(t, LoadConfig(""))

	c := Config()
	require.NotNil(t, c)
	assert.Equal(t, "8291", c.Server.Port)
	assert.True(t, c.Server.HandleCORS)
	assert.Equal(t, "stewardcatalog", c.Database.DbName)
	assert.Equal(t, 5432, c.Database.Port)
	assert.Equal(t, "5m", c.Warehouse.CacheTTL)
	assert.True(t, c.Search.RebuildOnStart)
	assert.Equal(t, 500, c.Compliance.RuleTimeoutMs)
	assert.Equal(t, "15s", c.Products.GenieSpaceDelay)
}

func TestLoadConfigFile(t *testing.T) {
	resetConfig(t)
	path := writeConfigFile(t, `
[server]
port = "9100"
handle_cors = false
allowed_origins = ["https://steward.example.com"]

[database]
host = "db.internal"
dbname = "steward_prod"
user = "steward"
password = "s3cret"

[warehouse]
api_url = "https://warehouse.example.com"
api_token = "wh-token"
cache_ttl = "30s"

[seed]
dir = "/var/lib/steward/seed"
watch = true

[compliance]
rule_timeout_ms = 250

[products]
genie_space_delay = "2s"
`)

	require.NoError(t, LoadConfig(path))
	c := Config()

	assert.Equal(t, "9100", c.Server.Port)
	assert.False(t, c.Server.HandleCORS)
	assert.Equal(t, []string{"https://steward.example.com"}, c.Server.AllowedOrigins)
	assert.Equal(t, "db.internal", c.Database.Host)
	assert.Equal(t, "steward_prod", c.Database.DbName)
	// Unspecified fields keep their defaults.
	assert.Equal(t, 5432, c.Database.Port)
	assert.Equal(t, "disable", c.Database.SSLMode)
	assert.Equal(t, "https://warehouse.example.com", c.Warehouse.APIURL)
	assert.Equal(t, "/var/lib/steward/seed", c.Seed.Dir)
	assert.True(t, c.Seed.Watch)
	assert.Equal(t, 250, c.Compliance.RuleTimeoutMs)
	assert.Equal(t, 2*time.Second, c.GenieSpaceDelay())
	assert.Equal(t, 30*time.Second, c.WarehouseCacheTTL())
}

func TestLoadConfigMissingFile(t *testing.T) {
	resetConfig(t)
	err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfigBadToml(t *testing.T) {
	resetConfig(t)
	path := writeConfigFile(t, "[server\nport=")
	err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error parsing config file")
}

func TestDsn(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		DbName:   "stewardcatalog",
		User:     "steward_api",
		Password: "abc@123",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=steward_api password=abc@123 dbname=stewardcatalog sslmode=disable",
		d.Dsn())
}

func TestParseTokenDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"30s", 30 * time.Second, false},
		{"5m", 5 * time.Minute, false},
		{"2h", 2 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"1y", 365 * 24 * time.Hour, false},
		{"10m", 10 * time.Minute, false},
		{"", 0, true},
		{"s", 0, true},
		{"500x", 0, true},
		{"abcs", 0, true},
		{"1.5h", 0, true},
	}

	for _, test := range tests {
		got, err := ParseTokenDuration(test.input)
		if test.wantErr {
			assert.Error(t, err, "input %q", test.input)
			continue
		}
		require.NoError(t, err, "input %q", test.input)
		assert.Equal(t, test.expected, got, "input %q", test.input)
	}
}

func TestDurationHelpersFallBack(t *testing.T) {
	c := &ConfigParam{
		Warehouse:  WarehouseConfig{CacheTTL: "soon"},
		Compliance: ComplianceConfig{RuleTimeoutMs: 0},
		Products:   ProductsConfig{GenieSpaceDelay: "whenever"},
	}
	assert.Equal(t, 5*time.Minute, c.WarehouseCacheTTL())
	assert.Equal(t, 500*time.Millisecond, c.RuleTimeout())
	assert.Equal(t, 15*time.Second, c.GenieSpaceDelay())

	c.Compliance.RuleTimeoutMs = 250
	assert.Equal(t, 250*time.Millisecond, c.RuleTimeout())
	c.Compliance.RuleTimeoutMs = -10
	assert.Equal(t, 500*time.Millisecond, c.RuleTimeout())
}
