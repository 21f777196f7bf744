package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
app:
  name: supportdesk
  env: test
server:
  host: 127.0.0.1
  port: 9090
  shutdown_timeout: 5s
database:
  host: localhost
  port: 5432
  name: supportdesk_test
  user: sd
  password: secret
  ssl_mode: disable
redis:
  host: localhost
  port: 6379
  session:
    prefix: "sd:session:"
    ttl: 24h
auth:
  jwt:
    secret: test-secret
    issuer: supportdesk
    access_token_ttl: 15m
ticket:
  number_generator: date
  number_prefix: TKT
  default_priority: medium
  default_status: open
ai:
  enabled: false
  provider: anthropic
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testYAML), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	require.NoError(t, LoadFromFile(writeTestConfig(t)))

	c := Get()
	require.NotNil(t, c)

	assert.Equal(t, "supportdesk", c.App.Name)
	assert.False(t, c.App.IsProduction())
	assert.Equal(t, "127.0.0.1:9090", c.Server.GetServerAddr())
	assert.Equal(t, 5*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, "localhost:6379", c.Redis.GetRedisAddr())
	assert.Equal(t, 15*time.Minute, c.Auth.JWT.AccessTokenTTL)
	assert.Equal(t, "medium", c.Ticket.DefaultPriority)
	assert.Equal(t, "anthropic", c.AI.Provider)
}

func TestGetDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: 5432, User: "sd", Password: "pw",
		Name: "supportdesk", SSLMode: "require",
	}
	assert.Equal(t,
		"host=db port=5432 user=sd password=pw dbname=supportdesk sslmode=require",
		c.GetDSN(),
	)
}
