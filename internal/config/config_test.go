package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
env: dev
listen:
  port: "9090"
mongo:
  enabled: true
  database: gate
auth:
  session_secret: session-secret
credential:
  secret: 0123456789abcdef
  ttl: 24h
reentry:
  enabled: true
  window: 5m
telegram:
  admin_ids: [101, 202]
`

func TestReadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	var conf Config
	require.NoError(t, cleanenv.ReadConfig(path, &conf))

	assert.Equal(t, "dev", conf.Env)
	assert.Equal(t, "9090", conf.Listen.Port)
	assert.Equal(t, "0.0.0.0", conf.Listen.BindIp)
	assert.True(t, conf.Mongo.Enabled)
	assert.Equal(t, "gate", conf.Mongo.Database)
	assert.Equal(t, 24*time.Hour, conf.Credential.TTL)
	assert.True(t, conf.Credential.AcceptPlain)
	assert.Equal(t, 5*time.Minute, conf.Reentry.Window)
	assert.Equal(t, []int64{101, 202}, conf.Telegram.AdminIds)
	assert.Equal(t, 40, conf.RateLimit.VerifyBurst)
	assert.NoError(t, conf.Validate())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Auth:       Auth{SessionSecret: "s"},
			Credential: Credential{AcceptPlain: true},
		}
	}

	c := base()
	assert.NoError(t, c.Validate())

	c = base()
	c.Auth.SessionSecret = ""
	assert.Error(t, c.Validate())

	c = base()
	c.Credential.Secret = "short"
	assert.Error(t, c.Validate())

	c = base()
	c.Credential.AcceptPlain = false
	assert.Error(t, c.Validate())

	c = base()
	c.Telegram.Enabled = true
	assert.Error(t, c.Validate())
}
