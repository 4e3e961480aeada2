package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("MARKETPLACE_JWT_SECRET", "s3cret")
	t.Setenv("MARKETPLACE_DB_DRIVER", "sqlite")
	t.Setenv("MARKETPLACE_BROKER", "nats")
	t.Setenv("MARKETPLACE_PORT", "9090")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", c.JWTSecret)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "nats", c.Broker)
	assert.Equal(t, 9090, c.Port)
	assert.Equal(t, 20, c.PageSize)
	assert.Equal(t, uint(60), c.RateLimit)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{DBDriver: "postgres", Broker: "memory", JWTSecret: "x", PageSize: 20}
	}

	c := base()
	require.NoError(t, c.Validate())

	c = base()
	c.DBDriver = "oracle"
	assert.Error(t, c.Validate())

	c = base()
	c.Broker = "kafka"
	assert.Error(t, c.Validate())

	c = base()
	c.JWTSecret = ""
	assert.Error(t, c.Validate())

	c = base()
	c.PageSize = 0
	require.NoError(t, c.Validate())
	assert.Equal(t, 20, c.PageSize)
}
