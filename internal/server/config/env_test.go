package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	t.Setenv("AIDESK_ENDPOINT_ADDR_HTTP", ":6000")
	t.Setenv("AIDESK_TOKEN_VALIDITY_DURATION", "2h")
	t.Setenv("AIDESK_BCRYPT_COST", "10")
	t.Setenv("AIDESK_ALLOW_ADMIN_REGISTRATION", "false")
	t.Setenv("AIDESK_AUTH_RATE_LIMIT", "0.5")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, ":6000", cfg.EndpointAddrHTTP)
	assert.Equal(t, 2*time.Hour, cfg.TokenValidityDuration)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.False(t, cfg.AllowAdminRegistration)
	assert.Equal(t, 0.5, cfg.AuthRateLimit)
	assert.Equal(t, "secretKey", cfg.SecretKey, "unset variables keep their value")
}

func Test_parseEnv_BadValue(t *testing.T) {
	t.Setenv("AIDESK_BCRYPT_COST", "twelve")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.Error(t, parseEnv(cfg))
}
