package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/aidesk/internal/flagx"
	"github.com/dmitrijs2005/aidesk/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept both
// "24h" style strings and integer nanoseconds. Pointer fields distinguish
// "absent" from an explicit zero or false.
type JsonConfig struct {
	EndpointAddrHTTP       string          `json:"endpoint_addr_http"`
	DatabaseDSN            string          `json:"database_dsn"`
	SecretKey              string          `json:"secret_key"`
	TokenValidityDuration  *timex.Duration `json:"token_validity_duration"`
	BcryptCost             *int            `json:"bcrypt_cost"`
	GoogleClientID         string          `json:"google_client_id"`
	GoogleTokenInfoURL     string          `json:"google_tokeninfo_url"`
	AllowAdminRegistration *bool           `json:"allow_admin_registration"`
	AuthRateLimit          *float64        `json:"auth_rate_limit"`
	AuthRateBurst          *int            `json:"auth_rate_burst"`
	ShutdownTimeout        *timex.Duration `json:"shutdown_timeout"`
	Debug                  *bool           `json:"debug"`
	LogBackend             string          `json:"log_backend"`
}

// parseJson loads the file named by -c/-config in args and overlays every
// field it sets onto config. Without the flag nothing happens. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.JsonConfigFlags(args)
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.GoogleClientID, c.GoogleClientID)
	setString(&config.GoogleTokenInfoURL, c.GoogleTokenInfoURL)
	setString(&config.LogBackend, c.LogBackend)

	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.AllowAdminRegistration != nil {
		config.AllowAdminRegistration = *c.AllowAdminRegistration
	}
	if c.AuthRateLimit != nil {
		config.AuthRateLimit = *c.AuthRateLimit
	}
	if c.AuthRateBurst != nil {
		config.AuthRateBurst = *c.AuthRateBurst
	}
	if c.Debug != nil {
		config.Debug = *c.Debug
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
