package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// envConfig mirrors Config with env tags. Parsed into a separate struct so
// that unset variables leave layered values from defaults/JSON intact.
type envConfig struct {
	EndpointAddr                string        `env:"AUTHKEEPER_ADDR"`
	DatabaseDSN                 string        `env:"DATABASE_DSN"`
	SecretKey                   string        `env:"SECRET_KEY"`
	AuthType                    string        `env:"AUTH_TYPE"`
	SessionCookieName           string        `env:"SESSION_NAME"`
	BcryptCost                  int           `env:"BCRYPT_COST"`
	ResetTokenValidityDuration  time.Duration `env:"RESET_TOKEN_VALIDITY"`
	AccessTokenValidityDuration time.Duration `env:"ACCESS_TOKEN_VALIDITY"`
	LogLevel                    string        `env:"LOG_LEVEL"`
}

// parseEnv overlays environment variables onto the Config. A .env file in
// the working directory is loaded first when present, for development runs.
func parseEnv(config *Config) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	e := envConfig{}
	if err := env.Parse(&e); err != nil {
		panic(err)
	}

	if e.EndpointAddr != "" {
		config.EndpointAddr = e.EndpointAddr
	}
	if e.DatabaseDSN != "" {
		config.DatabaseDSN = e.DatabaseDSN
	}
	if e.SecretKey != "" {
		config.SecretKey = e.SecretKey
	}
	if e.AuthType != "" {
		config.AuthType = e.AuthType
	}
	if e.SessionCookieName != "" {
		config.SessionCookieName = e.SessionCookieName
	}
	if e.BcryptCost != 0 {
		config.BcryptCost = e.BcryptCost
	}
	if e.ResetTokenValidityDuration != 0 {
		config.ResetTokenValidityDuration = e.ResetTokenValidityDuration
	}
	if e.AccessTokenValidityDuration != 0 {
		config.AccessTokenValidityDuration = e.AccessTokenValidityDuration
	}
	if e.LogLevel != "" {
		config.LogLevel = e.LogLevel
	}
}
