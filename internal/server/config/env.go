package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// dotEnvFile is loaded into the process environment if it exists. Variables
// already set in the environment win over the file.
var dotEnvFile = ".env"

// parseEnv overlays settings from environment variables:
//
//	SECRET_KEY                   JWT HMAC secret
//	DATABASE_URL                 PostgreSQL DSN
//	HTTP_ADDR                    HTTP bind address
//	ACCESS_TOKEN_EXPIRE_MINUTES  access token validity, minutes
//	REFRESH_TOKEN_EXPIRE_DAYS    refresh token validity, days
//	PASSWORD_HASH_ALGORITHM      bcrypt | argon2id
//	LOG_BACKEND                  zap | slog
//	CORS_ALLOWED_ORIGINS         comma-separated origins
func parseEnv(config *Config, dotEnv string) error {
	if dotEnv != "" {
		if err := godotenv.Load(dotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if v, ok := os.LookupEnv("SECRET_KEY"); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv("DATABASE_URL"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("HTTP_ADDR"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := os.LookupEnv("PASSWORD_HASH_ALGORITHM"); ok {
		config.PasswordHashAlgorithm = v
	}
	if v, ok := os.LookupEnv("LOG_BACKEND"); ok {
		config.LogBackend = v
	}
	if v, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		config.CORSAllowedOrigins = splitList(v)
	}

	if v, ok := os.LookupEnv("ACCESS_TOKEN_EXPIRE_MINUTES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		config.AccessTokenValidityDuration = time.Duration(n) * time.Minute
	}
	if v, ok := os.LookupEnv("REFRESH_TOKEN_EXPIRE_DAYS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		config.RefreshTokenValidityDuration = time.Duration(n) * 24 * time.Hour
	}
	return nil
}

func splitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
