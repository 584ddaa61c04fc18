package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/csemotors/internal/flagx"
)

// parseEnv overlays cfg with environment variables:
//
//	HTTP_ADDR, DATABASE_URL, ACCESS_TOKEN_SECRET, APP_ENV, LOG_LEVEL,
//	REDIS_URL, FLASH_TTL, S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET,
//	S3_REGION, S3_BASE_ENDPOINT
func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	flagx.EnvStrings(lookup, map[string]*string{
		"HTTP_ADDR":           &cfg.HTTPAddr,
		"DATABASE_URL":        &cfg.DatabaseDSN,
		"ACCESS_TOKEN_SECRET": &cfg.SecretKey,
		"APP_ENV":             &cfg.Environment,
		"LOG_LEVEL":           &cfg.LogLevel,
		"REDIS_URL":           &cfg.RedisURL,
		"S3_ROOT_USER":        &cfg.S3RootUser,
		"S3_ROOT_PASSWORD":    &cfg.S3RootPassword,
		"S3_BUCKET":           &cfg.S3Bucket,
		"S3_REGION":           &cfg.S3Region,
		"S3_BASE_ENDPOINT":    &cfg.S3BaseEndpoint,
	})

	var ttl string
	flagx.EnvStrings(lookup, map[string]*string{"FLASH_TTL": &ttl})
	if ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("FLASH_TTL: %w", err)
		}
		cfg.FlashTTL = d
	}
	return nil
}
