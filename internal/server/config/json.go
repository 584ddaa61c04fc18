package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/csemotors/internal/flagx"
	"github.com/dmitrijs2005/csemotors/internal/timex"
)

// JsonConfig is a DTO used only for reading the JSON file. Interval fields
// use timex.Duration so they may be written as "15m" or as nanoseconds.
// Absent or empty fields leave the current value untouched.
type JsonConfig struct {
	HTTPAddr          string         `json:"http_addr"`
	DatabaseDSN       string         `json:"database_dsn"`
	SecretKey         string         `json:"secret_key"`
	Environment       string         `json:"environment"`
	LogLevel          string         `json:"log_level"`
	RedisURL          string         `json:"redis_url"`
	FlashTTL          timex.Duration `json:"flash_ttl"`
	ShutdownTimeout   timex.Duration `json:"shutdown_timeout"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	UploadURLValidity timex.Duration `json:"upload_url_validity"`
}

// parseJson overlays cfg with the file named by -c or -config, if any.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.HTTPAddr, c.HTTPAddr)
	setString(&cfg.DatabaseDSN, c.DatabaseDSN)
	setString(&cfg.SecretKey, c.SecretKey)
	setString(&cfg.Environment, c.Environment)
	setString(&cfg.LogLevel, c.LogLevel)
	setString(&cfg.RedisURL, c.RedisURL)
	setString(&cfg.S3RootUser, c.S3RootUser)
	setString(&cfg.S3RootPassword, c.S3RootPassword)
	setString(&cfg.S3Bucket, c.S3Bucket)
	setString(&cfg.S3Region, c.S3Region)
	setString(&cfg.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.FlashTTL.Duration > 0 {
		cfg.FlashTTL = c.FlashTTL.Duration
	}
	if c.ShutdownTimeout.Duration > 0 {
		cfg.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.UploadURLValidity.Duration > 0 {
		cfg.UploadURLValidity = c.UploadURLValidity.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
