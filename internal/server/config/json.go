package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/akgupta-cs/mediavault/internal/flagx"
	"github.com/akgupta-cs/mediavault/internal/timex"
)

type jsonConfig struct {
	Addr                 *string         `json:"addr"`
	DatabaseDSN          *string         `json:"database_dsn"`
	SecretKey            *string         `json:"secret_key"`
	AccessTokenDuration  *timex.Duration `json:"access_token_duration"`
	RefreshTokenDuration *timex.Duration `json:"refresh_token_duration"`
	S3Endpoint           *string         `json:"s3_endpoint"`
	S3Region             *string         `json:"s3_region"`
	S3Bucket             *string         `json:"s3_bucket"`
	S3AccessKeyID        *string         `json:"s3_access_key_id"`
	S3SecretAccessKey    *string         `json:"s3_secret_access_key"`
	PresignTTL           *timex.Duration `json:"presign_ttl"`
	RedisAddr            *string         `json:"redis_addr"`
	AdminCacheTTL        *timex.Duration `json:"admin_cache_ttl"`
}

func (c *Config) parseJson() error {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if jc.Addr != nil {
		c.Addr = *jc.Addr
	}
	if jc.DatabaseDSN != nil {
		c.DatabaseDSN = *jc.DatabaseDSN
	}
	if jc.SecretKey != nil {
		c.SecretKey = *jc.SecretKey
	}
	if jc.AccessTokenDuration != nil {
		c.AccessTokenDuration = *jc.AccessTokenDuration
	}
	if jc.RefreshTokenDuration != nil {
		c.RefreshTokenDuration = *jc.RefreshTokenDuration
	}
	if jc.S3Endpoint != nil {
		c.S3Endpoint = *jc.S3Endpoint
	}
	if jc.S3Region != nil {
		c.S3Region = *jc.S3Region
	}
	if jc.S3Bucket != nil {
		c.S3Bucket = *jc.S3Bucket
	}
	if jc.S3AccessKeyID != nil {
		c.S3AccessKeyID = *jc.S3AccessKeyID
	}
	if jc.S3SecretAccessKey != nil {
		c.S3SecretAccessKey = *jc.S3SecretAccessKey
	}
	if jc.PresignTTL != nil {
		c.PresignTTL = *jc.PresignTTL
	}
	if jc.RedisAddr != nil {
		c.RedisAddr = *jc.RedisAddr
	}
	if jc.AdminCacheTTL != nil {
		c.AdminCacheTTL = *jc.AdminCacheTTL
	}
	return nil
}
