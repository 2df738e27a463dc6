package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept both strings
// such as "2h" and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           string         `json:"database_dsn"`
	UsersServiceAddr      string         `json:"users_service_addr"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	PasswordHashCost      *int           `json:"password_hash_cost"`
	ProfileCallTimeout    timex.Duration `json:"profile_call_timeout"`
	ProfileFindRetries    *int           `json:"profile_find_retries"`
	CompensationAttempts  *int           `json:"compensation_attempts"`
	CompensationTimeout   timex.Duration `json:"compensation_timeout"`
	LogLevel              string         `json:"log_level"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	S3OrphanPrefix        string         `json:"s3_orphan_prefix"`
}

// parseJson overlays values from the JSON file named by -c / -config (or
// AUTH_CONFIG). Keys absent from the file leave the current value alone.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.ConfigPath()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.UsersServiceAddr, c.UsersServiceAddr)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3OrphanPrefix, c.S3OrphanPrefix)

	if c.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.ProfileCallTimeout.Duration > 0 {
		config.ProfileCallTimeout = c.ProfileCallTimeout.Duration
	}
	if c.CompensationTimeout.Duration > 0 {
		config.CompensationTimeout = c.CompensationTimeout.Duration
	}
	if c.PasswordHashCost != nil {
		config.PasswordHashCost = *c.PasswordHashCost
	}
	if c.ProfileFindRetries != nil {
		config.ProfileFindRetries = *c.ProfileFindRetries
	}
	if c.CompensationAttempts != nil {
		config.CompensationAttempts = *c.CompensationAttempts
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
