// Package config handles configuration for the auth server, layering
// defaults, an optional JSON file, the environment (with .env support) and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds runtime settings for the auth server.
//
// Fields:
//   - EndpointAddrGRPC: bind address of the command channel endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx); "memory://" selects the in-memory store.
//   - UsersServiceAddr: gRPC target of the users (profile) service.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Required.
//   - TokenValidityDuration: lifetime of issued tokens.
//   - PasswordHashCost: bcrypt cost.
//   - ProfileCallTimeout / ProfileFindRetries: users service call policy.
//   - CompensationAttempts / CompensationTimeout: rollback policy of a failed registration.
//   - S3*: orphan journal bucket; an empty S3Bucket keeps orphans in the logs only.
type Config struct {
	EndpointAddrGRPC      string        `env:"GRPC_ADDR"`
	DatabaseDSN           string        `env:"DATABASE_URL"`
	UsersServiceAddr      string        `env:"USERS_SERVICE_ADDR"`
	SecretKey             string        `env:"JWT_SECRET"`
	TokenValidityDuration time.Duration `env:"TOKEN_TTL"`
	PasswordHashCost      int           `env:"BCRYPT_COST"`
	ProfileCallTimeout    time.Duration `env:"PROFILE_CALL_TIMEOUT"`
	ProfileFindRetries    int           `env:"PROFILE_FIND_RETRIES"`
	CompensationAttempts  int           `env:"COMPENSATION_ATTEMPTS"`
	CompensationTimeout   time.Duration `env:"COMPENSATION_TIMEOUT"`
	LogLevel              string        `env:"LOG_LEVEL"`
	S3RootUser            string        `env:"S3_ROOT_USER"`
	S3RootPassword        string        `env:"S3_ROOT_PASSWORD"`
	S3Bucket              string        `env:"S3_BUCKET"`
	S3Region              string        `env:"S3_REGION"`
	S3BaseEndpoint        string        `env:"S3_BASE_ENDPOINT"`
	S3OrphanPrefix        string        `env:"S3_ORPHAN_PREFIX"`
}

// LoadDefaults populates Config with development defaults. SecretKey has
// no default and must be supplied.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = "memory://"
	c.UsersServiceAddr = "localhost:50052"
	c.TokenValidityDuration = 2 * time.Hour
	c.PasswordHashCost = 10
	c.ProfileCallTimeout = 5 * time.Second
	c.ProfileFindRetries = 2
	c.CompensationAttempts = 3
	c.CompensationTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.S3Region = "us-east-1"
	c.S3OrphanPrefix = "orphans/"
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("JWT secret is required"))
	}
	if c.UsersServiceAddr == "" {
		errs = append(errs, errors.New("users service address is required"))
	}
	if c.TokenValidityDuration <= 0 {
		errs = append(errs, fmt.Errorf("token validity must be positive, got %s", c.TokenValidityDuration))
	}
	if c.PasswordHashCost < 4 || c.PasswordHashCost > 31 {
		errs = append(errs, fmt.Errorf("bcrypt cost must be within 4..31, got %d", c.PasswordHashCost))
	}
	if c.ProfileCallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("profile call timeout must be positive, got %s", c.ProfileCallTimeout))
	}
	if c.ProfileFindRetries < 0 {
		errs = append(errs, fmt.Errorf("profile find retries must not be negative, got %d", c.ProfileFindRetries))
	}
	if c.CompensationAttempts < 1 {
		errs = append(errs, fmt.Errorf("compensation attempts must be at least 1, got %d", c.CompensationAttempts))
	}
	if c.CompensationTimeout <= 0 {
		errs = append(errs, fmt.Errorf("compensation timeout must be positive, got %s", c.CompensationTimeout))
	}

	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line
// flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
