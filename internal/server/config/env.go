package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// portEnv carries PORT, which sets only the port of the bind address.
type portEnv struct {
	Port string `env:"PORT"`
}

// dotenvFiles are loaded, when present, before the environment is read.
// Variables already set in the process environment win.
var dotenvFiles = []string{".env"}

// parseEnv overlays variables from the environment. Unset variables leave
// the current value alone; GRPC_ADDR wins over PORT. Malformed values panic.
func parseEnv(config *Config) {
	for _, f := range dotenvFiles {
		_ = godotenv.Load(f)
	}

	var p portEnv
	if err := env.Parse(&p); err != nil {
		panic(fmt.Errorf("parse env: %w", err))
	}
	if p.Port != "" {
		config.EndpointAddrGRPC = ":" + p.Port
	}

	if err := env.Parse(config); err != nil {
		panic(fmt.Errorf("parse env: %w", err))
	}
}
