package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
)

// ClientConfig holds settings of the command-line client.
type ClientConfig struct {
	APIURL    string        `env:"ABACUS_API_URL" envDefault:"http://localhost:8080"`
	TokenFile string        `env:"ABACUS_TOKEN_FILE"`
	Timeout   time.Duration `env:"ABACUS_TIMEOUT" envDefault:"10s"`
}

// LoadClient parses the client environment. The token file defaults to
// abacus/session under the user config directory.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}

	if cfg.TokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		cfg.TokenFile = filepath.Join(dir, "abacus", "session")
	}

	return cfg, nil
}
