package config

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Load reads the node configuration from path. If the file does not exist
// it runs the interactive Setup on stdin to create it. The returned config
// has been validated.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		log.WithField("caller", "config").Infof("%s not found: starting interactive setup", path)
		cfg, err := Setup(path, os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("setup config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a dev satellite config with self-signed DTLS.
func Default() *Config {
	cfg := &Config{}
	cfg.Node.Role = "satellite"
	cfg.Node.ChainID = 1001
	cfg.Node.Address = "0x0000000000000000000000000000000000001001"
	cfg.Node.Env = "dev"
	cfg.Node.LogLevel = "info"
	cfg.Node.Listen = "0.0.0.0:4501"
	cfg.Node.Fee = "0"

	cfg.Node.DTLS.Certs.Mode = "self_signed"
	cfg.Node.DTLS.Security.ClientAuth = "no_client_cert"
	cfg.Node.DTLS.Security.ExtendedMasterSecret = "request"
	cfg.Node.DTLS.Tuning.MTU = 1200
	cfg.Node.DTLS.Tuning.ReplayProtectionWindow = 64
	return cfg
}

// WriteDefaultConfig writes Default() to path.
func WriteDefaultConfig(path string) error {
	return SaveConfig(Default(), path)
}
