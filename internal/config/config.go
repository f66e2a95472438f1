// Package config defines the node configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	log "github.com/sirupsen/logrus"
)

// DefaultPath is the config file used when none is given.
const DefaultPath = "node_config.yml"

// Remote is a peer chain this node trusts and can reach.
type Remote struct {
	ChainID  uint32 `yaml:"chain_id"`
	Address  string `yaml:"address"`
	Endpoint string `yaml:"endpoint,omitempty"` // host:port of the peer's DTLS listener
}

// Config represents the complete node configuration loaded from YAML.
type Config struct {
	Node struct {
		Role     string   `yaml:"role"` // master | satellite
		ChainID  uint32   `yaml:"chain_id"`
		Address  string   `yaml:"address"`
		Env      string   `yaml:"env,omitempty"`       // prod or dev; if nothing is set then prod
		LogLevel string   `yaml:"log_level,omitempty"` // logrus level, default info
		Listen   string   `yaml:"listen,omitempty"`    // host:port for the DTLS listener
		Fee      string   `yaml:"fee,omitempty"`       // decimal fee attached to every send
		Remotes  []Remote `yaml:"remotes,omitempty"`
		DTLS     struct {
			Certs struct {
				Mode string `yaml:"mode,omitempty"` // "self_signed" | "files"
				Path string `yaml:"path,omitempty"` // for mode=files
				Cert string `yaml:"cert,omitempty"`
				Key  string `yaml:"key,omitempty"`
				CA   string `yaml:"ca,omitempty"` // verifies peers when set
			} `yaml:"certs"`
			Security struct {
				ClientAuth           string   `yaml:"client_auth,omitempty"`            // no_client_cert | request_client_cert | require_any_client_cert | verify_client_cert_if_given | require_and_verify_client_cert
				CipherSuites         []string `yaml:"cipher_suites,omitempty"`          // optional, nil/empty = Pion default
				ExtendedMasterSecret string   `yaml:"extended_master_secret,omitempty"` // request | require | disable
			} `yaml:"security"`
			Tuning struct {
				MTU                     int    `yaml:"mtu,omitempty"`                        // default 1200
				ReplayProtectionWindow  int    `yaml:"replay_protection_window,omitempty"`   // default 64
				FlightInterval          string `yaml:"flight_interval,omitempty"`            // e.g., "1s", optional
				InsecureSkipVerifyHello bool   `yaml:"insecure_skip_verify_hello,omitempty"` // DoS risk, only for special cases
			} `yaml:"tuning"`
		} `yaml:"dtls"`
	} `yaml:"node"`
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks the fields a node cannot start without.
func (c *Config) Validate() error {
	n := &c.Node
	switch n.Role {
	case "master", "satellite":
	default:
		return fmt.Errorf("%w: node.role %q must be master or satellite", ErrInvalid, n.Role)
	}
	if n.ChainID == 0 {
		return fmt.Errorf("%w: node.chain_id must be set", ErrInvalid)
	}
	if !common.IsHexAddress(n.Address) {
		return fmt.Errorf("%w: node.address %q is not a hex address", ErrInvalid, n.Address)
	}
	if n.Listen != "" {
		if err := validateHostPort(n.Listen); err != nil {
			return fmt.Errorf("%w: node.listen: %w", ErrInvalid, err)
		}
	}
	if _, err := c.FeeAmount(); err != nil {
		return fmt.Errorf("%w: node.fee: %w", ErrInvalid, err)
	}
	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("%w: node.log_level: %w", ErrInvalid, err)
	}
	seen := make(map[uint32]bool, len(n.Remotes))
	for i, r := range n.Remotes {
		if r.ChainID == 0 {
			return fmt.Errorf("%w: node.remotes[%d]: chain_id must be set", ErrInvalid, i)
		}
		if seen[r.ChainID] {
			return fmt.Errorf("%w: node.remotes[%d]: duplicate chain_id %d", ErrInvalid, i, r.ChainID)
		}
		seen[r.ChainID] = true
		if !common.IsHexAddress(r.Address) {
			return fmt.Errorf("%w: node.remotes[%d]: address %q is not a hex address", ErrInvalid, i, r.Address)
		}
		if r.Endpoint != "" {
			if err := validateHostPort(r.Endpoint); err != nil {
				return fmt.Errorf("%w: node.remotes[%d]: endpoint: %w", ErrInvalid, i, err)
			}
		}
	}
	return nil
}

// NodeAddress returns node.address parsed.
func (c *Config) NodeAddress() common.Address {
	return common.HexToAddress(c.Node.Address)
}

// FeeAmount parses node.fee. An empty fee is zero.
func (c *Config) FeeAmount() (*uint256.Int, error) {
	if strings.TrimSpace(c.Node.Fee) == "" {
		return new(uint256.Int), nil
	}
	return uint256.FromDecimal(strings.TrimSpace(c.Node.Fee))
}

// LogLevel parses node.log_level. An empty level is info.
func (c *Config) LogLevel() (log.Level, error) {
	if c.Node.LogLevel == "" {
		return log.InfoLevel, nil
	}
	return log.ParseLevel(c.Node.LogLevel)
}

func validateHostPort(hostport string) error {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return err
	}
	if host != "" {
		if err := validateHost(host); err != nil {
			return err
		}
	}
	return validatePort(port)
}
