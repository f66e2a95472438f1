// Package config provides interactive setup functionality.
package config

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"
)

// Setup runs an interactive setup reading answers from in, one per line,
// and saves the result to path. An empty answer takes the default.
func Setup(path string, in io.Reader) (*Config, error) {
	p := newPrompter(in, os.Stdout)
	p.say("=== Node Configuration Setup ===\n\n")

	cfg := Default()
	n := &cfg.Node

	p.say("--- Node ---\n")
	n.Role = p.choice("Role", []string{"master", "satellite"}, n.Role)
	n.ChainID = uint32(p.integer("Chain ID", int(n.ChainID)))
	n.Address = p.address("Address", n.Address)
	n.Env = p.choice("Environment", []string{"dev", "prod"}, n.Env)
	n.LogLevel = p.choice("Log level", []string{"debug", "info", "warn", "error"}, n.LogLevel)
	n.Listen = p.str("Listen address (host:port)", n.Listen)
	n.Fee = p.str("Fee per message (decimal)", n.Fee)
	p.say("\n")

	p.say("--- Remotes ---\n")
	for p.yesNo("Add a remote", false) {
		var r Remote
		r.ChainID = uint32(p.integer("  Remote chain ID", 0))
		r.Address = p.address("  Remote address", "")
		r.Endpoint = p.str("  Remote endpoint (host:port, optional)", "")
		n.Remotes = append(n.Remotes, r)
	}
	p.say("\n")

	p.say("--- DTLS Certificates ---\n")
	n.DTLS.Certs.Mode = p.choice("Certificate mode", []string{"self_signed", "files"}, n.DTLS.Certs.Mode)
	if n.DTLS.Certs.Mode == "files" {
		n.DTLS.Certs.Path = p.str("Certificate path", "certs/")
		n.DTLS.Certs.Cert = p.str("Certificate file", "node.crt")
		n.DTLS.Certs.Key = p.str("Key file", "node.key")
		n.DTLS.Certs.CA = p.str("CA file (optional, press Enter to skip)", "")
	}
	p.say("\n")

	p.say("--- DTLS Security ---\n")
	n.DTLS.Security.ClientAuth = p.choice("Client authentication", []string{
		"no_client_cert",
		"request_client_cert",
		"require_any_client_cert",
		"verify_client_cert_if_given",
		"require_and_verify_client_cert",
	}, n.DTLS.Security.ClientAuth)
	if suites := p.str("Cipher suites (comma-separated, optional, press Enter to skip)", ""); suites != "" {
		n.DTLS.Security.CipherSuites = parseStringSlice(suites)
	}
	n.DTLS.Security.ExtendedMasterSecret = p.choice("Extended Master Secret", []string{"request", "require", "disable"}, n.DTLS.Security.ExtendedMasterSecret)
	p.say("\n")

	p.say("--- DTLS Tuning ---\n")
	n.DTLS.Tuning.MTU = p.integer("MTU", n.DTLS.Tuning.MTU)
	n.DTLS.Tuning.ReplayProtectionWindow = p.integer("Replay Protection Window", n.DTLS.Tuning.ReplayProtectionWindow)
	n.DTLS.Tuning.FlightInterval = p.str("Flight Interval (e.g., '1s', optional, press Enter to skip)", "")
	n.DTLS.Tuning.InsecureSkipVerifyHello = p.yesNo("Insecure Skip Verify Hello (DoS risk)", false)
	p.say("\n")

	p.say(fmt.Sprintf("Saving configuration to %s...\n", path))
	if err := SaveConfig(cfg, path); err != nil {
		return nil, fmt.Errorf("save config: %w", err)
	}
	p.say("Configuration saved successfully!\n\n")
	return cfg, nil
}

// SaveConfig saves a Config to a YAML file.
func SaveConfig(cfg *Config, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := yaml.NewEncoder(f)
	defer encoder.Close()
	return encoder.Encode(cfg)
}

// prompter reads answers line by line. Once the input is exhausted every
// prompt takes its default.
type prompter struct {
	r   *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{r: bufio.NewReader(in), out: out}
}

func (p *prompter) say(s string) {
	fmt.Fprint(p.out, s)
}

func (p *prompter) line() (string, bool) {
	input, err := p.r.ReadString('\n')
	if err != nil && input == "" {
		return "", false
	}
	input = strings.TrimSpace(input)
	return input, input != ""
}

// str prompts for a string value with a default.
func (p *prompter) str(prompt, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", prompt, defaultVal)
	} else {
		fmt.Fprintf(p.out, "%s: ", prompt)
	}
	input, ok := p.line()
	if !ok {
		return defaultVal
	}
	return input
}

// integer prompts for an integer value with validation and a default.
func (p *prompter) integer(prompt string, defaultVal int) int {
	fmt.Fprintf(p.out, "%s [%d]: ", prompt, defaultVal)
	input, ok := p.line()
	if !ok {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil {
		fmt.Fprintf(p.out, "Invalid integer, using default %d\n", defaultVal)
		return defaultVal
	}
	return val
}

// choice prompts for one of choices with a default.
func (p *prompter) choice(prompt string, choices []string, defaultVal string) string {
	fmt.Fprintf(p.out, "%s (%s) [%s]: ", prompt, strings.Join(choices, "/"), defaultVal)
	input, ok := p.line()
	if !ok {
		return defaultVal
	}
	for _, c := range choices {
		if strings.EqualFold(input, c) {
			return c
		}
	}
	fmt.Fprintf(p.out, "Invalid choice, using default %s\n", defaultVal)
	return defaultVal
}

// yesNo prompts for a boolean value (y/n) with a default.
func (p *prompter) yesNo(prompt string, defaultVal bool) bool {
	def := "n"
	if defaultVal {
		def = "y"
	}
	fmt.Fprintf(p.out, "%s (y/n) [%s]: ", prompt, def)
	input, ok := p.line()
	if !ok {
		return defaultVal
	}
	input = strings.ToLower(input)
	return input == "y" || input == "yes"
}

// address prompts until a hex address is given. The default is kept when
// the input is exhausted.
func (p *prompter) address(prompt, defaultVal string) string {
	for {
		v := p.str(prompt, defaultVal)
		if common.IsHexAddress(v) {
			return v
		}
		fmt.Fprintf(p.out, "Invalid address %q\n", v)
		if _, err := p.r.Peek(1); err != nil {
			return defaultVal
		}
	}
}

// parseStringSlice parses a comma-separated string into a slice of strings.
func parseStringSlice(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// validatePort validates a port number string.
func validatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %w", err)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535")
	}
	return nil
}

// validateHost validates a host string (IP address or hostname).
func validateHost(host string) error {
	if host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if ip := net.ParseIP(host); ip != nil {
		return nil
	}
	if len(host) > 253 {
		return fmt.Errorf("hostname too long")
	}
	return nil
}
