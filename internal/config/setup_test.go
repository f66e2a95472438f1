package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.yml")

	cfg := &Config{}
	cfg.Node.Role = "master"
	cfg.Node.ChainID = 123
	cfg.Node.Env = "prod"
	cfg.Node.Remotes = []Remote{{ChainID: 1001, Address: "0x00000000000000000000000000000000000003e9", Endpoint: "127.0.0.1:4501"}}

	err := SaveConfig(cfg, configPath)
	require.NoError(t, err)

	loadedCfg := &Config{}
	f, err := os.Open(configPath)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, yaml.NewDecoder(f).Decode(loadedCfg))

	assert.Equal(t, "master", loadedCfg.Node.Role)
	assert.Equal(t, uint32(123), loadedCfg.Node.ChainID)
	assert.Equal(t, "prod", loadedCfg.Node.Env)
	assert.Equal(t, cfg.Node.Remotes, loadedCfg.Node.Remotes)
}

func TestSaveConfig_WriteError(t *testing.T) {
	err := SaveConfig(&Config{}, "/nonexistent/path/test_config.yml")
	assert.Error(t, err)
}

func TestSetup_Answers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node_config.yml")
	answers := strings.Join([]string{
		"master", // role
		"123",    // chain id
		"0x000000000000000000000000000000000000007b",
		"prod",
		"debug",
		"127.0.0.1:4500",
		"1000",
		"y", // add a remote
		"1001",
		"0x00000000000000000000000000000000000003e9",
		"127.0.0.1:4501",
		"n", // no more remotes
		"",  // cert mode default
		"",  // client auth default
		"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256, TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384",
		"require",
	}, "\n") + "\n"

	cfg, err := Setup(path, strings.NewReader(answers))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "master", cfg.Node.Role)
	assert.Equal(t, uint32(123), cfg.Node.ChainID)
	assert.Equal(t, "prod", cfg.Node.Env)
	assert.Equal(t, "debug", cfg.Node.LogLevel)
	assert.Equal(t, "1000", cfg.Node.Fee)
	require.Len(t, cfg.Node.Remotes, 1)
	assert.Equal(t, uint32(1001), cfg.Node.Remotes[0].ChainID)
	assert.Equal(t, "127.0.0.1:4501", cfg.Node.Remotes[0].Endpoint)
	assert.Equal(t, "self_signed", cfg.Node.DTLS.Certs.Mode)
	assert.Len(t, cfg.Node.DTLS.Security.CipherSuites, 2)
	assert.Equal(t, "require", cfg.Node.DTLS.Security.ExtendedMasterSecret)
	// Input ran out, tuning keeps its defaults.
	assert.Equal(t, 1200, cfg.Node.DTLS.Tuning.MTU)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSetup_EmptyInputUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node_config.yml")
	cfg, err := Setup(path, strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSetup_InvalidAnswersFallBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node_config.yml")
	answers := "owner\nabc\nnot-an-address\n"
	cfg, err := Setup(path, strings.NewReader(answers))
	require.NoError(t, err)
	assert.Equal(t, "satellite", cfg.Node.Role)
	assert.Equal(t, uint32(1001), cfg.Node.ChainID)
	assert.Equal(t, Default().Node.Address, cfg.Node.Address)
}

func TestParseStringSlice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"simple", "a,b,c", []string{"a", "b", "c"}},
		{"with spaces", "a, b, c", []string{"a", "b", "c"}},
		{"empty", "", []string{}},
		{"single", "a", []string{"a"}},
		{"with empty parts", "a,,b", []string{"a", "b"}},
		{"whitespace only", "   ,  ,  ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseStringSlice(tt.input))
		})
	}
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		name    string
		portStr string
		wantErr bool
	}{
		{"valid", "8080", false},
		{"ephemeral", "0", false},
		{"max valid", "65535", false},
		{"negative", "-1", true},
		{"too large", "65536", true},
		{"invalid format", "abc", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePort(tt.portStr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateHost(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		wantErr bool
	}{
		{"valid IPv4", "127.0.0.1", false},
		{"valid IPv6", "::1", false},
		{"valid hostname", "localhost", false},
		{"valid hostname with domain", "example.com", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 254), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateHost(tt.host)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
