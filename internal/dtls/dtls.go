// Package dtls builds pion DTLS configs for the node listener and for
// outbound connections to remotes.
package dtls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SteamyCutie/layerzero-concept/internal/config"
	"github.com/pion/dtls/v3"
	"github.com/pion/dtls/v3/pkg/crypto/selfsign"
)

var (
	cipherSuiteMap = map[string]dtls.CipherSuiteID{
		"TLS_ECDHE_ECDSA_WITH_AES_128_CCM":        dtls.TLS_ECDHE_ECDSA_WITH_AES_128_CCM,
		"TLS_ECDHE_ECDSA_WITH_AES_128_CCM_8":      dtls.TLS_ECDHE_ECDSA_WITH_AES_128_CCM_8,
		"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256": dtls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256":   dtls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		"TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384": dtls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384":   dtls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		"TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA":    dtls.TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA,
		"TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA":      dtls.TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA,
		"TLS_PSK_WITH_AES_128_CCM":                dtls.TLS_PSK_WITH_AES_128_CCM,
		"TLS_PSK_WITH_AES_128_CCM_8":              dtls.TLS_PSK_WITH_AES_128_CCM_8,
		"TLS_PSK_WITH_AES_256_CCM_8":              dtls.TLS_PSK_WITH_AES_256_CCM_8,
		"TLS_PSK_WITH_AES_128_GCM_SHA256":         dtls.TLS_PSK_WITH_AES_128_GCM_SHA256,
		"TLS_PSK_WITH_AES_128_CBC_SHA256":         dtls.TLS_PSK_WITH_AES_128_CBC_SHA256,
		"TLS_ECDHE_PSK_WITH_AES_128_CBC_SHA256":   dtls.TLS_ECDHE_PSK_WITH_AES_128_CBC_SHA256,
	}

	clientAuthMap = map[string]dtls.ClientAuthType{
		"no_client_cert":                 dtls.NoClientCert,
		"request_client_cert":            dtls.RequestClientCert,
		"require_any_client_cert":        dtls.RequireAnyClientCert,
		"verify_client_cert_if_given":    dtls.VerifyClientCertIfGiven,
		"require_and_verify_client_cert": dtls.RequireAndVerifyClientCert,
	}

	extendedMasterSecretMap = map[string]dtls.ExtendedMasterSecretType{
		"request": dtls.RequestExtendedMasterSecret,
		"require": dtls.RequireExtendedMasterSecret,
		"disable": dtls.DisableExtendedMasterSecret,
	}
)

func clientAuthRequiresClientCAs(t dtls.ClientAuthType) bool {
	return t != dtls.NoClientCert
}

// material is what both configs are built from.
type material struct {
	mode      string
	certs     []tls.Certificate
	caPool    *x509.CertPool
	parsed    parsedDTLS
	verifyTLS bool
}

// NewServerConfig builds the listener config from cfg.Node.DTLS.
// If dtls.certs.mode is empty: env=="dev" -> "self_signed", else "files".
func NewServerConfig(cfg *config.Config) (*dtls.Config, error) {
	m, err := loadMaterial(cfg)
	if err != nil {
		return nil, err
	}
	var clientCAs *x509.CertPool
	if clientAuthRequiresClientCAs(m.parsed.clientAuth) {
		if m.mode == "self_signed" {
			return nil, fmt.Errorf("dtls.certs: in self_signed mode client_auth must be no_client_cert; use mode=files with ca for client verification")
		}
		if m.caPool == nil {
			return nil, fmt.Errorf("dtls.certs: client_auth %q requires ca", cfg.Node.DTLS.Security.ClientAuth)
		}
		clientCAs = m.caPool
	}
	return dtlsConfigFromParsed(m.parsed, m.certs, clientCAs), nil
}

// NewClientConfig builds the config used to dial remotes. Remote certificates
// are verified against dtls.certs.ca when it is set; otherwise, and always in
// self_signed mode, verification is skipped.
func NewClientConfig(cfg *config.Config) (*dtls.Config, error) {
	m, err := loadMaterial(cfg)
	if err != nil {
		return nil, err
	}
	out := dtlsConfigFromParsed(m.parsed, m.certs, nil)
	out.ClientAuth = dtls.NoClientCert
	if m.verifyTLS {
		out.RootCAs = m.caPool
	} else {
		out.InsecureSkipVerify = true
	}
	return out, nil
}

func loadMaterial(cfg *config.Config) (*material, error) {
	d := &cfg.Node.DTLS
	m := &material{mode: d.Certs.Mode}
	if m.mode == "" {
		if cfg.Node.Env == "dev" {
			m.mode = "self_signed"
		} else {
			m.mode = "files"
		}
	}

	switch m.mode {
	case "self_signed":
		cert, err := selfsign.GenerateSelfSigned()
		if err != nil {
			return nil, fmt.Errorf("dtls.certs: self_signed: %w", err)
		}
		m.certs = []tls.Certificate{cert}
	case "files":
		if d.Certs.Path == "" || d.Certs.Cert == "" || d.Certs.Key == "" {
			return nil, fmt.Errorf("dtls.certs: mode=files requires path, cert and key")
		}
		cert, err := tls.LoadX509KeyPair(
			filepath.Join(d.Certs.Path, d.Certs.Cert),
			filepath.Join(d.Certs.Path, d.Certs.Key),
		)
		if err != nil {
			return nil, fmt.Errorf("dtls.certs: load keypair: %w", err)
		}
		m.certs = []tls.Certificate{cert}

		if d.Certs.CA != "" {
			pem, err := os.ReadFile(filepath.Join(d.Certs.Path, d.Certs.CA))
			if err != nil {
				return nil, fmt.Errorf("dtls.certs: read ca: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("dtls.certs: failed to append ca")
			}
			m.caPool = pool
			m.verifyTLS = true
		}
	default:
		return nil, fmt.Errorf("dtls.certs: unknown mode %q", m.mode)
	}

	cipherSuites, err := resolveCipherSuites(d.Security.CipherSuites)
	if err != nil {
		return nil, err
	}

	mtu := d.Tuning.MTU
	if mtu <= 0 {
		mtu = 1200
	}
	rpw := d.Tuning.ReplayProtectionWindow
	if rpw <= 0 {
		rpw = 64
	}

	var flightInterval time.Duration
	if d.Tuning.FlightInterval != "" {
		flightInterval, err = time.ParseDuration(d.Tuning.FlightInterval)
		if err != nil {
			return nil, fmt.Errorf("dtls.tuning: invalid flight_interval %q: %w", d.Tuning.FlightInterval, err)
		}
	}

	m.parsed = parsedDTLS{
		clientAuth:              resolveClientAuth(d.Security.ClientAuth),
		cipherSuites:            cipherSuites,
		extendedMasterSecret:    resolveExtendedMasterSecret(d.Security.ExtendedMasterSecret),
		mtu:                     mtu,
		replayProtectionWindow:  rpw,
		flightInterval:          flightInterval,
		insecureSkipVerifyHello: d.Tuning.InsecureSkipVerifyHello,
	}
	return m, nil
}

type parsedDTLS struct {
	clientAuth              dtls.ClientAuthType
	cipherSuites            []dtls.CipherSuiteID
	extendedMasterSecret    dtls.ExtendedMasterSecretType
	mtu                     int
	replayProtectionWindow  int
	flightInterval          time.Duration
	insecureSkipVerifyHello bool
}

func dtlsConfigFromParsed(p parsedDTLS, certs []tls.Certificate, clientCAs *x509.CertPool) *dtls.Config {
	out := &dtls.Config{
		Certificates:            certs,
		ClientAuth:              p.clientAuth,
		CipherSuites:            p.cipherSuites,
		ExtendedMasterSecret:    p.extendedMasterSecret,
		MTU:                     p.mtu,
		ReplayProtectionWindow:  p.replayProtectionWindow,
		InsecureSkipVerifyHello: p.insecureSkipVerifyHello,
		ClientCAs:               clientCAs,
	}
	if p.flightInterval > 0 {
		out.FlightInterval = p.flightInterval
	}
	return out
}

func resolveClientAuth(s string) dtls.ClientAuthType {
	if s == "" {
		return dtls.NoClientCert
	}
	if v, ok := clientAuthMap[s]; ok {
		return v
	}
	return dtls.NoClientCert
}

func resolveCipherSuites(ids []string) ([]dtls.CipherSuiteID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]dtls.CipherSuiteID, 0, len(ids))
	for _, id := range ids {
		v, ok := cipherSuiteMap[id]
		if !ok {
			return nil, fmt.Errorf("dtls.security: unknown cipher_suite %q", id)
		}
		out = append(out, v)
	}
	return out, nil
}

func resolveExtendedMasterSecret(s string) dtls.ExtendedMasterSecretType {
	if s == "" {
		return dtls.RequestExtendedMasterSecret
	}
	if v, ok := extendedMasterSecretMap[s]; ok {
		return v
	}
	return dtls.RequestExtendedMasterSecret
}
