// Package tls builds the server TLS configuration, either from a key pair on
// disk or from an in-memory self-signed certificate for local development.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"math/big"
	"net"
	"time"
)

// Config holds TLS certificate paths. Leaving both empty selects a
// self-signed certificate.
type Config struct {
	CertFile string
	KeyFile  string
}

// SelfSigned reports whether the config falls back to a generated certificate.
func (c Config) SelfSigned() bool {
	return c.CertFile == "" && c.KeyFile == ""
}

// LoadTLSConfig returns a TLS 1.2+ server configuration.
func LoadTLSConfig(cfg Config) (*tls.Config, error) {
	var (
		cert tls.Certificate
		err  error
	)

	switch {
	case cfg.SelfSigned():
		cert, err = generateSelfSigned(time.Now())
	case cfg.CertFile == "" || cfg.KeyFile == "":
		return nil, errors.New("both cert and key files are required")
	default:
		cert, err = tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// generateSelfSigned creates a one-year ECDSA certificate for localhost.
func generateSelfSigned(now time.Time) (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, err
	}

	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"checkin-offers-api"}, CommonName: "localhost"},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.IPv6loopback},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, err
	}

	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return tls.Certificate{}, err
	}

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
		Leaf:        leaf,
	}, nil
}
