// Package certs manages the self-signed certificate used when the dashboard
// backend serves HTTPS locally.
package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	certName = "server.crt"
	keyName  = "server.key"

	// Validity is how long a generated certificate lasts.
	Validity = 365 * 24 * time.Hour

	// renewBefore regenerates certificates this close to expiry.
	renewBefore = 7 * 24 * time.Hour
)

// FileManager keeps a certificate and key pair in a directory.
type FileManager struct {
	dir   string
	hosts []string
	now   func() time.Time
}

// NewFileManager manages server.crt and server.key in dir. The certificate
// covers localhost and loopback plus any extra hosts, which may be names or
// IP addresses.
func NewFileManager(dir string, hosts ...string) *FileManager {
	all := append([]string{"localhost", "127.0.0.1", "::1"}, hosts...)
	return &FileManager{dir: dir, hosts: all, now: time.Now}
}

// CertFile returns the certificate path.
func (m *FileManager) CertFile() string { return filepath.Join(m.dir, certName) }

// KeyFile returns the private key path.
func (m *FileManager) KeyFile() string { return filepath.Join(m.dir, keyName) }

// TLSConfig loads the pair, generating a new one when it is missing,
// unreadable, expiring or does not cover every host.
func (m *FileManager) TLSConfig() (*tls.Config, error) {
	cert, err := m.load()
	if err != nil {
		if cert, err = m.generate(); err != nil {
			return nil, err
		}
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func (m *FileManager) load() (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(m.CertFile(), m.KeyFile())
	if err != nil {
		return tls.Certificate{}, err
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return tls.Certificate{}, err
	}
	if m.now().Add(renewBefore).After(leaf.NotAfter) {
		return tls.Certificate{}, errors.New("certificate expiring")
	}
	for _, h := range m.hosts {
		if err := leaf.VerifyHostname(h); err != nil {
			return tls.Certificate{}, err
		}
	}
	cert.Leaf = leaf
	return cert, nil
}

func (m *FileManager) generate() (tls.Certificate, error) {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate directory: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate serial: %w", err)
	}

	now := m.now()
	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"FinSight"}, CommonName: "localhost"},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(Validity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range m.hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to encode key: %w", err)
	}

	if err := writePEM(m.CertFile(), "CERTIFICATE", der); err != nil {
		return tls.Certificate{}, err
	}
	if err := writePEM(m.KeyFile(), "EC PRIVATE KEY", keyDER); err != nil {
		return tls.Certificate{}, err
	}
	return m.load()
}

func writePEM(path, blockType string, der []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
