// Package certs decides how the HTTP server terminates TLS and can mint a
// self-signed localhost certificate when no real one is configured.
package certs

import (
	"crypto/rand"
	"crypto/rsa"
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

// certValidity is how long a generated certificate stays valid.
const certValidity = 365 * 24 * time.Hour

// Manager supplies a certificate for serving.
type Manager interface {
	GetOrCreateCertificate() (tls.Certificate, error)
}

// FileManager keeps a self-signed localhost certificate in a directory.
type FileManager struct {
	certDir  string
	certFile string
	keyFile  string
}

// NewFileManager creates a new FileManager with the specified certificate directory.
func NewFileManager(certDir string) *FileManager {
	return &FileManager{
		certDir:  certDir,
		certFile: filepath.Join(certDir, "localhost.crt"),
		keyFile:  filepath.Join(certDir, "localhost.key"),
	}
}

// GetOrCreateCertificate returns the stored certificate while it is usable
// and generates a replacement otherwise.
func (m *FileManager) GetOrCreateCertificate() (tls.Certificate, error) {
	exists, err := m.CertificateExists()
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to check certificate existence: %w", err)
	}

	if exists {
		cert, loadErr := tls.LoadX509KeyPair(m.certFile, m.keyFile)
		if loadErr == nil && verifyCertificate(cert) == nil {
			return cert, nil
		}
		if err := m.removeCertificates(); err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to remove invalid certificate: %w", err)
		}
	}

	return m.generateCertificate()
}

// CertificateExists checks if both certificate and key files exist.
func (m *FileManager) CertificateExists() (bool, error) {
	for _, path := range []string{m.certFile, m.keyFile} {
		ok, err := fileExists(path)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (m *FileManager) generateCertificate() (tls.Certificate, error) {
	if err := os.MkdirAll(m.certDir, 0700); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate directory: %w", err)
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate private key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"finlens"},
			CommonName:   "localhost",
		},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:              []string{"localhost", "*.localhost"},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate: %w", err)
	}

	if err := writePEM(m.certFile, "CERTIFICATE", certDER); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to write certificate: %w", err)
	}
	if err := writePEM(m.keyFile, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(priv)); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to write private key: %w", err)
	}

	return tls.LoadX509KeyPair(m.certFile, m.keyFile)
}

func (m *FileManager) removeCertificates() error {
	for _, path := range []string{m.certFile, m.keyFile} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

// verifyCertificate checks that cert is currently valid for localhost.
func verifyCertificate(cert tls.Certificate) error {
	if len(cert.Certificate) == 0 {
		return errors.New("no certificates found")
	}

	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}

	now := time.Now()
	if now.Before(x509Cert.NotBefore) {
		return errors.New("certificate not yet valid")
	}
	if now.After(x509Cert.NotAfter) {
		return errors.New("certificate has expired")
	}

	if err := x509Cert.VerifyHostname("localhost"); err != nil {
		return fmt.Errorf("certificate not valid for localhost: %w", err)
	}
	return nil
}

func writePEM(path, blockType string, der []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func fileExists(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check %s: %w", path, err)
	}
	return true, nil
}
