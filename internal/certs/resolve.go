package certs

import (
	"crypto/tls"
	"fmt"
)

// Mode is how the server ends up serving.
type Mode int

// Serving modes.
const (
	ModePlain Mode = iota
	ModeFiles
	ModeSelfSigned
)

func (m Mode) String() string {
	switch m {
	case ModeFiles:
		return "https"
	case ModeSelfSigned:
		return "https (self-signed)"
	default:
		return "http"
	}
}

// Options selects the TLS source.
type Options struct {
	CertFile   string
	KeyFile    string
	Enabled    bool
	SelfSigned bool
}

// Resolve picks the TLS configuration for the server. Configured
// certificate files win; without them a self-signed certificate is used
// when allowed, and plain HTTP otherwise. A nil config means plain HTTP.
func Resolve(opts Options, selfSigned Manager) (*tls.Config, Mode, error) {
	if !opts.Enabled {
		return nil, ModePlain, nil
	}

	if opts.CertFile != "" && opts.KeyFile != "" {
		certOK, err := fileExists(opts.CertFile)
		if err != nil {
			return nil, ModePlain, err
		}
		keyOK, err := fileExists(opts.KeyFile)
		if err != nil {
			return nil, ModePlain, err
		}
		if certOK && keyOK {
			cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
			if err != nil {
				return nil, ModePlain, fmt.Errorf("failed to load TLS key pair: %w", err)
			}
			return serverConfig(cert), ModeFiles, nil
		}
	}

	if opts.SelfSigned && selfSigned != nil {
		cert, err := selfSigned.GetOrCreateCertificate()
		if err != nil {
			return nil, ModePlain, fmt.Errorf("failed to prepare self-signed certificate: %w", err)
		}
		return serverConfig(cert), ModeSelfSigned, nil
	}

	return nil, ModePlain, nil
}

func serverConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
}
