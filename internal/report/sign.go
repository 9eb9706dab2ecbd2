package report

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// Signer computes an enveloped signature over serialized reports using the
// server's certificate key pair.
type Signer struct {
	key  *rsa.PrivateKey
	cert []byte // DER
}

// NewSignerFromFiles loads a PEM certificate and PEM private key.
func NewSignerFromFiles(certPath, keyPath string) (*Signer, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	return NewSigner(certPEM, keyPEM)
}

// NewSigner constructs a Signer from PEM-encoded certificate and key.
func NewSigner(certPEM, keyPEM []byte) (*Signer, error) {
	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return nil, errors.New("certificate is not PEM")
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return nil, errors.New("private key is not PEM")
	}
	key, err := parsePrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &Signer{key: key, cert: certBlock.Bytes}, nil
}

func parsePrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return key, nil
}

// Sign returns the base64 RSA-SHA256 signature of data.
func (s *Signer) Sign(data []byte) (string, error) {
	digest := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// CertificateBase64 returns the DER certificate, base64-encoded, for
// embedding next to the signature value.
func (s *Signer) CertificateBase64() string {
	return base64.StdEncoding.EncodeToString(s.cert)
}

// PublicKey exposes the verification key; used by tests.
func (s *Signer) PublicKey() *rsa.PublicKey {
	return &s.key.PublicKey
}
