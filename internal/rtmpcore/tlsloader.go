// TLS certificate loading for RTMPS accept (proxy -c/-k flags, stub TLS
// accept). The mtime-polling reload loop is delegated to the
// go-tls-certificate-loader library, so certificate rotation never
// requires restarting a listener.

package rtmpcore

import (
	"crypto/tls"
	"time"

	certloader "github.com/AgustinSRG/go-tls-certificate-loader"
)

// TLSLoader wraps the certificate loader used for every TLS listener in
// this repo (the proxy's -c/-k flags and the stub's equivalent).
type TLSLoader struct {
	loader *certloader.TlsCertificateLoader
}

// NewTLSLoader loads certPath/keyPath immediately and starts a
// background reload check every checkReloadSeconds.
func NewTLSLoader(certPath, keyPath string, checkReloadSeconds int) (*TLSLoader, error) {
	loader, err := certloader.NewTlsCertificateLoader(certloader.TlsCertificateLoaderConfig{
		CertificatePath:   certPath,
		KeyPath:           keyPath,
		CheckReloadPeriod: time.Duration(checkReloadSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return &TLSLoader{loader: loader}, nil
}

// TLSConfig builds a tls.Config whose GetCertificate always returns the
// loader's current certificate, reflecting reloads without restarting
// the listener.
func (t *TLSLoader) TLSConfig() *tls.Config {
	return &tls.Config{GetCertificate: t.loader.GetCertificate}
}
