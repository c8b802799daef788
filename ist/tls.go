package ist

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/dutow/galera/internal/config"
)

// buildTLSConfig loads the cert/key/CA triple from a TLSConfig via
// tls.LoadX509KeyPair, the call the teacher uses for its replication TLS
// material, plus a CA pool for mutual auth.
func buildTLSConfig(c config.TLSConfig) (*tls.Config, error) {
	if !c.Enabled {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, errors.Wrap(err, "ist: failed to load TLS certificate")
	}

	pool := x509.NewCertPool()
	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, errors.Wrap(err, "ist: failed to read CA file")
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("ist: no certificates parsed from %s", c.CAFile)
		}
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientCAs:    pool,
		RootCAs:      pool,
		// Presence of a client certificate is enforced in verifyPeerPresented,
		// gated on the peer's protocol version, not unconditionally here: a
		// pre-VerPeerCertCheck sender is known to sometimes connect without one.
		ClientAuth: tls.VerifyClientCertIfGiven,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// verifyPeerPresented enforces the version-gated peer certificate check: a
// sender speaking protocol version < VerPeerCertCheck is known to
// sometimes connect without presenting a client certificate, a bug fixed
// in VerPeerCertCheck. Below that version the check is skipped entirely
// rather than risk refusing a legitimate old peer; at or above it, a
// connection with zero peer certificates is rejected.
func verifyPeerPresented(state tls.ConnectionState, peerVersion uint8) error {
	if peerVersion < VerPeerCertCheck {
		return nil
	}
	if len(state.PeerCertificates) == 0 {
		return fmt.Errorf("ist: peer presented no certificate (protocol version %d requires one)", peerVersion)
	}
	return nil
}
