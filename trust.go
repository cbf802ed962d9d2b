// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
)

var errNoPeerCertificates = errors.New("requests: server presented no certificates")

// tlsConfig returns the client TLS configuration of the Session's
// transport. The built-in verification is switched off so that every
// handshake is decided by verifyConnection instead.
func (s *Session) tlsConfig() *tls.Config {
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: true,
		VerifyConnection:   s.verifyConnection,
	}
}

func (s *Session) verifyConnection(cs tls.ConnectionState) error {
	host := cs.ServerName
	if ev := s.caps.TrustEvaluator(host); ev != nil {
		if err := ev.Evaluate(host, cs); err != nil {
			s.logger.Warn("server trust rejected", "host", host, "error", err.Error())
			return err
		}
		return nil
	}

	return verifyChain(cs, s.rootCAs)
}

// verifyChain performs the verification crypto/tls does by default:
// the leaf must chain to roots and be valid for the server name.
func verifyChain(cs tls.ConnectionState, roots *x509.CertPool) error {
	if len(cs.PeerCertificates) == 0 {
		return errNoPeerCertificates
	}

	opts := x509.VerifyOptions{
		DNSName:       cs.ServerName,
		Roots:         roots,
		Intermediates: x509.NewCertPool(),
	}
	for _, cert := range cs.PeerCertificates[1:] {
		opts.Intermediates.AddCert(cert)
	}

	_, err := cs.PeerCertificates[0].Verify(opts)
	return err
}
