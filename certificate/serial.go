// Package certificate inspects PEM-encoded X.509 certificates.
package certificate

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// SerialNumber returns the serial number of the first certificate in the
// given PEM text as colon-separated uppercase hex byte pairs, e.g. "12:34".
// Serials with an odd number of hex digits are left-padded with a zero.
func SerialNumber(pemText string) (string, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return "", errors.New("no PEM block found")
	}
	if block.Type != "CERTIFICATE" {
		return "", errors.Errorf("unexpected PEM block type '%s'", block.Type)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return "", errors.Wrap(err, "parsing certificate")
	}

	return FormatSerial(fmt.Sprintf("%X", cert.SerialNumber)), nil
}

// FormatSerial splits an uppercase hex string into colon-separated pairs.
func FormatSerial(hex string) string {
	if len(hex)%2 != 0 {
		hex = "0" + hex
	}

	pairs := make([]string, 0, len(hex)/2)
	for i := 0; i < len(hex); i += 2 {
		pairs = append(pairs, hex[i:i+2])
	}

	return strings.Join(pairs, ":")
}
