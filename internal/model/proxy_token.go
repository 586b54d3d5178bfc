package model

import (
	"errors"
	"strconv"
	"strings"
)

// ProxyToken errors.
var (
	// ErrInvalidProxyToken is returned when the token format is invalid.
	ErrInvalidProxyToken = errors.New("invalid proxy token format")
	// ErrEmptyProxyToken is returned when the token is empty.
	ErrEmptyProxyToken = errors.New("proxy token cannot be empty")
)

const (
	// minPort is the lowest usable TCP port.
	minPort = 1
	// maxPort is the highest TCP port.
	maxPort = 65535
	// maxOctet is the highest value of a dotted-quad octet.
	maxOctet = 255
	// octetCount is the number of octets in a dotted-quad address.
	octetCount = 4
)

// ProxyToken is an immutable value object representing a candidate proxy
// endpoint in A.B.C.D:P form. Each octet is 0-255 and the port is 1-65535.
// Leading zeros are tolerated because tokens keep the exact text they were
// matched as; equality and ordering are lexical on the string form.
//
// A ProxyToken says nothing about whether the endpoint is a live proxy.
// Liveness checking is out of scope for this tool.
type ProxyToken string

// NewProxyToken creates a ProxyToken from a string.
// It validates the dotted-quad address and the port range.
// Returns an error if the token is malformed.
func NewProxyToken(s string) (ProxyToken, error) {
	if s == "" {
		return "", ErrEmptyProxyToken
	}

	host, port, ok := strings.Cut(s, ":")
	if !ok {
		return "", ErrInvalidProxyToken
	}
	if !validDottedQuad(host) || !validPort(port) {
		return "", ErrInvalidProxyToken
	}
	return ProxyToken(s), nil
}

// MustNewProxyToken creates a ProxyToken or panics if invalid.
// Use only for known-valid tokens in tests or initialization.
func MustNewProxyToken(s string) ProxyToken {
	pt, err := NewProxyToken(s)
	if err != nil {
		panic(err)
	}
	return pt
}

// validDottedQuad checks that host is exactly four dot-separated decimal
// octets, each 1-3 digits with a value of at most 255.
func validDottedQuad(host string) bool {
	octets := strings.Split(host, ".")
	if len(octets) != octetCount {
		return false
	}
	for _, octet := range octets {
		if len(octet) == 0 || len(octet) > 3 || !isDigits(octet) {
			return false
		}
		n, err := strconv.Atoi(octet)
		if err != nil || n > maxOctet {
			return false
		}
	}
	return true
}

// validPort checks that port is 1-5 digits with a value in 1-65535.
func validPort(port string) bool {
	if len(port) == 0 || len(port) > 5 || !isDigits(port) {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= minPort && n <= maxPort
}

// isDigits checks if a string contains only ASCII digits.
func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// String returns the token in its original A.B.C.D:P text form.
func (p ProxyToken) String() string {
	return string(p)
}

// Host returns the address part before the colon.
func (p ProxyToken) Host() string {
	host, _, _ := strings.Cut(string(p), ":")
	return host
}

// Port returns the numeric port, or 0 for a zero-value token.
func (p ProxyToken) Port() int {
	_, port, ok := strings.Cut(string(p), ":")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return 0
	}
	return n
}

// IsZero returns true if this is a zero value (empty) ProxyToken.
func (p ProxyToken) IsZero() bool {
	return p == ""
}
