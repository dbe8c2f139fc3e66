package agent

import (
	"errors"
	"net"
	"syscall"
)

var (
	// ErrNoChoices is returned when the provider answers without any reply
	ErrNoChoices = errors.New("no response choices returned")

	// ErrUnsupportedProvider is returned by ProviderFactory for unknown provider names
	ErrUnsupportedProvider = errors.New("unsupported provider")
)

// IsConnectionError reports whether err means the endpoint could not be reached at all
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}
