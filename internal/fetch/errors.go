package fetch

import "errors"

// Fetch errors.
//
// Design decision: We use package-level sentinel errors so callers can use
// errors.Is() to distinguish an HTTP-level refusal from a transport error
// without string matching.
var (
	// ErrHTTPStatus is returned when a response carries a non-2xx status
	// code. The wrapped message includes the status and URL.
	ErrHTTPStatus = errors.New("unexpected http status")

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address is
	// not in "host:port" form.
	ErrInvalidProxyAddress = errors.New("invalid socks5 proxy address: must be host:port")
)
