package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
)

// Kind classifies an upstream request failure.
type Kind string

const (
	// KindTimeout means the request exceeded its deadline.
	KindTimeout Kind = "timeout"
	// KindUpstreamHTTP means the upstream answered with a non-2xx status.
	KindUpstreamHTTP Kind = "upstream_http"
	// KindNetwork means the upstream could not be reached at all.
	KindNetwork Kind = "network"
	// KindUnexpected covers everything else.
	KindUnexpected Kind = "unexpected"
)

// RequestError is the normalized failure for upstream service calls. It
// carries enough to log and to produce a user-facing message without
// exposing internals.
type RequestError struct {
	Service string
	Kind    Kind
	Status  int
	Err     error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case KindUpstreamHTTP:
		return fmt.Sprintf("%s request failed with HTTP %d", e.Service, e.Status)
	case KindTimeout:
		return fmt.Sprintf("%s request timed out", e.Service)
	case KindNetwork:
		return fmt.Sprintf("failed to connect to %s: %v", e.Service, e.Err)
	default:
		return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text surfaced to end users through tool results.
// It stays actionable and never includes token material or raw errors
// beyond connectivity hints.
func (e *RequestError) UserMessage() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("The request to %s timed out. Please try again.", e.Service)
	case KindNetwork:
		return fmt.Sprintf("Failed to connect to %s. Please try again later.", e.Service)
	case KindUpstreamHTTP:
		switch e.Status {
		case http.StatusUnauthorized:
			return fmt.Sprintf("Your %s authorization has expired or been revoked. Please authorize again.", e.Service)
		case http.StatusForbidden:
			return fmt.Sprintf("%s denied the request. You may lack permission or have hit a rate limit.", e.Service)
		case http.StatusNotFound:
			return fmt.Sprintf("The requested %s resource was not found.", e.Service)
		default:
			return fmt.Sprintf("%s returned an unexpected error (HTTP %d). Please try again later.", e.Service, e.Status)
		}
	default:
		return fmt.Sprintf("The request to %s failed unexpectedly. Please try again.", e.Service)
	}
}

// classifyTransportError maps a transport-level error onto a RequestError.
func classifyTransportError(service string, err error) *RequestError {
	switch {
	case errors.Is(err, context.DeadlineExceeded), os.IsTimeout(err), isTimeout(err):
		return &RequestError{Service: service, Kind: KindTimeout, Err: err}
	case isNetworkError(err):
		return &RequestError{Service: service, Kind: KindNetwork, Err: err}
	default:
		return &RequestError{Service: service, Kind: KindUnexpected, Err: err}
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
