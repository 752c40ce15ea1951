package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
)

// Status lines reported when no definitive HTTP response was obtained.
const (
	ReasonCancelled  = "Operation Cancelled"
	ReasonTimeout    = "Timeout"
	ReasonHTTPError  = "HTTP Error"
	ReasonSocket     = "DNS/Socket Error"
	ReasonUnexpected = "Unexpected Error"

	// NoStatusLine stands in for an empty reason phrase.
	NoStatusLine = "No Status Line"
)

// errBudget marks waits that could not fit in the watchdog budget.
var errBudget = errors.New("probe budget exhausted")

// classifyFailure names the terminal failure of a probe. parent carries external
// cancellation; watchdog is parent bounded by the probe timeout.
func classifyFailure(parent, watchdog context.Context, err error) string {
	switch {
	case parent.Err() != nil:
		return ReasonCancelled
	case watchdog.Err() != nil, errors.Is(err, errBudget), isTimeout(err):
		return ReasonTimeout
	case isSocketError(err):
		return ReasonSocket
	case isTransportError(err):
		return ReasonHTTPError
	default:
		return ReasonUnexpected
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isSocketError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

func isTransportError(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// statusLine extracts the reason phrase from a response status such as "404 Not Found".
func statusLine(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		return NoStatusLine
	}
	return reason
}
