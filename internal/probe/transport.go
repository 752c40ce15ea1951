package probe

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient builds the client shared by every probe.
// requestTimeout bounds a single attempt; the probe watchdog bounds the whole probe.
func NewHTTPClient(requestTimeout time.Duration, maxConnsPerHost int) *http.Client {
	return &http.Client{
		Transport: newHTTPTransport(maxConnsPerHost),
		Timeout:   requestTimeout,
	}
}

func newHTTPTransport(maxConnsPerHost int) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
	}
}
