// Package security provides input hardening helpers for iconform.
package security

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
)

// MaxDocumentBytes bounds how much a decompressed document snapshot may expand to.
const MaxDocumentBytes = 100 * 1024 * 1024

// LimitedReader wraps an io.Reader and limits the total bytes that can be read.
// This prevents decompression bomb attacks when loading snapshots.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		return 0, fmt.Errorf("decompression size limit exceeded")
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}

// ValidatePanelOrigin checks the Origin header of a panel websocket
// connection. Panels run on the same machine as the backend, so only
// loopback origins, or an empty origin from non-browser clients, are allowed.
func ValidatePanelOrigin(origin string) error {
	if origin == "" || origin == "null" {
		return nil
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" && scheme != "file" {
		return fmt.Errorf("invalid origin protocol: %s", scheme)
	}
	if scheme == "file" {
		return nil
	}

	host := strings.ToLower(parsed.Hostname())
	if !IsLoopbackHost(host) {
		return fmt.Errorf("origin must be a local host: %s", host)
	}

	return nil
}

// IsLoopbackHost checks if a hostname refers to this machine.
func IsLoopbackHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}

	ip := net.ParseIP(strings.Trim(host, "[]"))
	return ip != nil && ip.IsLoopback()
}
