package proxy

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	defaultConnectPort = 443
	defaultHTTPPort    = 80
)

var (
	// ErrEmptyRequest is returned when the client closed before sending
	// anything.
	ErrEmptyRequest = errors.New("empty request")

	// ErrMalformedRequest is returned for a request line that can't be
	// split into at least a method and a target, or whose target can't be
	// resolved to an upstream.
	ErrMalformedRequest = errors.New("malformed request line")
)

// RequestLine is the first line of a client request.
type RequestLine struct {
	Method  string
	Target  string
	Version string
}

// Target is the upstream host and port a request is dialed to.
type Target struct {
	Host string
	Port int
}

// String returns the target as a dialable host:port address.
func (t Target) String() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// ParseRequestLine parses the first line of b.
//
// Only the text before the first line break is looked at. A line that
// didn't fit in b is reported as malformed; callers don't read more.
func ParseRequestLine(b []byte) (RequestLine, error) {
	if len(b) == 0 {
		return RequestLine{}, ErrEmptyRequest
	}
	if !utf8.Valid(b) {
		return RequestLine{}, fmt.Errorf("%w: not valid utf-8", ErrMalformedRequest)
	}

	line, _, _ := strings.Cut(string(b), "\n")
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return RequestLine{}, fmt.Errorf("%w: %q", ErrMalformedRequest, line)
	}

	rl := RequestLine{Method: fields[0], Target: fields[1]}
	if len(fields) > 2 {
		rl.Version = fields[2]
	}
	return rl, nil
}

// IsConnect reports whether the request asks for a tunnel.
func (rl RequestLine) IsConnect() bool {
	return strings.EqualFold(rl.Method, http.MethodConnect)
}

// Upstream resolves the host and port to dial for this request.
//
// CONNECT targets are host:port authorities with the port defaulting to
// 443. Anything else is forwarded to port 80 of the host part of the
// target; a port in the URL is not honored.
func (rl RequestLine) Upstream() (Target, error) {
	if rl.IsConnect() {
		return connectTarget(rl.Target)
	}
	return forwardTarget(rl.Target)
}

func connectTarget(authority string) (Target, error) {
	if !strings.Contains(authority, ":") {
		return Target{Host: authority, Port: defaultConnectPort}, nil
	}

	host, port, err := net.SplitHostPort(authority)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	if host == "" {
		return Target{}, fmt.Errorf("%w: missing host in %q", ErrMalformedRequest, authority)
	}

	if port == "" {
		return Target{Host: host, Port: defaultConnectPort}, nil
	}
	n, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return Target{}, fmt.Errorf("%w: invalid port %q", ErrMalformedRequest, port)
	}

	return Target{Host: host, Port: int(n)}, nil
}

func forwardTarget(target string) (Target, error) {
	if i := strings.LastIndex(target, "://"); i >= 0 {
		target = target[i+len("://"):]
	}
	host, _, _ := strings.Cut(target, "/")
	if host == "" {
		return Target{}, fmt.Errorf("%w: missing host in %q", ErrMalformedRequest, target)
	}

	return Target{Host: host, Port: defaultHTTPPort}, nil
}
