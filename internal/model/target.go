package model

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Target identifies the system under test. It is parsed once at invocation
// time and is immutable for the duration of a run.
//
// Design decision: We resolve the raw CLI argument into a structured value
// up front rather than passing raw strings to each tool adapter. This keeps
// validation in one place and lets adapters ask for exactly the form they
// need (full URL for web scanners, host:port for port scanners).
type Target struct {
	// Raw is the target exactly as the user provided it.
	Raw string `json:"raw"`

	// Scheme is "http" or "https".
	Scheme string `json:"scheme"`

	// Host is the hostname or IP address without a port.
	Host string `json:"host"`

	// Port is the TCP port. Defaults to 80 for http and 443 for https.
	Port int `json:"port"`
}

// Target parsing errors.
var (
	// ErrEmptyTarget is returned when the target string is empty.
	ErrEmptyTarget = errors.New("target is empty")

	// ErrInvalidTarget is returned when the target is not a valid URL or
	// host:port pair.
	ErrInvalidTarget = errors.New("target must be a valid URL or host:port pair")

	// ErrUnsupportedScheme is returned for URL schemes other than http/https.
	ErrUnsupportedScheme = errors.New("target scheme must be http or https")
)

// ParseTarget parses a URL or host:port pair into a Target.
// Bare hosts like "example.test:3000" are treated as http URLs.
func ParseTarget(raw string) (*Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyTarget
	}

	// Bare host or host:port gets an implicit http scheme so that
	// url.Parse produces a usable host component.
	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "http://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, raw)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, raw)
	}

	port := 80
	if u.Scheme == "https" {
		port = 443
	}
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("%w: invalid port %q", ErrInvalidTarget, p)
		}
	}

	return &Target{
		Raw:    raw,
		Scheme: u.Scheme,
		Host:   host,
		Port:   port,
	}, nil
}

// URL returns the target as a full URL. Default ports (80 for http,
// 443 for https) are omitted so the URL round-trips cleanly.
func (t *Target) URL() string {
	if (t.Scheme == "http" && t.Port == 80) || (t.Scheme == "https" && t.Port == 443) {
		return fmt.Sprintf("%s://%s", t.Scheme, t.Host)
	}
	return fmt.Sprintf("%s://%s", t.Scheme, t.HostPort())
}

// HostPort returns the target as a host:port pair.
func (t *Target) HostPort() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// String implements fmt.Stringer. It returns the full URL form.
func (t *Target) String() string {
	return t.URL()
}
