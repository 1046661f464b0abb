package httpclient

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrInvalidURL is returned when a URL fails scheme or hostname validation.
var ErrInvalidURL = errors.New("httpclient: invalid url")

// ErrPrivateIP is returned when a hostname resolves to a private, loopback,
// or link-local address and is therefore rejected as an SSRF vector.
var ErrPrivateIP = errors.New("httpclient: url resolves to a private ip")

// ErrTooManyRedirects is returned when a redirect chain exceeds MaxRedirects.
var ErrTooManyRedirects = errors.New("httpclient: too many redirects")

// ValidateURL rejects non-http(s) schemes and, when denyPrivateIPs is set,
// hostnames resolving to a private, loopback, or link-local address. This
// is the SSRF guard every outbound fetch (source resolution, full_text,
// merge, JS fetch) passes through before a request is issued.
func ValidateURL(rawURL string, denyPrivateIPs bool) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: parse error: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q not allowed (only http/https)", ErrInvalidURL, u.Scheme)
	}
	hostname := u.Hostname()
	if hostname == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}
	if !denyPrivateIPs {
		return nil
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return fmt.Errorf("%w: dns lookup failed for %s: %v", ErrInvalidURL, hostname, err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("%w: hostname %q resolves to private ip %s", ErrPrivateIP, hostname, ip)
		}
	}
	return nil
}

// isPrivateIP reports whether ip is loopback, private, or link-local (IPv4
// or IPv6).
func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
