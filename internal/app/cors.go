package app

import (
	"net/url"
	"strings"
)

// originAllowed reports whether the request origin matches any configured
// pattern. Patterns match against the origin's host[:port] and are case
// insensitive: "*.example.com" matches any subdomain, "localhost:*" matches
// any port on that host.
func originAllowed(patterns []string, origin string) bool {
	host := strings.ToLower(extractOriginHost(origin))
	for _, pattern := range patterns {
		if matchOriginPattern(strings.ToLower(pattern), host) {
			return true
		}
	}
	return false
}

// extractOriginHost returns the "host[:port]" portion of an origin URL.
func extractOriginHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

func matchOriginPattern(pattern, host string) bool {
	if pattern == host {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		suffix := pattern[1:]
		return strings.HasSuffix(host, suffix)
	}
	if strings.HasSuffix(pattern, ":*") {
		prefix := pattern[:len(pattern)-1]
		return strings.HasPrefix(host, prefix)
	}
	return false
}
