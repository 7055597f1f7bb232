package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Headers set by the proxies keymeter is usually deployed behind, in the
// order they are trusted.
var proxyHeaders = []string{"CF-Connecting-IP", "DO-Connecting-IP"}

// GetIP returns the normalized client address of r, or "" when no source
// carries a valid address.
func GetIP(r *http.Request) string {
	for _, h := range proxyHeaders {
		if ip := parseIP(r.Header.Get(h)); ip != "" {
			return ip
		}
	}

	for ip := range strings.SplitSeq(r.Header.Get("X-Forwarded-For"), ",") {
		if parsed := parseIP(ip); parsed != "" {
			return parsed
		}
	}

	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
