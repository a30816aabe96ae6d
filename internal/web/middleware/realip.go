package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedRealIP rewrites r.RemoteAddr from X-Real-IP or X-Forwarded-For, but
// only when the connection comes from one of the trusted proxy prefixes.
// Untrusted clients keep their socket address, so a forged header cannot
// dodge the per-IP rate limit.
func TrustedRealIP(trusted []string) func(http.Handler) http.Handler {
	prefixes := ParseTrustedProxies(trusted)

	return func(next http.Handler) http.Handler {
		if len(prefixes) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if addr, ok := parseAddr(r.RemoteAddr); ok && contains(prefixes, addr) {
				if client, ok := forwardedClient(r.Header); ok {
					r.RemoteAddr = client.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ParseTrustedProxies parses CIDRs and bare addresses. Invalid entries are
// logged and skipped.
func ParseTrustedProxies(entries []string) []netip.Prefix {
	var prefixes []netip.Prefix
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			prefixes = append(prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		slog.Warn("realip: invalid trusted proxy, skipping", "entry", e)
	}
	return prefixes
}

// forwardedClient returns the client named by X-Real-IP, or else by the
// first hop of X-Forwarded-For.
func forwardedClient(h http.Header) (netip.Addr, bool) {
	if rip := strings.TrimSpace(h.Get("X-Real-IP")); rip != "" {
		a, err := netip.ParseAddr(rip)
		return a.Unmap(), err == nil
	}
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		a, err := netip.ParseAddr(strings.TrimSpace(first))
		return a.Unmap(), err == nil
	}
	return netip.Addr{}, false
}

// parseAddr parses a host:port or a bare address.
func parseAddr(s string) (netip.Addr, bool) {
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	a, err := netip.ParseAddr(s)
	return a.Unmap(), err == nil
}

func contains(prefixes []netip.Prefix, a netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
