package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// IPResolver finds the address a request came from. Forwarding headers are
// only honoured when the direct peer is a trusted proxy; with no trusted
// proxies configured the peer address is always used.
type IPResolver struct {
	trusted []*net.IPNet
}

// NewIPResolver builds a resolver trusting the given proxy CIDRs. Invalid
// entries are logged and skipped.
func NewIPResolver(cidrs []string, logger *slog.Logger) *IPResolver {
	res := &IPResolver{}
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			logger.Warn("invalid trusted proxy CIDR, skipping", slog.String("cidr", cidr), slog.String("error", err.Error()))
			continue
		}
		res.trusted = append(res.trusted, ipNet)
	}
	return res
}

func (res *IPResolver) isTrusted(ip net.IP) bool {
	if res == nil || ip == nil {
		return false
	}
	for _, n := range res.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the client address for r. Behind trusted proxies it
// walks X-Forwarded-For from the right and returns the first hop that is
// not a trusted proxy, so entries a client prepends are never used.
func (res *IPResolver) ClientIP(r *http.Request) string {
	remote := peerAddr(r)
	if !res.isTrusted(net.ParseIP(remote)) {
		return remote
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip := net.ParseIP(strings.TrimSpace(hops[i]))
			if ip == nil {
				// An unparsable hop ends the chain we can vouch for.
				return remote
			}
			if !res.isTrusted(ip) {
				return ip.String()
			}
			remote = ip.String()
		}
		return remote
	}

	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return remote
}

func peerAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
