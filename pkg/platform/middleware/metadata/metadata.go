// Package metadata records who is calling: client IP and a parsed
// user agent, for access logs.
package metadata

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"
)

type contextKeyClient struct{}

// Client describes the caller of one request.
type Client struct {
	IP        string
	UserAgent string
	Browser   string
	OS        string
	Mobile    bool
	Bot       bool
}

// Label is a short human description such as "Chrome 120.0 / Android 14".
func (c Client) Label() string {
	switch {
	case c.UserAgent == "":
		return "unknown"
	case c.Bot:
		return "bot " + c.Browser
	}
	label := strings.TrimSpace(c.Browser)
	if c.OS != "" {
		label += " / " + c.OS
	}
	if label == "" {
		return "unknown"
	}
	return label
}

// Proxies lists the networks whose forwarding headers are believed.
type Proxies []netip.Prefix

// ParseProxies accepts CIDRs or bare addresses.
func ParseProxies(values []string) (Proxies, error) {
	out := make(Proxies, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if !strings.Contains(v, "/") {
			addr, err := netip.ParseAddr(v)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
			}
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(v)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
		}
		out = append(out, prefix.Masked())
	}
	return out, nil
}

// Contains reports whether ip falls inside a trusted network.
func (p Proxies) Contains(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientMetadata parses the caller details once and stores them in the
// context. Apply it early in the chain. Forwarding headers are only honoured
// when the peer is one of trusted.
func ClientMetadata(trusted Proxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ParseClient(ClientIPFromRequest(r, trusted), r.Header.Get("User-Agent"))
			next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), client)))
		})
	}
}

// ParseClient builds a Client from a raw user agent string.
func ParseClient(ip, userAgent string) Client {
	c := Client{IP: ip, UserAgent: userAgent}
	if userAgent == "" {
		return c
	}
	ua := useragent.New(userAgent)
	name, version := ua.Browser()
	c.Browser = strings.TrimSpace(name + " " + version)
	c.OS = ua.OS()
	c.Mobile = ua.Mobile()
	c.Bot = ua.Bot()
	return c
}

// GetClient retrieves the caller details from the context.
func GetClient(ctx context.Context) Client {
	if c, ok := ctx.Value(contextKeyClient{}).(Client); ok {
		return c
	}
	return Client{}
}

// WithClient injects caller details into a context.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, contextKeyClient{}, c)
}

// ClientIPFromRequest returns the peer address unless the peer is a trusted
// proxy. Behind one, the nearest untrusted X-Forwarded-For hop wins, then
// X-Real-IP.
func ClientIPFromRequest(r *http.Request, trusted Proxies) string {
	peer := remoteHost(r.RemoteAddr)
	if !trusted.Contains(peer) {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !trusted.Contains(hop) {
				return hop
			}
		}
		return strings.TrimSpace(hops[0])
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

func remoteHost(remoteAddr string) string {
	if remoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
