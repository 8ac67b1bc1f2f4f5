package capture

import (
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// IsThirdParty reports whether originHost belongs to a different
// registrable domain (eTLD+1) than siteHost. Ports are ignored. IP
// addresses and hosts the public suffix list cannot place are compared
// verbatim.
func IsThirdParty(siteHost, originHost string) bool {
	if siteHost == "" || originHost == "" {
		return false
	}
	return registrableDomain(siteHost) != registrableDomain(originHost)
}

func registrableDomain(host string) string {
	host = strings.ToLower(stripPort(host))
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return strings.Trim(h, "[]")
	}
	return strings.Trim(host, "[]")
}
