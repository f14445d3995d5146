package service

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// PlatformConfig describes the platform's own hostnames, used to tell platform
// traffic apart from tenant traffic and to build DNS instructions.
type PlatformConfig struct {
	// AppHost is the canonical application hostname, e.g.
	// "ascension-ai-sm36.vercel.app". Requests for it are never rewritten.
	AppHost string
	// ApexDomain is the root under which tenant subdomains live, e.g.
	// "ascension-ai-sm36.vercel.app" (hostname "foo.<apex>" is tenant traffic).
	ApexDomain string
	// ServingHost is the hostname tenant CNAME records must point at.
	ServingHost string
	// BaseTLDMarker identifies the hosting platform's namespace, e.g.
	// "vercel.app". A hostname that does not contain it is a custom domain.
	BaseTLDMarker string
}

// RouteClass is the outcome of classifying an inbound request's hostname.
type RouteClass int

const (
	// RouteNone leaves the request untouched.
	RouteNone RouteClass = iota
	// RouteSkip marks platform-internal traffic (app UI, assets, deployments).
	RouteSkip
	// RouteCustomDomain marks traffic for a tenant's own domain.
	RouteCustomDomain
	// RoutePlatformSubdomain marks traffic for a tenant subdomain of the apex.
	RoutePlatformSubdomain
)

func (c RouteClass) String() string {
	switch c {
	case RouteSkip:
		return "skip"
	case RouteCustomDomain:
		return "custom_domain"
	case RoutePlatformSubdomain:
		return "platform_subdomain"
	default:
		return "none"
	}
}

// HostClassifier decides, per request, whether a hostname belongs to the
// platform or to a tenant. Classification is pure: no I/O, no state.
type HostClassifier struct {
	appHost       string
	apexDomain    string
	baseTLDMarker string
	// Ephemeral deployment URLs look like "<app>-<id>-<org>.<platform TLD>".
	// They end with the apex suffix too, so they must be checked first.
	deploymentURL *regexp.Regexp
}

var skipPathPrefixes = []string{"/api/", "/_next/", "/static/"}

func NewHostClassifier(cfg PlatformConfig) *HostClassifier {
	appLabel := strings.SplitN(cfg.AppHost, ".", 2)[0]
	pattern := fmt.Sprintf(`^%s-[a-z0-9]+-[a-z0-9-]+\.%s$`,
		regexp.QuoteMeta(appLabel), regexp.QuoteMeta(cfg.BaseTLDMarker))

	return &HostClassifier{
		appHost:       strings.ToLower(cfg.AppHost),
		apexDomain:    strings.ToLower(cfg.ApexDomain),
		baseTLDMarker: strings.ToLower(cfg.BaseTLDMarker),
		deploymentURL: regexp.MustCompile(pattern),
	}
}

// Classify maps (hostname, path) to a RouteClass. Hostnames may carry a port.
func (hc *HostClassifier) Classify(hostname, path string) RouteClass {
	host := normalizeHost(hostname)

	for _, prefix := range skipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return RouteSkip
		}
	}
	// Static asset heuristic: any dot in the path.
	if strings.Contains(path, ".") {
		return RouteSkip
	}
	if isLoopback(host) {
		return RouteSkip
	}
	if host == hc.appHost {
		return RouteSkip
	}
	if hc.deploymentURL.MatchString(host) {
		return RouteSkip
	}
	if strings.HasSuffix(host, "."+hc.apexDomain) {
		return RoutePlatformSubdomain
	}
	if !strings.Contains(host, hc.baseTLDMarker) {
		return RouteCustomDomain
	}
	return RouteNone
}

func normalizeHost(hostname string) string {
	host := strings.ToLower(strings.TrimSpace(hostname))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}

func isLoopback(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
