package service

import (
	"context"
	"net"
	"strings"
	"time"
)

// DNSResolver abstracts the DNS lookups verification depends on, so the
// verification service can be tested against a fake resolver.
type DNSResolver interface {
	// LookupCNAME returns the canonical target names for host.
	LookupCNAME(ctx context.Context, host string) ([]string, error)
	// LookupA returns the IPv4/IPv6 addresses for host.
	LookupA(ctx context.Context, host string) ([]string, error)
	// LookupTXT returns the TXT record values for host.
	LookupTXT(ctx context.Context, host string) ([]string, error)
}

// NetResolver wraps net.Resolver with a bounded per-lookup timeout. Lookup
// failures (NXDOMAIN, timeout, servfail) surface as errors here and are folded
// into negative check results by the verification service.
type NetResolver struct {
	resolver *net.Resolver
	timeout  time.Duration
}

const defaultLookupTimeout = 5 * time.Second

func NewNetResolver(timeout time.Duration) *NetResolver {
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &NetResolver{
		resolver: net.DefaultResolver,
		timeout:  timeout,
	}
}

func (r *NetResolver) LookupCNAME(ctx context.Context, host string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cname, err := r.resolver.LookupCNAME(ctx, host)
	if err != nil {
		return nil, err
	}
	if cname == "" {
		return nil, nil
	}
	return []string{strings.TrimSuffix(cname, ".")}, nil
}

func (r *NetResolver) LookupA(ctx context.Context, host string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	addrs, err := r.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	ips := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		ips = append(ips, addr.IP.String())
	}
	return ips, nil
}

func (r *NetResolver) LookupTXT(ctx context.Context, host string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.resolver.LookupTXT(ctx, host)
}

// RootDomain strips a hostname to its apex (last two labels). Ownership TXT
// records are expected at the apex, not a deep subdomain.
func RootDomain(host string) string {
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}
