package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ascension-ai/backend/src/domain"
	"github.com/ascension-ai/backend/src/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Route sources reported to callers of the lookup API.
const (
	SourceCustomDomain  = "custom_domain"
	SourceDefaultDomain = "default_domain"
	SourcePatternMatch  = "pattern_match"
)

// RouteCache caches hostname → funnel routing decisions on the hot path.
// Implemented by repository.RouteCacheRepository (redis); nil-safe callers may
// run without one.
type RouteCache interface {
	Get(ctx context.Context, host string) (*CachedRoute, error)
	Set(ctx context.Context, host string, route *CachedRoute) error
	Invalidate(ctx context.Context, host string) error
}

// CachedRoute is the cached outcome of a tenant resolution.
type CachedRoute struct {
	FunnelID string `json:"funnel_id"`
	Source   string `json:"source"`
}

// TenantResolver maps a request hostname to the funnel that should serve it.
// Only a verified custom domain carries an ownership guarantee; the default
// domain and name-pattern fallbacks operate on the platform's own namespace.
type TenantResolver struct {
	domains domain.DomainRepository
	funnels domain.FunnelRepository
	cache   RouteCache
	cfg     PlatformConfig
}

func NewTenantResolver(
	domains domain.DomainRepository,
	funnels domain.FunnelRepository,
	cache RouteCache,
	cfg PlatformConfig,
) *TenantResolver {
	return &TenantResolver{
		domains: domains,
		funnels: funnels,
		cache:   cache,
		cfg:     cfg,
	}
}

func (s *TenantResolver) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", "tenant-resolver").Logger()
	return &l
}

// Resolve finds the funnel for a hostname, trying in strict order: verified
// custom domain, published default domain, then a fuzzy match on published
// funnel names. Returns a RESOURCE_NOT_FOUND DomainError when nothing matches.
func (s *TenantResolver) Resolve(ctx context.Context, hostname string) (*domain.Funnel, string, error) {
	host := domain.NormalizeDomain(hostname)
	if host == "" {
		return nil, "", domain.NewError(domain.ErrorCodeParameterInvalid,
			errors.New("hostname is required"), domain.WithMsg("Hostname is required"))
	}

	if funnel, source, ok := s.fromCache(ctx, host); ok {
		return funnel, source, nil
	}

	funnel, source, err := s.lookup(ctx, host)
	if err != nil {
		return nil, "", err
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, host, &CachedRoute{FunnelID: funnel.ID.String(), Source: source}); cacheErr != nil {
			s.logger(ctx).Warn().Err(cacheErr).Str("host", host).Msg("failed to cache route")
		}
	}
	return funnel, source, nil
}

func (s *TenantResolver) fromCache(ctx context.Context, host string) (*domain.Funnel, string, bool) {
	if s.cache == nil {
		return nil, "", false
	}
	route, err := s.cache.Get(ctx, host)
	if err != nil || route == nil {
		metrics.RecordRouteCache(false)
		return nil, "", false
	}
	funnel, err := s.findCachedFunnel(ctx, route.FunnelID)
	if err != nil {
		metrics.RecordRouteCache(false)
		return nil, "", false
	}
	metrics.RecordRouteCache(true)
	return funnel, route.Source, true
}

func (s *TenantResolver) findCachedFunnel(ctx context.Context, id string) (*domain.Funnel, error) {
	funnelID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	return s.funnels.FindByID(ctx, funnelID)
}

func (s *TenantResolver) lookup(ctx context.Context, host string) (*domain.Funnel, string, error) {
	// 1. Verified custom domain: the only path with an ownership guarantee.
	record, err := s.domains.FindByDomain(ctx, host)
	if err == nil && record.Verified {
		funnel, ferr := s.funnels.FindByID(ctx, record.FunnelID)
		if ferr == nil {
			return funnel, SourceCustomDomain, nil
		}
		if !errors.Is(ferr, domain.ErrRecordNotFound) {
			return nil, "", domain.NewError(domain.ErrorCodeInternalProcess, ferr,
				domain.WithMsg("Failed to load funnel"))
		}
	} else if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, "", domain.NewError(domain.ErrorCodeInternalProcess, err,
			domain.WithMsg("Failed to look up domain"))
	}

	// 2. Platform-default domain of a published funnel.
	funnel, err := s.funnels.FindPublishedByDomain(ctx, host)
	if err == nil {
		return funnel, SourceDefaultDomain, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, "", domain.NewError(domain.ErrorCodeInternalProcess, err,
			domain.WithMsg("Failed to look up funnel"))
	}

	// 3. Fuzzy fallback over published funnel names, only within the
	// platform's own namespace. First match wins; there is no uniqueness
	// guarantee here, which is why this never applies to custom domains.
	if fragment, ok := strings.CutSuffix(host, "."+s.cfg.ApexDomain); ok && fragment != "" {
		funnel, err = s.funnels.SearchPublishedByName(ctx, fragment)
		if err == nil {
			return funnel, SourcePatternMatch, nil
		}
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return nil, "", domain.NewError(domain.ErrorCodeInternalProcess, err,
				domain.WithMsg("Failed to search funnels"))
		}
	}

	return nil, "", domain.NewError(domain.ErrorCodeResourceNotFound,
		domain.ErrRecordNotFound, domain.WithMsg("No funnel found for hostname "+host))
}
