package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ascension-ai/backend/src/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ascension-ai/backend/src/metrics"
)

// VerificationService runs the DNS ownership checks for a domain and commits
// the verified state. DNS results are computed fully before the single
// conditional store update, so concurrent verify calls at worst repeat DNS
// work and never leave a half-applied state.
type VerificationService struct {
	domains  domain.DomainRepository
	funnels  domain.FunnelRepository
	resolver DNSResolver
	cache    RouteCache
	cfg      PlatformConfig
}

func NewVerificationService(
	domains domain.DomainRepository,
	funnels domain.FunnelRepository,
	resolver DNSResolver,
	cache RouteCache,
	cfg PlatformConfig,
) *VerificationService {
	return &VerificationService{
		domains:  domains,
		funnels:  funnels,
		resolver: resolver,
		cache:    cache,
		cfg:      cfg,
	}
}

func (s *VerificationService) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", "verification-service").Logger()
	return &l
}

// VerifyDomain loads the record scoped to its owner and runs one verification
// pass. Safe to call repeatedly: re-verifying an already verified domain just
// re-confirms and refreshes lastVerifiedAt.
func (s *VerificationService) VerifyDomain(ctx context.Context, domainID, ownerID uuid.UUID) (*domain.VerificationResult, error) {
	record, err := s.domains.FindByID(ctx, domainID, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewError(domain.ErrorCodeResourceNotFound, err,
				domain.WithMsg("Domain not found"))
		}
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, err,
			domain.WithMsg("Failed to load domain"))
	}
	return s.Verify(ctx, record)
}

// Verify runs both DNS checks for a record and, on success, commits
// verified=true / sslStatus=active / lastVerifiedAt and propagates the mirror
// flag onto the funnel. On failure the record is left untouched.
func (s *VerificationService) Verify(ctx context.Context, record *domain.DomainRecord) (*domain.VerificationResult, error) {
	logger := s.logger(ctx).With().Str("domain", record.Domain).Logger()

	cnameOk, cnameDetail := s.checkCNAME(ctx, record.Domain)
	txtOk, txtDetail := s.checkTXT(ctx, record)

	result := &domain.VerificationResult{
		CNAMEOk: cnameOk,
		TXTOk:   txtOk,
		Success: cnameOk && txtOk,
		Details: domain.VerificationDetails{
			CNAME: cnameDetail,
			TXT:   txtDetail,
		},
	}

	if !result.Success {
		logger.Info().
			Bool("cname_ok", cnameOk).
			Bool("txt_ok", txtOk).
			Msg("domain verification failed")
		metrics.RecordVerification("failed")
		return result, nil
	}

	if err := s.domains.MarkVerified(ctx, record.ID, record.OwnerID, time.Now().UTC()); err != nil {
		logger.Error().Err(err).Msg("failed to persist verified state")
		metrics.RecordVerification("store_error")
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, err,
			domain.WithMsg("Verification succeeded but could not be saved, please retry"))
	}

	// Mirror propagation is best-effort: a stale funnel mirror is repaired by
	// the background re-verification pass, so it must not fail the request.
	if err := s.funnels.UpdateDomainMirror(ctx, record.FunnelID, record.Domain, true); err != nil {
		logger.Error().Err(err).
			Str("funnel_id", record.FunnelID.String()).
			Msg("failed to propagate verified flag to funnel, mirror is stale")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, record.Domain); err != nil {
			logger.Warn().Err(err).Msg("failed to invalidate route cache")
		}
	}

	logger.Info().Msg("domain verified")
	metrics.RecordVerification("success")
	return result, nil
}

// checkCNAME passes when any CNAME target contains the platform serving host.
// Any A record is accepted as a weak fallback: it shows the domain points at
// some infrastructure even when the CNAME is flattened by the DNS provider.
func (s *VerificationService) checkCNAME(ctx context.Context, name string) (bool, string) {
	targets, err := s.resolver.LookupCNAME(ctx, name)
	if err == nil {
		for _, target := range targets {
			if strings.Contains(domain.NormalizeDomain(target), strings.ToLower(s.cfg.ServingHost)) {
				return true, fmt.Sprintf("CNAME %s points at %s", name, target)
			}
		}
	}

	ips, aErr := s.resolver.LookupA(ctx, name)
	if aErr == nil && len(ips) > 0 {
		return true, fmt.Sprintf("no CNAME to %s, accepted %d A record(s)", s.cfg.ServingHost, len(ips))
	}

	return false, fmt.Sprintf("missing CNAME record: %s should point to %s", name, s.cfg.ServingHost)
}

// checkTXT looks for the ownership token in the TXT records at the apex.
// Multi-string TXT answers are flattened before matching.
func (s *VerificationService) checkTXT(ctx context.Context, record *domain.DomainRecord) (bool, string) {
	apex := RootDomain(record.Domain)
	values, err := s.resolver.LookupTXT(ctx, apex)
	if err != nil {
		return false, fmt.Sprintf("missing TXT record: add %q with value %q at %s",
			"_"+domain.VerificationPrefix+"."+record.Domain,
			domain.VerificationPrefix+"="+record.VerificationToken, apex)
	}

	flat := strings.Join(values, " ")
	if strings.Contains(flat, domain.VerificationPrefix) || strings.Contains(flat, record.VerificationToken) {
		return true, fmt.Sprintf("TXT record found at %s", apex)
	}

	return false, fmt.Sprintf("missing TXT record: add %q with value %q at %s",
		"_"+domain.VerificationPrefix+"."+record.Domain,
		domain.VerificationPrefix+"="+record.VerificationToken, apex)
}
