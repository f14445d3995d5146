package service

import (
	"context"
	"errors"

	"github.com/ascension-ai/backend/src/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DomainService owns the custom-domain lifecycle: create (with replacement and
// global-uniqueness enforcement), list and delete. Verification lives in
// VerificationService.
type DomainService struct {
	domains domain.DomainRepository
	funnels domain.FunnelRepository
	cache   RouteCache
	cfg     PlatformConfig
}

func NewDomainService(
	domains domain.DomainRepository,
	funnels domain.FunnelRepository,
	cache RouteCache,
	cfg PlatformConfig,
) *DomainService {
	return &DomainService{
		domains: domains,
		funnels: funnels,
		cache:   cache,
		cfg:     cfg,
	}
}

func (s *DomainService) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", "domain-service").Logger()
	return &l
}

// CreateDomain claims a domain name for an owner's funnel. A funnel holds at
// most one domain record, so an existing record for the owner+funnel pair is
// replaced. The domain name itself is unique across all owners.
func (s *DomainService) CreateDomain(ctx context.Context, ownerID, funnelID uuid.UUID, name string) (*domain.DomainRecord, error) {
	logger := s.logger(ctx)

	name = domain.NormalizeDomain(name)
	if err := domain.ValidateDomainName(name); err != nil {
		return nil, domain.NewError(domain.ErrorCodeParameterInvalid, err,
			domain.WithMsg("Invalid domain name: "+err.Error()))
	}

	funnel, err := s.funnels.FindByID(ctx, funnelID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewError(domain.ErrorCodeResourceNotFound, err,
				domain.WithMsg("Funnel not found"))
		}
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, err,
			domain.WithMsg("Failed to load funnel"))
	}
	if funnel.OwnerID != ownerID {
		return nil, domain.NewError(domain.ErrorCodeAuthPermissionDenied,
			errors.New("funnel is owned by another account"),
			domain.WithMsg("Funnel is owned by another account"))
	}

	// Reject early if another owner already claimed this name. The unique
	// index still closes the remaining race at insert time.
	if existing, err := s.domains.FindByDomain(ctx, name); err == nil {
		if existing.OwnerID != ownerID || existing.FunnelID != funnelID {
			return nil, domain.NewError(domain.ErrorCodeResourceConflict, domain.ErrDomainTaken,
				domain.WithMsg("Domain "+name+" is already claimed"))
		}
	} else if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, err,
			domain.WithMsg("Failed to check domain availability"))
	}

	// One live record per owner+funnel: replace any prior claim.
	replaced, err := s.domains.DeleteByOwnerAndFunnel(ctx, ownerID, funnelID)
	if err != nil {
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, err,
			domain.WithMsg("Failed to replace existing domain"))
	}
	for _, old := range replaced {
		logger.Info().
			Str("domain", old.Domain).
			Str("funnel_id", funnelID.String()).
			Msg("replaced existing domain record")
		s.invalidateRoute(ctx, old.Domain)
	}

	record := &domain.DomainRecord{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		FunnelID:          funnelID,
		Domain:            name,
		VerificationToken: domain.NewVerificationToken(),
		Verified:          false,
		SSLStatus:         domain.SSLStatusPending,
	}

	if err := s.domains.Create(ctx, record); err != nil {
		if errors.Is(err, domain.ErrDomainTaken) {
			return nil, domain.NewError(domain.ErrorCodeResourceConflict, err,
				domain.WithMsg("Domain "+name+" is already claimed"))
		}
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, err,
			domain.WithMsg("Failed to create domain"))
	}

	// Seed the funnel mirror so the dashboard shows the pending domain.
	if err := s.funnels.UpdateDomainMirror(ctx, funnelID, name, false); err != nil {
		logger.Error().Err(err).
			Str("funnel_id", funnelID.String()).
			Msg("failed to seed funnel domain mirror, mirror is stale")
	}

	logger.Info().Str("domain", name).Str("owner_id", ownerID.String()).Msg("domain created")
	return record, nil
}

// ListDomains returns an owner's domain records, optionally narrowed to a
// funnel and/or a record id.
func (s *DomainService) ListDomains(ctx context.Context, ownerID uuid.UUID, funnelID, id *uuid.UUID) ([]*domain.DomainRecord, error) {
	records, err := s.domains.FindByOwner(ctx, ownerID, funnelID, id)
	if err != nil {
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, err,
			domain.WithMsg("Failed to list domains"))
	}
	return records, nil
}

// GetDomain returns a single record scoped to its owner.
func (s *DomainService) GetDomain(ctx context.Context, id, ownerID uuid.UUID) (*domain.DomainRecord, error) {
	record, err := s.domains.FindByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewError(domain.ErrorCodeResourceNotFound, err,
				domain.WithMsg("Domain not found"))
		}
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, err,
			domain.WithMsg("Failed to load domain"))
	}
	return record, nil
}

// DeleteDomain removes a record and clears the funnel mirror. The two steps
// are sequential and independently retriable: if the mirror clear fails the
// delete still succeeds, the inconsistency is logged, and the background
// reconciliation pass repairs it.
func (s *DomainService) DeleteDomain(ctx context.Context, id, ownerID uuid.UUID) error {
	logger := s.logger(ctx)

	record, err := s.domains.FindByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.NewError(domain.ErrorCodeResourceNotFound, err,
				domain.WithMsg("Domain not found"))
		}
		return domain.NewError(domain.ErrorCodeInternalProcess, err,
			domain.WithMsg("Failed to load domain"))
	}

	if err := s.domains.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.NewError(domain.ErrorCodeResourceNotFound, err,
				domain.WithMsg("Domain not found"))
		}
		return domain.NewError(domain.ErrorCodeInternalProcess, err,
			domain.WithMsg("Failed to delete domain"))
	}

	if err := s.funnels.ClearDomainMirror(ctx, record.FunnelID); err != nil {
		logger.Error().Err(err).
			Str("funnel_id", record.FunnelID.String()).
			Str("domain", record.Domain).
			Msg("failed to clear funnel domain mirror, mirror is stale")
	}

	s.invalidateRoute(ctx, record.Domain)

	logger.Info().Str("domain", record.Domain).Msg("domain deleted")
	return nil
}

func (s *DomainService) invalidateRoute(ctx context.Context, host string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, host); err != nil {
		s.logger(ctx).Warn().Err(err).Str("host", host).Msg("failed to invalidate route cache")
	}
}

// DNSInstructionsFor exposes the record set tenants must publish for a domain.
func (s *DomainService) DNSInstructionsFor(record *domain.DomainRecord) domain.DNSInstructions {
	return record.DNSInstructions(s.cfg.ServingHost)
}
