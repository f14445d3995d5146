package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/ascension-ai/backend/src/domain"
	"github.com/google/uuid"
)

// FunnelService is the thin surface over funnels the routing layer needs: the
// funnel content itself is produced elsewhere, we only keep the records the
// resolver and the domain mirror operate on.
type FunnelService struct {
	funnels domain.FunnelRepository
	cfg     PlatformConfig
}

func NewFunnelService(funnels domain.FunnelRepository, cfg PlatformConfig) *FunnelService {
	return &FunnelService{funnels: funnels, cfg: cfg}
}

var slugCleanup = regexp.MustCompile(`[^a-z0-9]+`)

// DefaultDomainFor derives the platform-default domain for a funnel name,
// e.g. "My Landing Page" -> "my-landing-page.<apex>".
func (s *FunnelService) DefaultDomainFor(name string) string {
	slug := strings.Trim(slugCleanup.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		slug = "funnel"
	}
	return slug + "." + s.cfg.ApexDomain
}

// CreateFunnel registers a funnel with its platform-default domain.
func (s *FunnelService) CreateFunnel(ctx context.Context, ownerID uuid.UUID, name string, status domain.FunnelStatus) (*domain.Funnel, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewError(domain.ErrorCodeParameterInvalid,
			errors.New("funnel name is required"), domain.WithMsg("Funnel name is required"))
	}
	if status == "" {
		status = domain.FunnelStatusDraft
	}

	funnel := &domain.Funnel{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Name:    name,
		Domain:  s.DefaultDomainFor(name),
		Status:  status,
	}
	if err := s.funnels.Create(ctx, funnel); err != nil {
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, err,
			domain.WithMsg("Failed to create funnel"))
	}
	return funnel, nil
}

// GetFunnel loads a funnel by id.
func (s *FunnelService) GetFunnel(ctx context.Context, id uuid.UUID) (*domain.Funnel, error) {
	funnel, err := s.funnels.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewError(domain.ErrorCodeResourceNotFound, err,
				domain.WithMsg("Funnel not found"))
		}
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, err,
			domain.WithMsg("Failed to load funnel"))
	}
	return funnel, nil
}
