package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ascension-ai/backend/src/domain"
	"github.com/google/uuid"
)

// memDomainRepo is an in-memory domain.DomainRepository for service tests.
type memDomainRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.DomainRecord
}

func newMemDomainRepo() *memDomainRepo {
	return &memDomainRepo{records: make(map[uuid.UUID]*domain.DomainRecord)}
}

func (r *memDomainRepo) Create(_ context.Context, record *domain.DomainRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.Domain == record.Domain {
			return domain.ErrDomainTaken
		}
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	copied := *record
	r.records[record.ID] = &copied
	return nil
}

func (r *memDomainRepo) FindByID(_ context.Context, id, ownerID uuid.UUID) (*domain.DomainRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok || record.OwnerID != ownerID {
		return nil, domain.ErrRecordNotFound
	}
	copied := *record
	return &copied, nil
}

func (r *memDomainRepo) FindByDomain(_ context.Context, name string) (*domain.DomainRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.Domain == domain.NormalizeDomain(name) {
			copied := *record
			return &copied, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *memDomainRepo) FindByOwner(_ context.Context, ownerID uuid.UUID, funnelID, id *uuid.UUID) ([]*domain.DomainRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.DomainRecord
	for _, record := range r.records {
		if record.OwnerID != ownerID {
			continue
		}
		if funnelID != nil && record.FunnelID != *funnelID {
			continue
		}
		if id != nil && record.ID != *id {
			continue
		}
		copied := *record
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memDomainRepo) FindVerified(_ context.Context) ([]*domain.DomainRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.DomainRecord
	for _, record := range r.records {
		if record.Verified {
			copied := *record
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memDomainRepo) MarkVerified(_ context.Context, id, ownerID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok || record.OwnerID != ownerID {
		return domain.ErrRecordNotFound
	}
	record.Verified = true
	record.SSLStatus = domain.SSLStatusActive
	record.LastVerifiedAt = &at
	record.UpdatedAt = at
	return nil
}

func (r *memDomainRepo) Delete(_ context.Context, id, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok || record.OwnerID != ownerID {
		return domain.ErrRecordNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *memDomainRepo) DeleteByOwnerAndFunnel(_ context.Context, ownerID, funnelID uuid.UUID) ([]*domain.DomainRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted []*domain.DomainRecord
	for id, record := range r.records {
		if record.OwnerID == ownerID && record.FunnelID == funnelID {
			copied := *record
			deleted = append(deleted, &copied)
			delete(r.records, id)
		}
	}
	return deleted, nil
}

// memFunnelRepo is an in-memory domain.FunnelRepository for service tests.
type memFunnelRepo struct {
	mu      sync.Mutex
	funnels map[uuid.UUID]*domain.Funnel

	// failMirror makes mirror updates fail, to test best-effort semantics.
	failMirror bool
}

func newMemFunnelRepo() *memFunnelRepo {
	return &memFunnelRepo{funnels: make(map[uuid.UUID]*domain.Funnel)}
}

func (r *memFunnelRepo) Create(_ context.Context, funnel *domain.Funnel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	funnel.CreatedAt = now
	funnel.UpdatedAt = now
	copied := *funnel
	r.funnels[funnel.ID] = &copied
	return nil
}

func (r *memFunnelRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Funnel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	funnel, ok := r.funnels[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	copied := *funnel
	return &copied, nil
}

func (r *memFunnelRepo) FindPublishedByDomain(_ context.Context, name string) (*domain.Funnel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, funnel := range r.funnels {
		if funnel.Status == domain.FunnelStatusPublished && funnel.Domain == domain.NormalizeDomain(name) {
			copied := *funnel
			return &copied, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *memFunnelRepo) SearchPublishedByName(_ context.Context, fragment string) (*domain.Funnel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var match *domain.Funnel
	for _, funnel := range r.funnels {
		if funnel.Status != domain.FunnelStatusPublished {
			continue
		}
		if strings.Contains(strings.ToLower(funnel.Name), strings.ToLower(fragment)) {
			if match == nil || funnel.CreatedAt.Before(match.CreatedAt) {
				match = funnel
			}
		}
	}
	if match == nil {
		return nil, domain.ErrRecordNotFound
	}
	copied := *match
	return &copied, nil
}

func (r *memFunnelRepo) UpdateDomainMirror(_ context.Context, funnelID uuid.UUID, customDomain string, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failMirror {
		return errors.New("mirror update failed")
	}
	funnel, ok := r.funnels[funnelID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	funnel.CustomDomain = customDomain
	funnel.DomainVerified = verified
	return nil
}

func (r *memFunnelRepo) ClearDomainMirror(_ context.Context, funnelID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failMirror {
		return errors.New("mirror clear failed")
	}
	funnel, ok := r.funnels[funnelID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	funnel.CustomDomain = ""
	funnel.DomainVerified = false
	return nil
}

// fakeResolver serves canned DNS answers. A missing entry behaves like
// NXDOMAIN: the lookup returns an error.
type fakeResolver struct {
	cname map[string][]string
	a     map[string][]string
	txt   map[string][]string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		cname: make(map[string][]string),
		a:     make(map[string][]string),
		txt:   make(map[string][]string),
	}
}

func (r *fakeResolver) LookupCNAME(_ context.Context, host string) ([]string, error) {
	if targets, ok := r.cname[host]; ok {
		return targets, nil
	}
	return nil, errors.New("no such host")
}

func (r *fakeResolver) LookupA(_ context.Context, host string) ([]string, error) {
	if ips, ok := r.a[host]; ok {
		return ips, nil
	}
	return nil, errors.New("no such host")
}

func (r *fakeResolver) LookupTXT(_ context.Context, host string) ([]string, error) {
	if values, ok := r.txt[host]; ok {
		return values, nil
	}
	return nil, errors.New("no such host")
}

// memRouteCache is an in-memory RouteCache.
type memRouteCache struct {
	mu     sync.Mutex
	routes map[string]*CachedRoute
}

func newMemRouteCache() *memRouteCache {
	return &memRouteCache{routes: make(map[string]*CachedRoute)}
}

func (c *memRouteCache) Get(_ context.Context, host string) (*CachedRoute, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.routes[host], nil
}

func (c *memRouteCache) Set(_ context.Context, host string, route *CachedRoute) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[host] = route
	return nil
}

func (c *memRouteCache) Invalidate(_ context.Context, host string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.routes, host)
	return nil
}

var testPlatform = PlatformConfig{
	AppHost:       "ascension-ai-sm36.vercel.app",
	ApexDomain:    "ascension-ai-sm36.vercel.app",
	ServingHost:   "ascension-ai-sm36.vercel.app",
	BaseTLDMarker: "vercel.app",
}
