package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ascension-ai/backend/src/domain"
	"github.com/ascension-ai/backend/src/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testPlatform = service.PlatformConfig{
	AppHost:       "ascension-ai-sm36.vercel.app",
	ApexDomain:    "ascension-ai-sm36.vercel.app",
	ServingHost:   "ascension-ai-sm36.vercel.app",
	BaseTLDMarker: "vercel.app",
}

// testEnv wires real services over in-memory storage behind a gin engine.
type testEnv struct {
	router   *gin.Engine
	domains  *memDomains
	funnels  *memFunnels
	resolver *stubResolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	domains := &memDomains{records: make(map[uuid.UUID]*domain.DomainRecord)}
	funnels := &memFunnels{funnels: make(map[uuid.UUID]*domain.Funnel)}
	resolver := &stubResolver{
		cname: make(map[string][]string),
		a:     make(map[string][]string),
		txt:   make(map[string][]string),
	}

	domainService := service.NewDomainService(domains, funnels, nil, testPlatform)
	verificationService := service.NewVerificationService(domains, funnels, resolver, nil, testPlatform)
	funnelService := service.NewFunnelService(funnels, testPlatform)
	tenantResolver := service.NewTenantResolver(domains, funnels, nil, testPlatform)
	classifier := service.NewHostClassifier(testPlatform)

	router := gin.New()
	RegisterRoutes(context.Background(), router, Services{
		Domains:      domainService,
		Verification: verificationService,
		Funnels:      funnelService,
		Resolver:     tenantResolver,
		Classifier:   classifier,
	})

	return &testEnv{router: router, domains: domains, funnels: funnels, resolver: resolver}
}

func (e *testEnv) do(t *testing.T, method, target, host string, body io.Reader) (*httptest.ResponseRecorder, StandardResponse) {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if host != "" {
		req.Host = host
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	// gin's default 404/405 bodies are plain text, everything we write is JSON.
	var parsed StandardResponse
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed), "body: %s", rec.Body.String())
	}
	return rec, parsed
}

func (e *testEnv) seedFunnel(t *testing.T, name string, status domain.FunnelStatus) *domain.Funnel {
	t.Helper()
	funnel := &domain.Funnel{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Name:    name,
		Domain:  strings.ToLower(strings.ReplaceAll(name, " ", "-")) + "." + testPlatform.ApexDomain,
		Status:  status,
	}
	require.NoError(t, e.funnels.Create(context.Background(), funnel))
	return funnel
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return strings.NewReader(string(raw))
}

func dataMap(t *testing.T, resp StandardResponse) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return data
}

// memDomains is an in-memory domain.DomainRepository.
type memDomains struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.DomainRecord
}

func (r *memDomains) Create(_ context.Context, record *domain.DomainRecord) error {
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

func (r *memDomains) FindByID(_ context.Context, id, ownerID uuid.UUID) (*domain.DomainRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok || record.OwnerID != ownerID {
		return nil, domain.ErrRecordNotFound
	}
	copied := *record
	return &copied, nil
}

func (r *memDomains) FindByDomain(_ context.Context, name string) (*domain.DomainRecord, error) {
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

func (r *memDomains) FindByOwner(_ context.Context, ownerID uuid.UUID, funnelID, id *uuid.UUID) ([]*domain.DomainRecord, error) {
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

func (r *memDomains) FindVerified(_ context.Context) ([]*domain.DomainRecord, error) {
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

func (r *memDomains) MarkVerified(_ context.Context, id, ownerID uuid.UUID, at time.Time) error {
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

func (r *memDomains) Delete(_ context.Context, id, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok || record.OwnerID != ownerID {
		return domain.ErrRecordNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *memDomains) DeleteByOwnerAndFunnel(_ context.Context, ownerID, funnelID uuid.UUID) ([]*domain.DomainRecord, error) {
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

// memFunnels is an in-memory domain.FunnelRepository.
type memFunnels struct {
	mu      sync.Mutex
	funnels map[uuid.UUID]*domain.Funnel
}

func (r *memFunnels) Create(_ context.Context, funnel *domain.Funnel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	funnel.CreatedAt = now
	funnel.UpdatedAt = now
	copied := *funnel
	r.funnels[funnel.ID] = &copied
	return nil
}

func (r *memFunnels) FindByID(_ context.Context, id uuid.UUID) (*domain.Funnel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	funnel, ok := r.funnels[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	copied := *funnel
	return &copied, nil
}

func (r *memFunnels) FindPublishedByDomain(_ context.Context, name string) (*domain.Funnel, error) {
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

func (r *memFunnels) SearchPublishedByName(_ context.Context, fragment string) (*domain.Funnel, error) {
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

func (r *memFunnels) UpdateDomainMirror(_ context.Context, funnelID uuid.UUID, customDomain string, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	funnel, ok := r.funnels[funnelID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	funnel.CustomDomain = customDomain
	funnel.DomainVerified = verified
	return nil
}

func (r *memFunnels) ClearDomainMirror(_ context.Context, funnelID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	funnel, ok := r.funnels[funnelID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	funnel.CustomDomain = ""
	funnel.DomainVerified = false
	return nil
}

// stubResolver serves canned DNS answers, erroring for unknown hosts.
type stubResolver struct {
	cname map[string][]string
	a     map[string][]string
	txt   map[string][]string
}

func (r *stubResolver) LookupCNAME(_ context.Context, host string) ([]string, error) {
	if targets, ok := r.cname[host]; ok {
		return targets, nil
	}
	return nil, errors.New("no such host")
}

func (r *stubResolver) LookupA(_ context.Context, host string) ([]string, error) {
	if ips, ok := r.a[host]; ok {
		return ips, nil
	}
	return nil, errors.New("no such host")
}

func (r *stubResolver) LookupTXT(_ context.Context, host string) ([]string, error) {
	if values, ok := r.txt[host]; ok {
		return values, nil
	}
	return nil, errors.New("no such host")
}
