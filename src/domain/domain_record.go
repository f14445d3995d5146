package domain

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SSLStatus tracks certificate provisioning for a custom domain. Issuance
// itself happens at the hosting edge; we only track the flag.
type SSLStatus string

const (
	SSLStatusPending SSLStatus = "pending"
	SSLStatusActive  SSLStatus = "active"
	SSLStatusError   SSLStatus = "error"
)

// VerificationPrefix is the marker tenants publish in their ownership TXT
// record, as "<prefix>=<token>".
const VerificationPrefix = "ascension-verify"

// DomainRecord maps a tenant-owned domain name to a funnel. A domain only
// routes traffic once Verified is true.
type DomainRecord struct {
	ID                uuid.UUID  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	OwnerID           uuid.UUID  `gorm:"type:uuid;not null;index:idx_custom_domains_owner_funnel" json:"ownerId"`
	FunnelID          uuid.UUID  `gorm:"type:uuid;not null;index:idx_custom_domains_owner_funnel" json:"funnelId"`
	Domain            string     `gorm:"uniqueIndex;size:253;not null" json:"domain"`
	VerificationToken string     `gorm:"size:64;not null" json:"verificationToken"`
	Verified          bool       `gorm:"not null;default:false" json:"verified"`
	SSLStatus         SSLStatus  `gorm:"type:varchar(16);not null;default:'pending'" json:"sslStatus"`
	CreatedAt         time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt         time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
	LastVerifiedAt    *time.Time `json:"lastVerifiedAt,omitempty"`
}

func (DomainRecord) TableName() string {
	return "custom_domains"
}

// DNSRecord is a single record the tenant must create at their DNS provider.
type DNSRecord struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// DNSInstructions is the record set surfaced to the tenant after creating a
// domain: a CNAME pointing at the platform and a TXT proving ownership.
type DNSInstructions struct {
	CNAME DNSRecord `json:"cname"`
	TXT   DNSRecord `json:"txt"`
}

// DNSInstructions builds the record set for this domain. servingHost is the
// platform hostname tenant CNAMEs must point at.
func (d *DomainRecord) DNSInstructions(servingHost string) DNSInstructions {
	return DNSInstructions{
		CNAME: DNSRecord{
			Name:  d.Domain,
			Value: servingHost,
			Type:  "CNAME",
		},
		TXT: DNSRecord{
			Name:  "_" + VerificationPrefix + "." + d.Domain,
			Value: VerificationPrefix + "=" + d.VerificationToken,
			Type:  "TXT",
		},
	}
}

// NewVerificationToken returns an opaque random token the tenant publishes
// via DNS to prove control of the domain.
func NewVerificationToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

var domainLabelRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// NormalizeDomain lower-cases and trims a domain name, dropping any trailing
// dot DNS answers carry.
func NormalizeDomain(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return strings.TrimSuffix(name, ".")
}

// ValidateDomainName checks a fully-qualified domain name against the DNS
// label grammar: total length <= 253, at least two labels, each label 1-63
// alphanumeric/hyphen characters without leading or trailing hyphen.
func ValidateDomainName(name string) error {
	name = NormalizeDomain(name)
	if name == "" {
		return errors.New("domain is required")
	}
	if len(name) > 253 {
		return errors.New("domain must be at most 253 characters")
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return errors.New("domain must include at least two labels (e.g. example.com)")
	}
	for _, label := range labels {
		if !domainLabelRegex.MatchString(label) {
			return fmt.Errorf("invalid domain label %q", label)
		}
	}
	return nil
}

// DomainRepository is the persistence boundary for domain records. Implemented
// by repository.DomainRepository (postgres) and by in-memory fakes in tests.
type DomainRepository interface {
	// Create inserts a record. Returns ErrDomainTaken if the domain name is
	// already claimed by any owner.
	Create(ctx context.Context, record *DomainRecord) error

	// FindByID returns the record scoped to its owner, or ErrRecordNotFound.
	FindByID(ctx context.Context, id, ownerID uuid.UUID) (*DomainRecord, error)

	// FindByDomain returns the record for an exact domain name regardless of
	// owner, or ErrRecordNotFound.
	FindByDomain(ctx context.Context, domain string) (*DomainRecord, error)

	// FindByOwner lists an owner's records, optionally narrowed to a funnel
	// and/or a specific record id.
	FindByOwner(ctx context.Context, ownerID uuid.UUID, funnelID, id *uuid.UUID) ([]*DomainRecord, error)

	// FindVerified lists all verified records (used by background re-checks).
	FindVerified(ctx context.Context) ([]*DomainRecord, error)

	// MarkVerified atomically sets verified=true, ssl_status=active and
	// last_verified_at, keyed by id and owner.
	MarkVerified(ctx context.Context, id, ownerID uuid.UUID, at time.Time) error

	// Delete removes the record scoped to its owner. Returns
	// ErrRecordNotFound if nothing matched.
	Delete(ctx context.Context, id, ownerID uuid.UUID) error

	// DeleteByOwnerAndFunnel removes any record for the owner+funnel pair,
	// returning the deleted records (zero or one under normal operation).
	DeleteByOwnerAndFunnel(ctx context.Context, ownerID, funnelID uuid.UUID) ([]*DomainRecord, error)
}
