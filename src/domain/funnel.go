package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type FunnelStatus string

const (
	FunnelStatusDraft     FunnelStatus = "draft"
	FunnelStatusPublished FunnelStatus = "published"
)

// Funnel is the published content record a domain ultimately serves. The
// CustomDomain/DomainVerified pair mirrors the owning DomainRecord so the
// routing hot path never needs a join; the mirror is maintained on every
// domain create, verify and delete.
type Funnel struct {
	ID             uuid.UUID    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	OwnerID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"ownerId"`
	Name           string       `gorm:"size:255;not null" json:"name"`
	Domain         string       `gorm:"size:253;index" json:"domain"`
	Status         FunnelStatus `gorm:"type:varchar(16);not null;default:'draft'" json:"status"`
	CustomDomain   string       `gorm:"size:253" json:"customDomain,omitempty"`
	DomainVerified bool         `gorm:"not null;default:false" json:"domainVerified"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (Funnel) TableName() string {
	return "funnels"
}

// FunnelRepository is the persistence boundary for funnels. The routing layer
// only reads; the mirror updates are driven by the domain lifecycle.
type FunnelRepository interface {
	Create(ctx context.Context, funnel *Funnel) error

	// FindByID returns the funnel or ErrRecordNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Funnel, error)

	// FindPublishedByDomain matches a published funnel on its platform-default
	// domain, or ErrRecordNotFound.
	FindPublishedByDomain(ctx context.Context, domain string) (*Funnel, error)

	// SearchPublishedByName returns the first published funnel whose name
	// contains the fragment (case-insensitive), or ErrRecordNotFound.
	SearchPublishedByName(ctx context.Context, fragment string) (*Funnel, error)

	// UpdateDomainMirror sets the denormalized custom domain fields.
	UpdateDomainMirror(ctx context.Context, funnelID uuid.UUID, customDomain string, verified bool) error

	// ClearDomainMirror resets the denormalized custom domain fields.
	ClearDomainMirror(ctx context.Context, funnelID uuid.UUID) error
}
