package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ascension-ai/backend/src/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FunnelRepository is the postgres-backed domain.FunnelRepository.
type FunnelRepository struct {
	db *gorm.DB
}

func NewFunnelRepository(db *gorm.DB) *FunnelRepository {
	return &FunnelRepository{db: db}
}

func (r *FunnelRepository) Create(ctx context.Context, funnel *domain.Funnel) error {
	return r.db.WithContext(ctx).Create(funnel).Error
}

func (r *FunnelRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Funnel, error) {
	var funnel domain.Funnel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&funnel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &funnel, nil
}

func (r *FunnelRepository) FindPublishedByDomain(ctx context.Context, name string) (*domain.Funnel, error) {
	var funnel domain.Funnel
	err := r.db.WithContext(ctx).
		Where("domain = ? AND status = ?", domain.NormalizeDomain(name), domain.FunnelStatusPublished).
		First(&funnel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &funnel, nil
}

func (r *FunnelRepository) SearchPublishedByName(ctx context.Context, fragment string) (*domain.Funnel, error) {
	var funnel domain.Funnel
	pattern := "%" + strings.ToLower(fragment) + "%"
	err := r.db.WithContext(ctx).
		Where("status = ? AND LOWER(name) LIKE ?", domain.FunnelStatusPublished, pattern).
		Order("created_at ASC").
		First(&funnel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &funnel, nil
}

func (r *FunnelRepository) UpdateDomainMirror(ctx context.Context, funnelID uuid.UUID, customDomain string, verified bool) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Funnel{}).
		Where("id = ?", funnelID).
		Updates(map[string]interface{}{
			"custom_domain":   customDomain,
			"domain_verified": verified,
			"updated_at":      time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *FunnelRepository) ClearDomainMirror(ctx context.Context, funnelID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Funnel{}).
		Where("id = ?", funnelID).
		Updates(map[string]interface{}{
			"custom_domain":   "",
			"domain_verified": false,
			"updated_at":      time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}
