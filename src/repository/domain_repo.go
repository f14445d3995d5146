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

// DomainRepository is the postgres-backed domain.DomainRepository.
type DomainRepository struct {
	db *gorm.DB
}

func NewDomainRepository(db *gorm.DB) *DomainRepository {
	return &DomainRepository{db: db}
}

func (r *DomainRepository) Create(ctx context.Context, record *domain.DomainRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		// The unique index on domain closes the claim race between owners.
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrDomainTaken
		}
		return err
	}
	return nil
}

func (r *DomainRepository) FindByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.DomainRecord, error) {
	var record domain.DomainRecord
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *DomainRepository) FindByDomain(ctx context.Context, name string) (*domain.DomainRecord, error) {
	var record domain.DomainRecord
	err := r.db.WithContext(ctx).
		Where("domain = ?", domain.NormalizeDomain(name)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *DomainRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, funnelID, id *uuid.UUID) ([]*domain.DomainRecord, error) {
	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if funnelID != nil {
		query = query.Where("funnel_id = ?", *funnelID)
	}
	if id != nil {
		query = query.Where("id = ?", *id)
	}

	var records []*domain.DomainRecord
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *DomainRepository) FindVerified(ctx context.Context) ([]*domain.DomainRecord, error) {
	var records []*domain.DomainRecord
	if err := r.db.WithContext(ctx).Where("verified = ?", true).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// MarkVerified commits the verified state in a single conditional update keyed
// by id and owner, so a concurrent duplicate verify never half-applies.
func (r *DomainRepository) MarkVerified(ctx context.Context, id, ownerID uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.DomainRecord{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]interface{}{
			"verified":         true,
			"ssl_status":       domain.SSLStatusActive,
			"last_verified_at": at,
			"updated_at":       at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *DomainRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&domain.DomainRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *DomainRepository) DeleteByOwnerAndFunnel(ctx context.Context, ownerID, funnelID uuid.UUID) ([]*domain.DomainRecord, error) {
	var records []*domain.DomainRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ? AND funnel_id = ?", ownerID, funnelID).Find(&records).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Where("owner_id = ? AND funnel_id = ?", ownerID, funnelID).
			Delete(&domain.DomainRecord{}).Error
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
