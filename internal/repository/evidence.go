package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rumor-trust-system/internal/models"
)

type EvidenceRepository struct {
	db *gorm.DB
}

func NewEvidenceRepository(db *gorm.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

func (r *EvidenceRepository) WithTx(tx *gorm.DB) *EvidenceRepository {
	return &EvidenceRepository{db: tx}
}

func (r *EvidenceRepository) Create(ctx context.Context, evidence *models.Evidence) error {
	return r.db.WithContext(ctx).Create(evidence).Error
}

// GetByID 获取证据，不存在返回nil
func (r *EvidenceRepository) GetByID(ctx context.Context, id uint64) (*models.Evidence, error) {
	var evidence models.Evidence
	err := r.db.WithContext(ctx).First(&evidence, id).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &evidence, err
}

func (r *EvidenceRepository) GetByClaim(ctx context.Context, claimID uint64) ([]models.Evidence, error) {
	var evidence []models.Evidence
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("created_at ASC").
		Find(&evidence).Error
	return evidence, err
}

// CountGroupedByClaim 一次查询取回多个传闻的证据数，供列表页使用
func (r *EvidenceRepository) CountGroupedByClaim(ctx context.Context, claimIDs []uint64) (map[uint64]int64, error) {
	type claimCount struct {
		ClaimID uint64
		Count   int64
	}

	var results []claimCount
	err := r.db.WithContext(ctx).
		Model(&models.Evidence{}).
		Select("claim_id, COUNT(*) as count").
		Where("claim_id IN ?", claimIDs).
		Group("claim_id").
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	counts := make(map[uint64]int64)
	for _, c := range results {
		counts[c.ClaimID] = c.Count
	}
	return counts, nil
}
