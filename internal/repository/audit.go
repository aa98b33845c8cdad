package repository

import (
	"context"

	"gorm.io/gorm"

	"rumor-trust-system/internal/models"
)

// AuditRepository 审计日志仓库，只提供追加和读取
// 没有更新和删除方法，这不是疏漏
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) WithTx(tx *gorm.DB) *AuditRepository {
	return &AuditRepository{db: tx}
}

func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *AuditRepository) GetByClaim(ctx context.Context, claimID uint64) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

func (r *AuditRepository) CountByClaim(ctx context.Context, claimID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AuditEntry{}).
		Where("claim_id = ?", claimID).
		Count(&count).Error
	return count, err
}
