package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"rumor-trust-system/internal/models"
	apperrors "rumor-trust-system/pkg/errors"
)

type ClaimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓库副本
func (r *ClaimRepository) WithTx(tx *gorm.DB) *ClaimRepository {
	return &ClaimRepository{db: tx}
}

func (r *ClaimRepository) Create(ctx context.Context, claim *models.Claim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

// GetByID 获取传闻，不存在返回nil
func (r *ClaimRepository) GetByID(ctx context.Context, id uint64) (*models.Claim, error) {
	var claim models.Claim
	err := r.db.WithContext(ctx).First(&claim, id).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &claim, err
}

// List 按时间或热度排序分页获取传闻
func (r *ClaimRepository) List(ctx context.Context, sort string, offset, limit int) ([]models.Claim, error) {
	order := "created_at DESC"
	if sort == "popular" {
		order = "view_count DESC"
	}

	var claims []models.Claim
	err := r.db.WithContext(ctx).
		Order(order).
		Offset(offset).
		Limit(limit).
		Find(&claims).Error
	return claims, err
}

func (r *ClaimRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Claim{}).
		Count(&count).Error
	return count, err
}

// ListActive 按id游标分页获取未终结的传闻，定时清扫使用
func (r *ClaimRepository) ListActive(ctx context.Context, afterID uint64, limit int) ([]models.Claim, error) {
	var claims []models.Claim
	err := r.db.WithContext(ctx).
		Where("status = ? AND id > ?", models.StatusActive, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&claims).Error
	return claims, err
}

func (r *ClaimRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("status = ?", models.StatusActive).
		Count(&count).Error
	return count, err
}

// IncrementViewCount 原子自增浏览数，不经过读-改-写
func (r *ClaimRepository) IncrementViewCount(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// UpdateResolution 带版本检查的条件更新，写入分数、状态与持续时间跟踪字段
// 版本不匹配说明并发写已经落库，返回PersistenceConflict由调用方重试
func (r *ClaimRepository) UpdateResolution(ctx context.Context, claim *models.Claim, newScore float64, newStatus models.ClaimStatus, qualifyingSince *time.Time, qualifyingBand string, now time.Time) error {
	updates := map[string]interface{}{
		"trust_score":      newScore,
		"status":           newStatus,
		"qualifying_since": qualifyingSince,
		"qualifying_band":  qualifyingBand,
		"version":          claim.Version + 1,
	}
	if newStatus != claim.Status {
		updates["status_entered_at"] = now
	}

	result := r.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("id = ? AND version = ?", claim.ID, claim.Version).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.KindPersistenceConflict, "claim was modified concurrently", nil)
	}

	claim.TrustScore = newScore
	claim.Status = newStatus
	claim.QualifyingSince = qualifyingSince
	claim.QualifyingBand = qualifyingBand
	claim.Version++
	return nil
}
