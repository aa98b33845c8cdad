package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rumor-trust-system/internal/models"
	apperrors "rumor-trust-system/pkg/errors"
)

type ReputationRepository struct {
	db *gorm.DB
}

func NewReputationRepository(db *gorm.DB) *ReputationRepository {
	return &ReputationRepository{db: db}
}

func (r *ReputationRepository) WithTx(tx *gorm.DB) *ReputationRepository {
	return &ReputationRepository{db: tx}
}

// GetOrCreate 获取投票人账户，首次出现时按初始积分开户
func (r *ReputationRepository) GetOrCreate(ctx context.Context, voterID string, initialPoints int64) (*models.ReputationAccount, error) {
	account := &models.ReputationAccount{
		VoterID:     voterID,
		PointsTotal: initialPoints,
	}
	err := r.db.WithContext(ctx).
		Where("voter_id = ?", voterID).
		FirstOrCreate(account).Error
	return account, err
}

func (r *ReputationRepository) GetByVoter(ctx context.Context, voterID string) (*models.ReputationAccount, error) {
	var account models.ReputationAccount
	err := r.db.WithContext(ctx).
		Where("voter_id = ?", voterID).
		First(&account).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &account, err
}

// Stake 把积分从可用池原子移入押注池
// 余额不足时条件更新不命中，返回校验错误
func (r *ReputationRepository) Stake(ctx context.Context, voterID string, amount int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.ReputationAccount{}).
		Where("voter_id = ? AND points_total >= ?", voterID, amount).
		Updates(map[string]interface{}{
			"points_total":  gorm.Expr("points_total - ?", amount),
			"points_staked": gorm.Expr("points_staked + ?", amount),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.KindValidation, "insufficient points to stake", nil)
	}
	return nil
}

func (r *ReputationRepository) CreateStake(ctx context.Context, stake *models.VoteStake) error {
	return r.db.WithContext(ctx).Create(stake).Error
}

// ListUnsettledByClaim 取回传闻下尚未结算的押注
func (r *ReputationRepository) ListUnsettledByClaim(ctx context.Context, claimID uint64) ([]models.VoteStake, error) {
	var stakes []models.VoteStake
	err := r.db.WithContext(ctx).
		Where("claim_id = ? AND settled = ?", claimID, false).
		Find(&stakes).Error
	return stakes, err
}

// SettleStake 释放押注并按结算结果调整账户，同时标记押注已结算
// refund 为回到可用池的积分（本金加成、仅本金或0）
func (r *ReputationRepository) SettleStake(ctx context.Context, stake *models.VoteStake, refund int64, correct bool) error {
	updates := map[string]interface{}{
		"points_staked": gorm.Expr("points_staked - ?", stake.Amount),
		"points_total":  gorm.Expr("points_total + ?", refund),
		"total_votes":   gorm.Expr("total_votes + 1"),
	}
	if correct {
		updates["correct_votes"] = gorm.Expr("correct_votes + 1")
	}

	if err := r.db.WithContext(ctx).
		Model(&models.ReputationAccount{}).
		Where("voter_id = ?", stake.VoterID).
		Updates(updates).Error; err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&models.VoteStake{}).
		Where("id = ? AND settled = ?", stake.ID, false).
		Update("settled", true).Error
}
