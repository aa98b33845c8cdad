package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rumor-trust-system/internal/models"
	"rumor-trust-system/internal/scoring"
	apperrors "rumor-trust-system/pkg/errors"
)

type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) WithTx(tx *gorm.DB) *VoteRepository {
	return &VoteRepository{db: tx}
}

// Create 单条条件插入，指纹唯一索引与写入在同一语句内完成
// 不做先查后插，并发提交同一指纹时由唯一索引兜底
func (r *VoteRepository) Create(ctx context.Context, vote *models.EvidenceVote) error {
	err := r.db.WithContext(ctx).Create(vote).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.New(apperrors.KindDuplicateVote, "a vote with this fingerprint already exists", err)
	}
	return err
}

// TallyForEvidence 统计单条证据的赞/踩票数
func (r *VoteRepository) TallyForEvidence(ctx context.Context, evidenceID uint64) (helpful, disputing int64, err error) {
	err = r.db.WithContext(ctx).
		Model(&models.EvidenceVote{}).
		Where("evidence_id = ? AND is_helpful = ?", evidenceID, true).
		Count(&helpful).Error
	if err != nil {
		return 0, 0, err
	}

	err = r.db.WithContext(ctx).
		Model(&models.EvidenceVote{}).
		Where("evidence_id = ? AND is_helpful = ?", evidenceID, false).
		Count(&disputing).Error
	return helpful, disputing, err
}

// TalliesForClaim 汇总传闻全部证据的立场与票数，计分器的唯一输入
// 无票证据也返回，保持计分输入与证据集一一对应
func (r *VoteRepository) TalliesForClaim(ctx context.Context, claimID uint64) ([]scoring.EvidenceTally, error) {
	type tallyRow struct {
		IsSupporting bool
		Helpful      int64
		Disputing    int64
	}

	var rows []tallyRow
	err := r.db.WithContext(ctx).
		Raw(`
			SELECT e.is_supporting,
			       COALESCE(SUM(CASE WHEN v.is_helpful = 1 THEN 1 ELSE 0 END), 0) AS helpful,
			       COALESCE(SUM(CASE WHEN v.is_helpful = 0 THEN 1 ELSE 0 END), 0) AS disputing
			FROM evidence e
			LEFT JOIN evidence_votes v ON v.evidence_id = e.id
			WHERE e.claim_id = ?
			GROUP BY e.id, e.is_supporting
		`, claimID).
		Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	tallies := make([]scoring.EvidenceTally, 0, len(rows))
	for _, row := range rows {
		tallies = append(tallies, scoring.EvidenceTally{
			IsSupporting: row.IsSupporting,
			Helpful:      row.Helpful,
			Disputing:    row.Disputing,
		})
	}
	return tallies, nil
}

// VoteDirection 结算用的投票方向视图：指纹、投票方向、证据立场
// 不含任何身份信息
type VoteDirection struct {
	Fingerprint  string
	IsHelpful    bool
	IsSupporting bool
}

// DirectionsForClaim 取回传闻下全部投票的方向，供声誉结算
func (r *VoteRepository) DirectionsForClaim(ctx context.Context, claimID uint64) ([]VoteDirection, error) {
	var directions []VoteDirection
	err := r.db.WithContext(ctx).
		Raw(`
			SELECT v.fingerprint, v.is_helpful, e.is_supporting
			FROM evidence_votes v
			INNER JOIN evidence e ON e.id = v.evidence_id
			WHERE e.claim_id = ?
		`, claimID).
		Scan(&directions).Error
	return directions, err
}
