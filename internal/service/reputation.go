package service

import (
	"context"

	"gorm.io/gorm"

	"rumor-trust-system/internal/config"
	"rumor-trust-system/internal/models"
	"rumor-trust-system/internal/repository"
	"rumor-trust-system/pkg/logger"
)

// ReputationService 声誉账本：押注记录与终态结算
// 指纹到投票人的映射只在这里出现，计分路径拿不到身份
type ReputationService struct {
	reputationRepo *repository.ReputationRepository
	voteRepo       *repository.VoteRepository
	initialPoints  int64
	stakePerVote   int64
	bonusRate      float64
}

func NewReputationService(
	reputationRepo *repository.ReputationRepository,
	voteRepo *repository.VoteRepository,
	cfg *config.ReputationConfig,
) *ReputationService {
	return &ReputationService{
		reputationRepo: reputationRepo,
		voteRepo:       voteRepo,
		initialPoints:  int64(cfg.InitialPoints),
		stakePerVote:   int64(cfg.StakePerVote),
		bonusRate:      cfg.BonusRate,
	}
}

// RecordStake 投票时锁定押注，与投票写入同一事务
func (s *ReputationService) RecordStake(ctx context.Context, tx *gorm.DB, voterID, fp string, claimID uint64) error {
	repo := s.reputationRepo.WithTx(tx)

	if _, err := repo.GetOrCreate(ctx, voterID, s.initialPoints); err != nil {
		return err
	}
	if err := repo.Stake(ctx, voterID, s.stakePerVote); err != nil {
		return err
	}

	return repo.CreateStake(ctx, &models.VoteStake{
		Fingerprint: fp,
		VoterID:     voterID,
		ClaimID:     claimID,
		Amount:      s.stakePerVote,
	})
}

// Settle 传闻到达终态后结算全部未结押注：
//   - 投票方向与结局一致：退还本金并按bonus_rate加成，correct_votes+1
//   - 方向相反：没收押注
//   - inconclusive：全额退还，无赢无输
//
// 已结算的押注不会再次结算，重复调用是空操作。
func (s *ReputationService) Settle(ctx context.Context, tx *gorm.DB, claimID uint64, outcome models.ClaimStatus) (int, error) {
	repo := s.reputationRepo.WithTx(tx)

	stakes, err := repo.ListUnsettledByClaim(ctx, claimID)
	if err != nil {
		return 0, err
	}
	if len(stakes) == 0 {
		return 0, nil
	}

	directions, err := s.voteRepo.WithTx(tx).DirectionsForClaim(ctx, claimID)
	if err != nil {
		return 0, err
	}
	byFingerprint := make(map[string]repository.VoteDirection, len(directions))
	for _, d := range directions {
		byFingerprint[d.Fingerprint] = d
	}

	settled := 0
	for i := range stakes {
		stake := &stakes[i]

		var refund int64
		var correct bool

		if outcome == models.StatusInconclusive {
			refund = stake.Amount
		} else if dir, ok := byFingerprint[stake.Fingerprint]; ok {
			// 赞成支持性证据或反对反驳性证据，都算押claim为真
			backsClaim := dir.IsSupporting == dir.IsHelpful
			correct = (outcome == models.StatusVerified && backsClaim) ||
				(outcome == models.StatusDebunked && !backsClaim)
			if correct {
				refund = stake.Amount + int64(float64(stake.Amount)*s.bonusRate)
			}
		} else {
			// 找不到对应投票记录时按无结果退还，不没收
			refund = stake.Amount
		}

		if err := repo.SettleStake(ctx, stake, refund, correct); err != nil {
			return settled, err
		}
		settled++
	}

	logger.WithClaim(claimID).WithField("outcome", outcome).
		WithField("stakes_settled", settled).Info("声誉结算完成")

	return settled, nil
}

// Stats 投票人声誉读模型，未开户返回初始状态
func (s *ReputationService) Stats(ctx context.Context, voterID string) (*models.ReputationAccount, error) {
	account, err := s.reputationRepo.GetByVoter(ctx, voterID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return &models.ReputationAccount{
			VoterID:     voterID,
			PointsTotal: s.initialPoints,
		}, nil
	}
	return account, nil
}
