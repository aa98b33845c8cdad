package service

import (
	"context"
	"fmt"
	"math"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"rumor-trust-system/internal/config"
	"rumor-trust-system/internal/fingerprint"
	"rumor-trust-system/internal/models"
	"rumor-trust-system/internal/repository"
	"rumor-trust-system/internal/scoring"
	apperrors "rumor-trust-system/pkg/errors"
	"rumor-trust-system/pkg/logger"
)

// VoteService 投票提交编排：指纹去重、押注、重算分数、状态判定、审计
// 每个claim的读-算-写序列由claimLocker串行化，跨进程写入由版本号兜底
type VoteService struct {
	db              *gorm.DB
	claimRepo       *repository.ClaimRepository
	evidenceRepo    *repository.EvidenceRepository
	voteRepo        *repository.VoteRepository
	auditRepo       *repository.AuditRepository
	reputationSvc   *ReputationService
	fingerprinter   *fingerprint.Generator
	resolver        *scoring.Resolver
	locker          *claimLocker
	feedCache       *gocache.Cache
	auditEpsilon    float64
	conflictRetries int
}

func NewVoteService(
	db *gorm.DB,
	claimRepo *repository.ClaimRepository,
	evidenceRepo *repository.EvidenceRepository,
	voteRepo *repository.VoteRepository,
	auditRepo *repository.AuditRepository,
	reputationSvc *ReputationService,
	fingerprinter *fingerprint.Generator,
	resolver *scoring.Resolver,
	feedCache *gocache.Cache,
	scoringCfg *config.ScoringConfig,
	resolutionCfg *config.ResolutionConfig,
) *VoteService {
	return &VoteService{
		db:              db,
		claimRepo:       claimRepo,
		evidenceRepo:    evidenceRepo,
		voteRepo:        voteRepo,
		auditRepo:       auditRepo,
		reputationSvc:   reputationSvc,
		fingerprinter:   fingerprinter,
		resolver:        resolver,
		locker:          newClaimLocker(),
		feedCache:       feedCache,
		auditEpsilon:    scoringCfg.AuditEpsilon,
		conflictRetries: resolutionCfg.ConflictMaxRetries,
	}
}

// VoteResult 一次投票后的最新分数与状态
type VoteResult struct {
	TrustScore float64            `json:"new_trust_score"`
	Status     models.ClaimStatus `json:"new_status"`
}

// SubmitVote 提交一票并重算归属传闻
// 任一步失败整个事务回滚，不留半截状态；重复指纹在插入时被唯一索引拦下
func (s *VoteService) SubmitVote(ctx context.Context, evidenceID uint64, voterID string, isHelpful bool) (*VoteResult, error) {
	if voterID == "" {
		return nil, apperrors.New(apperrors.KindUnauthorized, "voter identity is required", nil)
	}

	evidence, err := s.evidenceRepo.GetByID(ctx, evidenceID)
	if err != nil {
		return nil, err
	}
	if evidence == nil {
		return nil, apperrors.New(apperrors.KindNotFound, "evidence not found", nil)
	}

	token := s.fingerprinter.Token(voterID, evidenceID)

	unlock := s.locker.lock(evidence.ClaimID)
	defer unlock()

	var result *VoteResult
	err = s.withConflictRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			claim, err := s.claimRepo.WithTx(tx).GetByID(ctx, evidence.ClaimID)
			if err != nil {
				return err
			}
			if claim == nil {
				return apperrors.New(apperrors.KindNotFound, "claim not found", nil)
			}
			if claim.Status.IsTerminal() {
				return apperrors.New(apperrors.KindClaimResolved, "claim is already resolved, votes are closed", nil)
			}

			vote := &models.EvidenceVote{
				EvidenceID:  evidenceID,
				Fingerprint: token,
				IsHelpful:   isHelpful,
			}
			if err := s.voteRepo.WithTx(tx).Create(ctx, vote); err != nil {
				return err
			}

			if err := s.reputationSvc.RecordStake(ctx, tx, voterID, token, claim.ID); err != nil {
				return err
			}

			reason := fmt.Sprintf("vote on evidence %d (helpful: %t)", evidenceID, isHelpful)
			result, err = s.reevaluateLocked(ctx, tx, claim, reason, time.Now())
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.feedCache.Flush()

	logger.WithClaim(evidence.ClaimID).WithFields(map[string]interface{}{
		"evidence_id": evidenceID,
		"is_helpful":  isHelpful,
		"new_score":   result.TrustScore,
		"new_status":  result.Status,
	}).Info("投票已记录")

	return result, nil
}

// Reevaluate 不带新票地重新判定传闻，定时清扫入口
// 与投票路径共用同一把claim锁和同一套判定逻辑
func (s *VoteService) Reevaluate(ctx context.Context, claimID uint64, reason string) (models.ClaimStatus, error) {
	unlock := s.locker.lock(claimID)
	defer unlock()

	var status models.ClaimStatus
	err := s.withConflictRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			claim, err := s.claimRepo.WithTx(tx).GetByID(ctx, claimID)
			if err != nil {
				return err
			}
			if claim == nil {
				return apperrors.New(apperrors.KindNotFound, "claim not found", nil)
			}
			if claim.Status.IsTerminal() {
				status = claim.Status
				return nil
			}

			result, err := s.reevaluateLocked(ctx, tx, claim, reason, time.Now())
			if err != nil {
				return err
			}
			status = result.Status
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	s.feedCache.Flush()
	return status, nil
}

// reevaluateLocked 重算-判定-落库，调用方必须已持有claim锁并处于事务内
func (s *VoteService) reevaluateLocked(ctx context.Context, tx *gorm.DB, claim *models.Claim, reason string, now time.Time) (*VoteResult, error) {
	tallies, err := s.voteRepo.WithTx(tx).TalliesForClaim(ctx, claim.ID)
	if err != nil {
		return nil, err
	}

	newScore := scoring.Score(tallies)
	decision := s.resolver.Next(claim, newScore, now)

	oldScore := claim.TrustScore
	scoreChanged := math.Abs(newScore-oldScore) > s.auditEpsilon
	statusChanged := decision.Status != claim.Status
	trackingChanged := decision.QualifyingBand != claim.QualifyingBand ||
		!equalTime(decision.QualifyingSince, claim.QualifyingSince)

	if scoreChanged || statusChanged || trackingChanged {
		err := s.claimRepo.WithTx(tx).UpdateResolution(
			ctx, claim, newScore, decision.Status,
			decision.QualifyingSince, decision.QualifyingBand, now,
		)
		if err != nil {
			return nil, err
		}
	}

	// 审计追加失败会回滚整个事务：分数永远不会没有来历
	if scoreChanged || statusChanged {
		entry := &models.AuditEntry{
			ClaimID:  claim.ID,
			OldScore: oldScore,
			NewScore: newScore,
			Reason:   reason,
		}
		if err := s.auditRepo.WithTx(tx).Append(ctx, entry); err != nil {
			return nil, err
		}
	}

	if statusChanged && decision.Status.IsTerminal() {
		settled, err := s.reputationSvc.Settle(ctx, tx, claim.ID, decision.Status)
		if err != nil {
			return nil, err
		}
		logger.WithClaim(claim.ID).WithFields(map[string]interface{}{
			"status":         decision.Status,
			"stakes_settled": settled,
		}).Info("传闻已终结")
	}

	return &VoteResult{TrustScore: newScore, Status: decision.Status}, nil
}

// withConflictRetry 乐观锁冲突的有界重试
// 重试耗尽后转为内部错误，不把冲突细节暴露给调用方
func (s *VoteService) withConflictRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt <= s.conflictRetries; attempt++ {
		err = fn()
		if !apperrors.IsKind(err, apperrors.KindPersistenceConflict) {
			return err
		}
		logger.Warn("persistence conflict, retrying:", err)
	}
	return apperrors.New(apperrors.KindInternal, "conflict retries exhausted", err)
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
