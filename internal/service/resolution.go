package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"rumor-trust-system/internal/config"
	"rumor-trust-system/internal/repository"
	"rumor-trust-system/pkg/logger"
)

// SweepReason 清扫触发的审计条目统一使用该原因
const SweepReason = "scheduled resolution sweep"

// ResolutionService 定时清扫：逐个重新判定active传闻
// 判定本身复用VoteService.Reevaluate，两条路径不可能各自迁移同一claim
type ResolutionService struct {
	claimRepo *repository.ClaimRepository
	voteSvc   *VoteService
	pageSize  int
	workers   int
}

func NewResolutionService(
	claimRepo *repository.ClaimRepository,
	voteSvc *VoteService,
	cfg *config.ResolutionConfig,
) *ResolutionService {
	return &ResolutionService{
		claimRepo: claimRepo,
		voteSvc:   voteSvc,
		pageSize:  cfg.SweepPageSize,
		workers:   cfg.SweepWorkers,
	}
}

// SweepResult 一轮清扫的结果
type SweepResult struct {
	ResolvedCount int      `json:"resolved_count"`
	ResolvedIDs   []uint64 `json:"resolved_claim_ids"`
}

// SweepOnce 跑一轮清扫，幂等：没有达标claim时什么都不改
// 按id游标分页，避免清扫过程中状态变化导致翻页漂移
func (s *ResolutionService) SweepOnce(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{ResolvedIDs: make([]uint64, 0)}
	var mu sync.Mutex

	var afterID uint64
	for {
		claims, err := s.claimRepo.ListActive(ctx, afterID, s.pageSize)
		if err != nil {
			return nil, err
		}
		if len(claims) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.workers)

		for _, claim := range claims {
			claim := claim
			g.Go(func() error {
				status, err := s.voteSvc.Reevaluate(gctx, claim.ID, SweepReason)
				if err != nil {
					// 单个claim失败只记日志，不中断整轮清扫
					logger.WithClaim(claim.ID).Error("sweep re-evaluation failed:", err)
					return nil
				}
				if status.IsTerminal() {
					mu.Lock()
					result.ResolvedCount++
					result.ResolvedIDs = append(result.ResolvedIDs, claim.ID)
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		afterID = claims[len(claims)-1].ID
		if len(claims) < s.pageSize {
			break
		}
	}

	return result, nil
}
