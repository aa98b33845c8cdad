package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"rumor-trust-system/internal/models"
	"rumor-trust-system/internal/repository"
	apperrors "rumor-trust-system/pkg/errors"
	"rumor-trust-system/pkg/logger"
)

// FeedCacheTTL 列表页缓存时长，任何写操作都会整体失效
const FeedCacheTTL = 30 * time.Second

type ClaimService struct {
	claimRepo    *repository.ClaimRepository
	evidenceRepo *repository.EvidenceRepository
	voteRepo     *repository.VoteRepository
	auditRepo    *repository.AuditRepository
	feedCache    *gocache.Cache
}

func NewClaimService(
	claimRepo *repository.ClaimRepository,
	evidenceRepo *repository.EvidenceRepository,
	voteRepo *repository.VoteRepository,
	auditRepo *repository.AuditRepository,
	feedCache *gocache.Cache,
) *ClaimService {
	return &ClaimService{
		claimRepo:    claimRepo,
		evidenceRepo: evidenceRepo,
		voteRepo:     voteRepo,
		auditRepo:    auditRepo,
		feedCache:    feedCache,
	}
}

// ClaimSummary 列表页条目：传闻加证据数
type ClaimSummary struct {
	models.Claim
	EvidenceCount int64 `json:"evidence_count"`
}

// EvidenceWithTally 详情页证据条目：证据加票数汇总
type EvidenceWithTally struct {
	models.Evidence
	HelpfulVotes   int64 `json:"helpful_votes"`
	DisputingVotes int64 `json:"disputing_votes"`
}

// ClaimDetail 详情页投影：传闻、证据与票数、审计历史
type ClaimDetail struct {
	models.Claim
	Evidence []EvidenceWithTally `json:"evidence"`
	History  []models.AuditEntry `json:"history"`
}

// CreateClaim 新传闻以中性先验0.5进入active状态
func (s *ClaimService) CreateClaim(ctx context.Context, content string) (*models.Claim, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.New(apperrors.KindValidation, "claim content is required", nil)
	}

	claim := &models.Claim{
		Content:         content,
		TrustScore:      0.5,
		Status:          models.StatusActive,
		StatusEnteredAt: time.Now(),
	}
	if err := s.claimRepo.Create(ctx, claim); err != nil {
		return nil, err
	}

	s.feedCache.Flush()

	logger.WithClaim(claim.ID).Info("传闻已创建")
	return claim, nil
}

// ListClaims 分页列表，短TTL缓存挡住热点读
func (s *ClaimService) ListClaims(ctx context.Context, sort string, offset, limit int) ([]ClaimSummary, error) {
	if sort != "popular" {
		sort = "recent"
	}

	cacheKey := fmt.Sprintf("feed:%s:%d:%d", sort, offset, limit)
	if cached, found := s.feedCache.Get(cacheKey); found {
		return cached.([]ClaimSummary), nil
	}

	claims, err := s.claimRepo.List(ctx, sort, offset, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]ClaimSummary, 0, len(claims))
	if len(claims) > 0 {
		ids := make([]uint64, 0, len(claims))
		for _, c := range claims {
			ids = append(ids, c.ID)
		}
		counts, err := s.evidenceRepo.CountGroupedByClaim(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, c := range claims {
			summaries = append(summaries, ClaimSummary{Claim: c, EvidenceCount: counts[c.ID]})
		}
	}

	s.feedCache.Set(cacheKey, summaries, FeedCacheTTL)
	return summaries, nil
}

func (s *ClaimService) CountClaims(ctx context.Context) (int64, error) {
	return s.claimRepo.Count(ctx)
}

// GetClaim 详情投影，读取时自增浏览数
func (s *ClaimService) GetClaim(ctx context.Context, id uint64) (*ClaimDetail, error) {
	claim, err := s.claimRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, apperrors.New(apperrors.KindNotFound, "claim not found", nil)
	}

	if err := s.claimRepo.IncrementViewCount(ctx, id); err != nil {
		logger.WithClaim(id).Warn("failed to increment view count:", err)
	} else {
		claim.ViewCount++
	}

	evidence, err := s.evidenceRepo.GetByClaim(ctx, id)
	if err != nil {
		return nil, err
	}

	enriched := make([]EvidenceWithTally, 0, len(evidence))
	for _, ev := range evidence {
		helpful, disputing, err := s.voteRepo.TallyForEvidence(ctx, ev.ID)
		if err != nil {
			return nil, err
		}
		enriched = append(enriched, EvidenceWithTally{
			Evidence:       ev,
			HelpfulVotes:   helpful,
			DisputingVotes: disputing,
		})
	}

	history, err := s.auditRepo.GetByClaim(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ClaimDetail{Claim: *claim, Evidence: enriched, History: history}, nil
}

// CreateEvidence 给active传闻附加证据，终态传闻拒绝新证据
func (s *ClaimService) CreateEvidence(ctx context.Context, claimID uint64, content, url string, isSupporting bool) (*models.Evidence, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.New(apperrors.KindValidation, "evidence content is required", nil)
	}

	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, apperrors.New(apperrors.KindNotFound, "claim not found", nil)
	}
	if claim.Status.IsTerminal() {
		return nil, apperrors.New(apperrors.KindClaimResolved, "claim is already resolved, evidence is closed", nil)
	}

	evidence := &models.Evidence{
		ClaimID:      claimID,
		Content:      content,
		URL:          url,
		IsSupporting: isSupporting,
	}
	if err := s.evidenceRepo.Create(ctx, evidence); err != nil {
		return nil, err
	}

	s.feedCache.Flush()
	return evidence, nil
}
