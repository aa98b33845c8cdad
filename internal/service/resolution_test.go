package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rumor-trust-system/internal/models"
)

// seedVotedClaim 建一条带支持证据的claim并投5赞1踩，分数≈0.772
func seedVotedClaim(t *testing.T, engine *testEngine) (*models.Claim, *models.Evidence) {
	t.Helper()
	ctx := context.Background()

	claim, err := engine.claimSvc.CreateClaim(ctx, "待清扫的传闻")
	require.NoError(t, err)
	evidence, err := engine.claimSvc.CreateEvidence(ctx, claim.ID, "支持证据", "", true)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := engine.voteSvc.SubmitVote(ctx, evidence.ID, fmt.Sprintf("backer-%d", i), true)
		require.NoError(t, err)
	}
	_, err = engine.voteSvc.SubmitVote(ctx, evidence.ID, "skeptic", false)
	require.NoError(t, err)

	return claim, evidence
}

func TestSweepResolvesSustainedHighToVerified(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	claim, _ := seedVotedClaim(t, engine)

	// 高分已持续49小时
	since := time.Now().Add(-49 * time.Hour)
	engine.backdate(t, claim.ID, map[string]interface{}{
		"qualifying_since": since,
		"qualifying_band":  models.BandHigh,
	})

	result, err := engine.resolutionSvc.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ResolvedCount)
	assert.Contains(t, result.ResolvedIDs, claim.ID)

	resolved, err := engine.claimRepo.GetByID(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, resolved.Status)

	// 押对的人：退还本金10并加成5
	account, err := engine.reputationSvc.Stats(ctx, "backer-0")
	require.NoError(t, err)
	assert.Equal(t, int64(105), account.PointsTotal)
	assert.Equal(t, int64(0), account.PointsStaked)
	assert.Equal(t, int64(1), account.CorrectVotes)
	assert.Equal(t, int64(1), account.TotalVotes)

	// 押错的人：没收押注
	skeptic, err := engine.reputationSvc.Stats(ctx, "skeptic")
	require.NoError(t, err)
	assert.Equal(t, int64(90), skeptic.PointsTotal)
	assert.Equal(t, int64(0), skeptic.PointsStaked)
	assert.Equal(t, int64(0), skeptic.CorrectVotes)
	assert.Equal(t, int64(1), skeptic.TotalVotes)
}

func TestSweepDoesNotResolveAt47Hours(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	claim, _ := seedVotedClaim(t, engine)

	since := time.Now().Add(-47 * time.Hour)
	engine.backdate(t, claim.ID, map[string]interface{}{
		"qualifying_since": since,
		"qualifying_band":  models.BandHigh,
	})

	result, err := engine.resolutionSvc.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ResolvedCount)

	unresolved, err := engine.claimRepo.GetByID(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, unresolved.Status)
}

func TestSweepResolvesOldMidScoreToInconclusive(t *testing.T) {
	// 创建8天、分数居中的claim → inconclusive，押注原数退还
	engine := newTestEngine(t)
	ctx := context.Background()

	claim, err := engine.claimSvc.CreateClaim(ctx, "八天没有定论")
	require.NoError(t, err)
	evidence, err := engine.claimSvc.CreateEvidence(ctx, claim.ID, "证据", "", true)
	require.NoError(t, err)
	_, err = engine.voteSvc.SubmitVote(ctx, evidence.ID, "voter-1", true)
	require.NoError(t, err)

	engine.backdate(t, claim.ID, map[string]interface{}{
		"created_at": time.Now().Add(-8 * 24 * time.Hour),
	})

	result, err := engine.resolutionSvc.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ResolvedCount)

	resolved, err := engine.claimRepo.GetByID(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInconclusive, resolved.Status)

	// inconclusive：退还押注，无赢无输
	account, err := engine.reputationSvc.Stats(ctx, "voter-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.PointsTotal)
	assert.Equal(t, int64(0), account.PointsStaked)
	assert.Equal(t, int64(0), account.CorrectVotes)
	assert.Equal(t, int64(1), account.TotalVotes)
}

func TestSweepIsIdempotent(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	claim, _ := seedVotedClaim(t, engine)
	since := time.Now().Add(-49 * time.Hour)
	engine.backdate(t, claim.ID, map[string]interface{}{
		"qualifying_since": since,
		"qualifying_band":  models.BandHigh,
	})

	first, err := engine.resolutionSvc.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ResolvedCount)

	// 第二轮没有可清扫对象，声誉也不会重复结算
	second, err := engine.resolutionSvc.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.ResolvedCount)

	account, err := engine.reputationSvc.Stats(ctx, "backer-0")
	require.NoError(t, err)
	assert.Equal(t, int64(105), account.PointsTotal)
	assert.Equal(t, int64(1), account.TotalVotes)
}

func TestTerminalStatusNeverReverts(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	claim, evidence := seedVotedClaim(t, engine)
	since := time.Now().Add(-49 * time.Hour)
	engine.backdate(t, claim.ID, map[string]interface{}{
		"qualifying_since": since,
		"qualifying_band":  models.BandHigh,
	})

	_, err := engine.resolutionSvc.SweepOnce(ctx)
	require.NoError(t, err)

	// 终态之后再投票被拒，状态不动
	_, err = engine.voteSvc.SubmitVote(ctx, evidence.ID, "latecomer", true)
	require.Error(t, err)

	status, err := engine.voteSvc.Reevaluate(ctx, claim.ID, "manual re-check")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, status)
}

func TestDebunkedPaysDisputingSide(t *testing.T) {
	// 反驳证据得票压低分数，debunked后押反方的人拿加成
	engine := newTestEngine(t)
	ctx := context.Background()

	claim, err := engine.claimSvc.CreateClaim(ctx, "注定被证伪")
	require.NoError(t, err)
	evidence, err := engine.claimSvc.CreateEvidence(ctx, claim.ID, "反驳证据", "", false)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := engine.voteSvc.SubmitVote(ctx, evidence.ID, fmt.Sprintf("debunker-%d", i), true)
		require.NoError(t, err)
	}

	since := time.Now().Add(-49 * time.Hour)
	engine.backdate(t, claim.ID, map[string]interface{}{
		"qualifying_since": since,
		"qualifying_band":  models.BandLow,
	})

	result, err := engine.resolutionSvc.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ResolvedCount)

	resolved, err := engine.claimRepo.GetByID(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDebunked, resolved.Status)

	// 赞成反驳证据 = 押claim为假，debunked算押对
	account, err := engine.reputationSvc.Stats(ctx, "debunker-0")
	require.NoError(t, err)
	assert.Equal(t, int64(105), account.PointsTotal)
	assert.Equal(t, int64(1), account.CorrectVotes)
}
