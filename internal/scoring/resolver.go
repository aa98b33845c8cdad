package scoring

import (
	"time"

	"rumor-trust-system/internal/models"
)

// Resolver 按阈值与持续时间判定传闻状态迁移
// 投票路径与定时清扫共用同一个Resolver，规则只有一份
type Resolver struct {
	verifyThreshold float64
	debunkThreshold float64
	sustained       time.Duration
	inconclusiveAge time.Duration
}

func NewResolver(verifyThreshold, debunkThreshold float64, sustainedHours, inconclusiveDays int) *Resolver {
	return &Resolver{
		verifyThreshold: verifyThreshold,
		debunkThreshold: debunkThreshold,
		sustained:       time.Duration(sustainedHours) * time.Hour,
		inconclusiveAge: time.Duration(inconclusiveDays) * 24 * time.Hour,
	}
}

// Decision 一次判定的结果
// QualifyingSince/QualifyingBand 是新的持续时间跟踪状态，需要随Claim持久化
type Decision struct {
	Status          models.ClaimStatus
	QualifyingSince *time.Time
	QualifyingBand  string
}

// BandOf 返回分数所处的待定区间
func (r *Resolver) BandOf(score float64) string {
	switch {
	case score >= r.verifyThreshold:
		return models.BandHigh
	case score <= r.debunkThreshold:
		return models.BandLow
	default:
		return models.BandNone
	}
}

// Next 规则按优先级求值，首个命中即返回：
//  1. 分数持续高于验证阈值达到持续时长 → verified
//  2. 分数持续低于证伪阈值达到持续时长 → debunked
//  3. 超过存活期限且分数落在中间区间 → inconclusive
//  4. 其余保持 active
//
// "持续"依赖qualifyingSince：进入区间时记录时刻，离开即清空，
// 单次采样达标不足以触发迁移。终态一律原样返回。
func (r *Resolver) Next(claim *models.Claim, score float64, now time.Time) Decision {
	if claim.Status.IsTerminal() {
		return Decision{
			Status:          claim.Status,
			QualifyingSince: claim.QualifyingSince,
			QualifyingBand:  claim.QualifyingBand,
		}
	}

	band := r.BandOf(score)
	since := claim.QualifyingSince
	if band != claim.QualifyingBand || since == nil {
		if band == models.BandNone {
			since = nil
		} else {
			t := now
			since = &t
		}
	}

	if band != models.BandNone && since != nil && now.Sub(*since) >= r.sustained {
		status := models.StatusVerified
		if band == models.BandLow {
			status = models.StatusDebunked
		}
		return Decision{Status: status, QualifyingSince: since, QualifyingBand: band}
	}

	if band == models.BandNone && now.Sub(claim.CreatedAt) >= r.inconclusiveAge {
		return Decision{Status: models.StatusInconclusive, QualifyingSince: nil, QualifyingBand: models.BandNone}
	}

	return Decision{Status: models.StatusActive, QualifyingSince: since, QualifyingBand: band}
}
