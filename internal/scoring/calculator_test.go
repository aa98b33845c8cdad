package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreNoEvidence(t *testing.T) {
	// 无证据时只有先验，分数恰为0.5
	assert.Equal(t, 0.5, Score(nil))
	assert.Equal(t, 0.5, Score([]EvidenceTally{}))
}

func TestScoreIgnoresNonPositiveNet(t *testing.T) {
	// 净票数<=0的证据视为噪声，不影响分数
	tallies := []EvidenceTally{
		{IsSupporting: true, Helpful: 3, Disputing: 3},
		{IsSupporting: true, Helpful: 1, Disputing: 5},
		{IsSupporting: false, Helpful: 0, Disputing: 0},
	}
	assert.Equal(t, 0.5, Score(tallies))
}

func TestScoreSupportingEvidence(t *testing.T) {
	// 一条支持证据，5赞1踩：net=4，权重1+ln4≈2.386
	// alpha=1+2.386=3.386，beta=1，分数≈0.772
	tallies := []EvidenceTally{
		{IsSupporting: true, Helpful: 5, Disputing: 1},
	}
	assert.InDelta(t, 0.772, Score(tallies), 0.001)
}

func TestScoreDisputingEvidence(t *testing.T) {
	tallies := []EvidenceTally{
		{IsSupporting: false, Helpful: 5, Disputing: 1},
	}
	score := Score(tallies)
	assert.InDelta(t, 0.228, score, 0.001)
	assert.Less(t, score, 0.5)
}

func TestScoreLogWeightDiminishes(t *testing.T) {
	// 10净票的权重约3.3，不是10
	one := Score([]EvidenceTally{{IsSupporting: true, Helpful: 1}})
	ten := Score([]EvidenceTally{{IsSupporting: true, Helpful: 10}})

	weightOne := 1 + math.Log(1)
	weightTen := 1 + math.Log(10)
	assert.InDelta(t, (PriorAlpha+weightOne)/(PriorAlpha+weightOne+PriorBeta), one, 1e-9)
	assert.InDelta(t, (PriorAlpha+weightTen)/(PriorAlpha+weightTen+PriorBeta), ten, 1e-9)
}

func TestScoreNeverSaturates(t *testing.T) {
	// 先验拉普拉斯平滑，再大的票量也不会到0或1
	huge := []EvidenceTally{
		{IsSupporting: true, Helpful: 1_000_000},
		{IsSupporting: true, Helpful: 1_000_000},
	}
	score := Score(huge)
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 1.0)

	negative := []EvidenceTally{
		{IsSupporting: false, Helpful: 1_000_000},
	}
	score = Score(negative)
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 1.0)
}

func TestScoreReferentiallyTransparent(t *testing.T) {
	tallies := []EvidenceTally{
		{IsSupporting: true, Helpful: 7, Disputing: 2},
		{IsSupporting: false, Helpful: 4, Disputing: 1},
	}
	first := Score(tallies)
	second := Score(tallies)
	assert.Equal(t, first, second)
}
