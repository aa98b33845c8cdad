// Package scoring 实现传闻可信度的Beta后验计分与状态判定。
//
// 计分是纯函数：同样的证据立场和票数永远得到同样的分数，
// 不持有任何隐藏状态，审计回放时可以从票数完整重算。
package scoring

import (
	"math"
)

const (
	// PriorAlpha/PriorBeta 均匀先验，无任何证据时分数恒为0.5
	PriorAlpha = 1.0
	PriorBeta  = 1.0
)

// EvidenceTally 单条证据的立场与票数汇总
type EvidenceTally struct {
	IsSupporting bool
	Helpful      int64
	Disputing    int64
}

// Score 计算Beta分布后验均值
//
// 每条证据取净票数 net = helpful - disputing：
//   - net <= 0 视为噪声，不参与计分
//   - net > 0 贡献权重 1 + ln(net)，对数压缩刷票收益
//
// 权重按证据立场累加到alpha（支持）或beta（反驳），
// 最终分数 alpha/(alpha+beta)，先验保证结果严格落在(0,1)内。
func Score(tallies []EvidenceTally) float64 {
	alpha := PriorAlpha
	beta := PriorBeta

	for _, t := range tallies {
		net := t.Helpful - t.Disputing
		if net <= 0 {
			continue
		}

		weight := 1 + math.Log(float64(net))
		if t.IsSupporting {
			alpha += weight
		} else {
			beta += weight
		}
	}

	return alpha / (alpha + beta)
}
