package models

import (
	"time"
)

// ClaimStatus 传闻生命周期状态
type ClaimStatus string

const (
	StatusActive       ClaimStatus = "active"
	StatusVerified     ClaimStatus = "verified"
	StatusDebunked     ClaimStatus = "debunked"
	StatusInconclusive ClaimStatus = "inconclusive"
)

// IsTerminal 终态不再接受投票、证据和状态迁移
func (s ClaimStatus) IsTerminal() bool {
	return s == StatusVerified || s == StatusDebunked || s == StatusInconclusive
}

// QualifyingBand 分数所处的待定区间，用于持续时间判定
const (
	BandHigh = "high"
	BandLow  = "low"
	BandNone = ""
)

type Claim struct {
	ID         uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Content    string      `gorm:"type:text;not null" json:"content"`
	TrustScore float64     `gorm:"not null;default:0.5" json:"trust_score"`
	Status     ClaimStatus `gorm:"size:20;not null;default:active;index" json:"status"`

	// QualifyingSince 分数进入当前待定区间的时刻，离开区间即清空
	QualifyingSince *time.Time `json:"qualifying_since"`
	QualifyingBand  string     `gorm:"size:10;not null;default:''" json:"-"`

	StatusEnteredAt time.Time `gorm:"not null" json:"status_entered_at"`
	ViewCount       int64     `gorm:"not null;default:0" json:"view_count"`

	// Version 乐观锁版本号，分数与状态的条件更新依赖它
	Version   uint64    `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Claim) TableName() string {
	return "claims"
}
