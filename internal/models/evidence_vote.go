package models

import (
	"time"
)

// EvidenceVote 匿名投票，只存指纹不存身份
// 指纹唯一索引即是防重复投票的唯一手段
type EvidenceVote struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	EvidenceID  uint64    `gorm:"not null;index:idx_vote_evidence" json:"evidence_id"`
	Fingerprint string    `gorm:"size:64;not null;uniqueIndex:uk_vote_fingerprint" json:"-"`
	IsHelpful   bool      `gorm:"not null" json:"is_helpful"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (EvidenceVote) TableName() string {
	return "evidence_votes"
}
