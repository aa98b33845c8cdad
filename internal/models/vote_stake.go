package models

import (
	"time"
)

// VoteStake 指纹到投票人的映射及其押注，由声誉账本独占
// 计分引擎永远不读这张表，身份不进入计分路径
type VoteStake struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Fingerprint string    `gorm:"size:64;not null;uniqueIndex:uk_stake_fingerprint" json:"-"`
	VoterID     string    `gorm:"size:64;not null;index:idx_stake_voter" json:"voter_id"`
	ClaimID     uint64    `gorm:"not null;index:idx_stake_claim" json:"claim_id"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Settled     bool      `gorm:"not null;default:false" json:"settled"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (VoteStake) TableName() string {
	return "vote_stakes"
}
