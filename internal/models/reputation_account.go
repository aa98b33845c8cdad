package models

import (
	"time"
)

type ReputationAccount struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	VoterID      string    `gorm:"size:64;not null;uniqueIndex:uk_reputation_voter" json:"voter_id"`
	PointsTotal  int64     `gorm:"not null;default:0" json:"points_total"`
	PointsStaked int64     `gorm:"not null;default:0" json:"points_staked"`
	CorrectVotes int64     `gorm:"not null;default:0" json:"correct_votes"`
	TotalVotes   int64     `gorm:"not null;default:0" json:"total_votes"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ReputationAccount) TableName() string {
	return "reputation_accounts"
}
