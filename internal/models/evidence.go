package models

import (
	"time"
)

type Evidence struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ClaimID      uint64    `gorm:"not null;index:idx_evidence_claim" json:"claim_id"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	URL          string    `gorm:"size:2048" json:"url,omitempty"`
	IsSupporting bool      `gorm:"not null" json:"is_supporting"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Evidence) TableName() string {
	return "evidence"
}
