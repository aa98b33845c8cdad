package models

import (
	"time"
)

// AuditEntry 分数/状态变更审计日志，只追加
// Claim只存当前分数，历史分数以此表为唯一来源
type AuditEntry struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ClaimID   uint64    `gorm:"not null;index:idx_audit_claim" json:"claim_id"`
	OldScore  float64   `gorm:"not null" json:"old_score"`
	NewScore  float64   `gorm:"not null" json:"new_score"`
	Reason    string    `gorm:"size:255;not null" json:"reason"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AuditEntry) TableName() string {
	return "audit_log"
}
