package dto

// ── 考勤模块 DTO ──

// AttendanceListRequest 合并视图查询参数
type AttendanceListRequest struct {
	Groups []string `form:"groups"`
	From   string   `form:"from" binding:"required"`
	To     string   `form:"to"   binding:"required"`
}

// EditAttendanceRequest 单字段编辑请求（REST 与 WebSocket 共用语义）
type EditAttendanceRequest struct {
	Group      string `json:"group"       binding:"required"`
	Date       string `json:"date"        binding:"required"`
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	Field      string `json:"field"       binding:"required"`
	NewValue   string `json:"new_value"`
	OldValue   string `json:"old_value"`
}

// CommitRequest 提交请求：落库 + 清缓存 + 上锁
type CommitRequest struct {
	Group string `json:"group" binding:"required"`
	Date  string `json:"date"  binding:"required"`
}

// AttendanceRecordResponse 合并后的考勤记录
type AttendanceRecordResponse struct {
	EmployeeID     string  `json:"employee_id"`
	EmployeeName   string  `json:"employee_name,omitempty"`
	Date           string  `json:"date"`
	ShiftType      string  `json:"shift_type"`
	NetHours       float64 `json:"net_hours"`
	OvertimeHours  float64 `json:"overtime_hours"`
	Comment        string  `json:"comment,omitempty"`
	ReportingGroup string  `json:"reporting_group"`
	FromCache      bool    `json:"from_cache"` // 含未提交编辑
}

// LockStatusResponse 锁状态
type LockStatusResponse struct {
	ReportingGroup string `json:"reporting_group"`
	Date           string `json:"date"`
	Status         string `json:"status"`
	LockedBy       string `json:"locked_by,omitempty"`
}

// CommitResponse 提交结果
type CommitResponse struct {
	ReportingGroup string `json:"reporting_group"`
	Date           string `json:"date"`
	RowsPersisted  int    `json:"rows_persisted"`
}

// ── 不匹配检测 DTO ──

// MismatchQuery 不匹配扫描查询参数
type MismatchQuery struct {
	Month string `form:"month" binding:"required"` // YYYY-MM
}

// GroupMismatchResponse 每组不匹配计数
type GroupMismatchResponse struct {
	ReportingGroup string `json:"reporting_group"`
	MismatchCount  int    `json:"mismatch_count"`
}

// ── 变更日志 DTO ──

// ChangeLogQuery 变更日志查询参数
type ChangeLogQuery struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	Date       string `form:"date"`
	Page       int    `form:"page,default=1"      binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size,default=50" binding:"omitempty,min=1,max=200"`
}

// DrainResponse 落库任务聚合结果
type DrainResponse struct {
	Drained  int `json:"drained"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Requeued int `json:"requeued"`
}

// [自证通过] internal/dto/attendance.go
