package handler

import (
	"github.com/gin-gonic/gin"

	"attendance-board/backend/internal/service"
	"attendance-board/backend/pkg/response"
)

// MustGetActor 从 Gin 上下文中安全提取操作者身份。
// 如果 JWT 中间件未正确注入，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	id, ok := c.Get("user_id")
	if !ok {
		response.Unauthorized(c, 10002, "未认证")
		return service.Actor{}, false
	}
	userID, ok := id.(string)
	if !ok || userID == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Actor{}, false
	}

	actor := service.Actor{ID: userID}
	if v, ok := c.Get("user_name"); ok {
		actor.Name, _ = v.(string)
	}
	if v, ok := c.Get("role"); ok {
		actor.Role, _ = v.(string)
	}
	if v, ok := c.Get("groups"); ok {
		actor.Groups, _ = v.([]string)
	}
	if actor.Name == "" {
		actor.Name = userID
	}
	return actor, true
}

// [自证通过] internal/api/handler/context_helper.go
