package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 2 * time.Second

// store 绑定客户端与键前缀，整体替换保证并发读安全
type store struct {
	client *redis.Client
	prefix string
}

var current atomic.Pointer[store]

// InitRedis 连接 Redis；未启用或连接失败时缓存退化为空操作
func InitRedis(cfg *config.RedisConfig) error {
	CloseRedis()
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	client := redis.NewClient(redisOptions(cfg))
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping %s: %w", client.Options().Addr, err)
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = constants.RedisPrefixDefault
	}
	current.Store(&store{client: client, prefix: prefix})
	return nil
}

func redisOptions(cfg *config.RedisConfig) *redis.Options {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// CloseRedis 关闭连接并回到禁用状态
func CloseRedis() {
	if old := current.Swap(nil); old != nil {
		_ = old.client.Close()
	}
}

// Enabled 判断缓存是否启用
func Enabled() bool {
	return current.Load() != nil
}

// Client 获取 Redis 客户端，未启用时为 nil
func Client() *redis.Client {
	if s := current.Load(); s != nil {
		return s.client
	}
	return nil
}

// GetJSON 读取 JSON 缓存，返回是否命中
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	s := current.Load()
	if s == nil {
		return false, nil
	}
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s := current.Load()
	if s == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), payload, ttl).Err()
}

// Del 删除缓存
func Del(ctx context.Context, key string) error {
	s := current.Load()
	if s == nil {
		return nil
	}
	return s.client.Del(ctx, s.key(key)).Err()
}

// NotifyDedupeKey 同一库存事件内，同一用户、商品的同类通知共用一个键
func NotifyDedupeKey(kind string, userID, productID uint, eventID string) string {
	return fmt.Sprintf("notify:%s:%d:%d:%s", kind, userID, productID, eventID)
}

// MarkOnce 在 ttl 内首次标记返回 true，重复标记返回 false。
// 未启用 Redis 时总是返回 true。
func MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s := current.Load()
	if s == nil || ttl <= 0 {
		return true, nil
	}
	return s.client.SetNX(ctx, s.key(key), time.Now().Unix(), ttl).Result()
}

func (s *store) key(key string) string {
	return prefixedKey(s.prefix, key)
}

func prefixedKey(prefix, key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return prefix
	}
	return prefix + ":" + trimmed
}
