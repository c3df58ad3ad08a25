package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mojocn/base64Captcha"
	"github.com/redis/go-redis/v9"
)

const captchaOpTimeout = time.Second

// CaptchaStore 基于 Redis 的图片验证码答案存储，多实例部署时共享
type CaptchaStore struct {
	ttl time.Duration
}

var _ base64Captcha.Store = (*CaptchaStore)(nil)

// NewCaptchaStore Redis 未启用时返回 nil，调用方应回落到内存存储
func NewCaptchaStore(ttl time.Duration) *CaptchaStore {
	if !Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CaptchaStore{ttl: ttl}
}

func captchaKey(id string) string {
	return "captcha:" + strings.TrimSpace(id)
}

// Set 保存答案
func (c *CaptchaStore) Set(id string, value string) error {
	s := current.Load()
	if s == nil {
		return errors.New("redis disabled")
	}
	ctx, cancel := context.WithTimeout(context.Background(), captchaOpTimeout)
	defer cancel()
	return s.client.Set(ctx, s.key(captchaKey(id)), value, c.ttl).Err()
}

// Get 读取答案，clear 为 true 时读后删除
func (c *CaptchaStore) Get(id string, clear bool) string {
	s := current.Load()
	if s == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), captchaOpTimeout)
	defer cancel()
	key := s.key(captchaKey(id))
	var (
		val string
		err error
	)
	if clear {
		val, err = s.client.GetDel(ctx, key).Result()
	} else {
		val, err = s.client.Get(ctx, key).Result()
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return ""
	}
	return val
}

// Verify 忽略大小写比对答案
func (c *CaptchaStore) Verify(id, answer string, clear bool) bool {
	expected := c.Get(id, clear)
	if expected == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), expected)
}
