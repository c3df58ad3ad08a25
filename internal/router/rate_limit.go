package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/i18n"
	"github.com/candy-store/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 从请求中提取限流主体
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则，Block > 0 时超限后整体锁定
type RateLimitRule struct {
	Namespace  string
	Window     time.Duration
	Limit      int
	Block      time.Duration
	MessageKey string
}

// NewRateLimitRule 由配置构建规则，namespace 形如 candy:rate:login
func NewRateLimitRule(namespace string, cfg config.RateLimitConfig) RateLimitRule {
	return RateLimitRule{
		Namespace:  namespace,
		Window:     time.Duration(cfg.WindowSeconds) * time.Second,
		Limit:      cfg.MaxAttempts,
		Block:      time.Duration(cfg.BlockSeconds) * time.Second,
		MessageKey: "error.too_many_requests",
	}
}

func (r RateLimitRule) active() bool {
	return r.Window >= time.Second && r.Limit > 0
}

// KEYS[1] 计数，KEYS[2] 锁定标记；ARGV 窗口秒数、上限、锁定秒数
// 返回 {计数, 剩余秒数}，计数为 -1 表示处于锁定期
var fixedWindowScript = redis.NewScript(`
local blocked = redis.call("TTL", KEYS[2])
if blocked > 0 then
	return {-1, blocked}
end
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) and tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[2], "1", "EX", ARGV[3])
	redis.call("DEL", KEYS[1])
	return {current, tonumber(ARGV[3])}
end
return {current, redis.call("TTL", KEYS[1])}
`)

type limitDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

func decide(rule RateLimitRule, count, ttlSeconds int64) limitDecision {
	if count < 0 || count > int64(rule.Limit) {
		if ttlSeconds < 1 {
			ttlSeconds = 1
		}
		return limitDecision{RetryAfter: time.Duration(ttlSeconds) * time.Second}
	}
	return limitDecision{Allowed: true, Remaining: rule.Limit - int(count)}
}

type rateLimiter struct {
	client *redis.Client
	rule   RateLimitRule
}

func (l rateLimiter) check(ctx context.Context, subject string) (limitDecision, error) {
	key := subject
	if l.rule.Namespace != "" {
		key = l.rule.Namespace + ":" + subject
	}
	values, err := fixedWindowScript.Run(ctx, l.client, []string{key, key + ":blocked"},
		int(l.rule.Window/time.Second), l.rule.Limit, int(l.rule.Block/time.Second)).Int64Slice()
	if err != nil {
		return limitDecision{}, err
	}
	if len(values) < 2 {
		return limitDecision{}, fmt.Errorf("unexpected rate limit reply length %d", len(values))
	}
	return decide(l.rule, values[0], values[1]), nil
}

// RateLimitMiddleware Redis 未启用或脚本失败时放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	limiter := rateLimiter{client: client, rule: rule}
	return func(c *gin.Context) {
		if client == nil || !rule.active() {
			c.Next()
			return
		}
		subject := ""
		if keyFunc != nil {
			subject = strings.TrimSpace(keyFunc(c))
		}
		if subject == "" {
			subject = c.ClientIP()
		}

		decision, err := limiter.check(c.Request.Context(), subject)
		if err != nil {
			logger.Warnw("rate_limit_eval_failed", "namespace", rule.Namespace, "subject", subject, "error", err)
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		if !decision.Allowed {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int(decision.RetryAfter/time.Second)))
			response.Error(c, response.CodeTooManyRequests, i18n.T(i18n.ResolveLocale(c), rule.MessageKey))
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Next()
	}
}

// KeyByIP 按来源 IP 限流
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByUser 按登录用户限流，未登录时退回 IP
func KeyByUser(c *gin.Context) string {
	if userID := c.GetUint("user_id"); userID != 0 {
		return "user:" + strconv.FormatUint(uint64(userID), 10)
	}
	return c.ClientIP()
}

// KeyByIPAndJSONField 登录类接口按账号加 IP 限流，请求体读取后会还原
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(peekJSONField(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

func peekJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload[field], &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
