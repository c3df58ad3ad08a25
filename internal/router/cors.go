package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/candy-store/internal/config"

	"github.com/gin-gonic/gin"
)

var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{"Content-Type", "Content-Length", "Accept-Language", "Authorization", "Cache-Control", requestIDHeader}
	corsExposeHeaders  = []string{requestIDHeader, "Retry-After", "Content-Disposition"}
)

// corsPolicy 预先拼好的跨域响应头
type corsPolicy struct {
	origins     []string
	credentials bool
	methods     string
	headers     string
	maxAge      string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{
		origins:     orDefault(cfg.AllowedOrigins, []string{"*"}),
		credentials: cfg.AllowCredentials,
		methods:     strings.Join(orDefault(cfg.AllowedMethods, defaultCORSMethods), ", "),
		headers:     strings.Join(orDefault(cfg.AllowedHeaders, defaultCORSHeaders), ", "),
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// allowOrigin 返回 Access-Control-Allow-Origin 的取值，空串表示不放行；
// 携带凭证时通配符改为回显来源
func (p corsPolicy) allowOrigin(origin string) string {
	wildcard := false
	matched := false
	for _, allowed := range p.origins {
		switch {
		case allowed == "*":
			wildcard = true
		case origin != "" && strings.EqualFold(allowed, origin):
			matched = true
		}
	}
	switch {
	case wildcard && p.credentials && origin != "":
		return origin
	case wildcard:
		return "*"
	case matched:
		return origin
	default:
		return ""
	}
}

func (p corsPolicy) apply(h http.Header, origin string) {
	if allowed := p.allowOrigin(origin); allowed != "" {
		h.Set("Access-Control-Allow-Origin", allowed)
		if allowed != "*" {
			h.Add("Vary", "Origin")
		}
	}
	if p.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	h.Set("Access-Control-Allow-Methods", p.methods)
	h.Set("Access-Control-Allow-Headers", p.headers)
	h.Set("Access-Control-Expose-Headers", strings.Join(corsExposeHeaders, ", "))
	if p.maxAge != "" {
		h.Set("Access-Control-Max-Age", p.maxAge)
	}
}

// CORSMiddleware 跨域中间件，预检请求直接返回 204
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		policy.apply(c.Writer.Header(), c.GetHeader("Origin"))
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
