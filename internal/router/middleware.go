package router

import (
	"strings"
	"time"

	"github.com/candy-store/internal/authz"
	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/i18n"
	"github.com/candy-store/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey           = "request_id"
	requestIDHeader        = "X-Request-ID"
	adminIsSuperContextKey = "admin_is_super"
)

// RequestIDMiddleware 沿用客户端传入的 X-Request-ID，缺省时生成 UUID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// LoggerMiddleware 每个请求结束后输出一条访问日志
func LoggerMiddleware(base *zap.Logger) gin.HandlerFunc {
	if base == nil {
		base = zap.L()
	}
	sugar := base.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(accessFields(c, time.Since(start))...)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func accessFields(c *gin.Context, latency time.Duration) []interface{} {
	fields := []interface{}{
		"request_id", getRequestID(c),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"latency_ms", latency.Milliseconds(),
		"client_ip", c.ClientIP(),
	}
	for _, key := range []string{"user_id", "admin_id"} {
		if id := c.GetUint(key); id != 0 {
			fields = append(fields, key, id)
		}
	}
	return fields
}

// AdminRBACMiddleware 超级管理员直接放行，其余按路由模板与方法查 casbin
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID := c.GetUint("admin_id")
		switch {
		case authzService == nil:
			logger.Errorw("admin_rbac_service_unavailable")
			abortUnauthorized(c, "error.unauthorized")
			return
		case c.GetBool(adminIsSuperContextKey):
			c.Next()
			return
		case adminID == 0:
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		resource := strings.TrimSpace(c.FullPath())
		if resource == "" {
			resource = c.Request.URL.Path
		}
		log := logger.SW("admin_id", adminID, "method", c.Request.Method, "path", c.Request.URL.Path)

		allowed, err := authzService.EnforceAdmin(adminID, resource, c.Request.Method)
		if err != nil {
			log.Errorw("admin_rbac_enforce_failed", "error", err)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if !allowed {
			log.Warnw("admin_rbac_permission_denied", "resource", authz.NormalizeObject(resource))
			response.Forbidden(c, i18n.T(i18n.ResolveLocale(c), "error.forbidden"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, key string) {
	response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), key))
	c.Abort()
}
