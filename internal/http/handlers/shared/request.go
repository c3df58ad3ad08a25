package shared

import (
	"strconv"
	"strings"

	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/i18n"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 带 request_id 的日志
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c != nil {
		if id := c.GetString("request_id"); id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 按 i18n 键输出错误，err 非空时记录日志
func RespondError(c *gin.Context, code int, key string, err error) {
	RespondErrorWithMsg(c, code, i18n.T(i18n.ResolveLocale(c), key), err)
}

// RespondErrorWithMsg 5xx 记 error，其余记 debug
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	if err != nil {
		log := RequestLog(c).With("code", code, "message", msg, "error", err)
		if code >= response.CodeInternal {
			log.Error("handler_error")
		} else {
			log.Debug("handler_rejected")
		}
	}
	response.Error(c, code, msg)
}

// CurrentID 读取鉴权中间件写入的主体 ID，缺失时返回 401
func CurrentID(c *gin.Context, key string) (uint, bool) {
	id := c.GetUint(key)
	if id == 0 {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	return id, true
}

// ParseParamID 解析路径 ID，非法时按 notFoundKey 返回 404
func ParseParamID(c *gin.Context, name, notFoundKey string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		RespondError(c, response.CodeNotFound, notFoundKey, nil)
		return 0, false
	}
	return uint(id), true
}

// CaptchaPayloadRequest 登录请求携带的图片验证码
type CaptchaPayloadRequest struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// ToServicePayload 转换为 service 层载荷
func (r CaptchaPayloadRequest) ToServicePayload() service.CaptchaVerifyPayload {
	return service.CaptchaVerifyPayload{
		CaptchaID:   strings.TrimSpace(r.CaptchaID),
		CaptchaCode: strings.TrimSpace(r.CaptchaCode),
	}
}
