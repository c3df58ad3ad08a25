package shared

import (
	"errors"

	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/i18n"
	"github.com/candy-store/internal/service"

	"github.com/gin-gonic/gin"
)

// ErrorRule 业务错误到响应码与文案键的映射
type ErrorRule struct {
	Target error
	Code   int
	Key    string
}

// ErrorRules 按顺序匹配，先命中者生效
type ErrorRules []ErrorRule

// With 追加其它规则组，返回新切片
func (r ErrorRules) With(groups ...ErrorRules) ErrorRules {
	out := append(ErrorRules(nil), r...)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// RespondMapped 命中规则时按规则响应；未命中视为内部错误并记录原始错误
func RespondMapped(c *gin.Context, err error, rules ErrorRules) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, response.CodeInternal, "error.internal", err)
}

// CaptchaErrors 图片验证码
var CaptchaErrors = ErrorRules{
	{Target: service.ErrCaptchaRequired, Code: response.CodeBadRequest, Key: "error.captcha_required"},
	{Target: service.ErrCaptchaInvalid, Code: response.CodeBadRequest, Key: "error.captcha_invalid"},
	{Target: service.ErrCaptchaConfigInvalid, Code: response.CodeInternal, Key: "error.captcha_config_invalid"},
}

// RespondPasswordPolicy 密码强度不足时返回带参数的文案，其它错误返回 false
func RespondPasswordPolicy(c *gin.Context, err error) bool {
	var policyErr interface {
		Key() string
		Args() []interface{}
	}
	if !errors.As(err, &policyErr) {
		return false
	}
	msg := i18n.Sprintf(i18n.ResolveLocale(c), policyErr.Key(), policyErr.Args()...)
	RespondErrorWithMsg(c, response.CodeBadRequest, msg, nil)
	return true
}
