package i18n

import (
	"fmt"
	"strings"

	"github.com/candy-store/internal/constants"

	"github.com/gin-gonic/gin"
)

// 支持的语言
const (
	LocaleEN = constants.LocaleEnUS
	LocaleZH = constants.LocaleZhCN
)

// DefaultLocale 默认语言
const DefaultLocale = LocaleEN

// ResolveLocale 从 lang 参数或 Accept-Language 头解析语言
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := NormalizeLocale(c.Query("lang")); lang != "" {
		return lang
	}
	header := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if lang := NormalizeLocale(tag); lang != "" {
			return lang
		}
	}
	return DefaultLocale
}

// NormalizeLocale 归一化语言标识，不支持时返回空串
func NormalizeLocale(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case value == "":
		return ""
	case strings.HasPrefix(value, "zh"):
		return LocaleZH
	case strings.HasPrefix(value, "en"):
		return LocaleEN
	default:
		return ""
	}
}

// T 翻译消息键，缺失时回退英文，再回退为键本身
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译带参数的消息
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
