package authz

import (
	"fmt"
	"strings"
)

const (
	apiV1Prefix = "/api/v1"
	rolePrefix  = "role:"
	// roleAnchor 让尚无策略的角色也能出现在分组规则里
	roleAnchor = "role:__anchor__"
)

// SubjectForAdmin 管理员在 casbin 中的主体，形如 admin:7
func SubjectForAdmin(adminID uint) string {
	return fmt.Sprintf("admin:%d", adminID)
}

// NormalizeRole 去空白、空格转下划线并补全 role: 前缀
func NormalizeRole(role string) (string, error) {
	name := strings.ReplaceAll(strings.TrimSpace(role), " ", "_")
	name = strings.TrimPrefix(name, rolePrefix)
	switch {
	case name == "":
		return "", ErrRoleRequired
	case rolePrefix+name == roleAnchor:
		return "", ErrReservedRole
	}
	return rolePrefix + name, nil
}

// NormalizeObject 策略对象统一为不含 /api/v1 的绝对路径
func NormalizeObject(object string) string {
	path := strings.TrimSpace(object)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = strings.TrimPrefix(path, apiV1Prefix)
	if path == "" {
		return "/"
	}
	return path
}

// NormalizeAction HTTP 方法大写，"*" 原样保留
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}

func isRoleName(name string) bool {
	return strings.HasPrefix(name, rolePrefix) && name != roleAnchor
}
