package authz

import (
	"fmt"

	"github.com/candy-store/internal/logger"
)

// RoleSeed 内置角色
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// builtinRoles 超级管理员不经过 casbin，无需在此声明
var builtinRoles = []RoleSeed{
	{
		Role:     "readonly_auditor",
		Policies: []Policy{{Object: "/admin/*", Action: "GET"}},
	},
	{
		Role:     "inventory_manager",
		Inherits: []string{"readonly_auditor"},
		Policies: []Policy{
			{Object: "/admin/products", Action: "*"},
			{Object: "/admin/products/:id", Action: "*"},
			{Object: "/admin/products/:id/stock", Action: "POST"},
			{Object: "/admin/alerts/sweep", Action: "POST"},
		},
	},
	{
		Role:     "support",
		Inherits: []string{"readonly_auditor"},
		Policies: []Policy{
			{Object: "/admin/users/:id/status", Action: "PUT"},
			{Object: "/admin/users/:id", Action: "DELETE"},
		},
	},
}

// BuiltinRoleSeeds 返回内置角色的副本
func BuiltinRoleSeeds() []RoleSeed {
	seeds := make([]RoleSeed, len(builtinRoles))
	copy(seeds, builtinRoles)
	return seeds
}

// BootstrapBuiltinRoles 幂等写入内置角色，管理员手工追加的策略保持不变
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range builtinRoles {
		for _, parent := range seed.Inherits {
			if err := s.InheritRole(seed.Role, parent); err != nil {
				return fmt.Errorf("seed role %s: %w", seed.Role, err)
			}
		}
		for _, p := range seed.Policies {
			if err := s.GrantRolePolicy(seed.Role, p.Object, p.Action); err != nil {
				return fmt.Errorf("seed role %s: %w", seed.Role, err)
			}
		}
	}
	logger.Infow("authz_builtin_roles_ready", "roles", len(builtinRoles))
	return nil
}
