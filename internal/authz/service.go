package authz

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

// 管理员 -> 角色 -> (路由模板, 方法)；角色之间可继承
const adminRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var (
	ErrUnavailable    = errors.New("authz service unavailable")
	ErrRoleRequired   = errors.New("role is required")
	ErrReservedRole   = errors.New("reserved role is not allowed")
	ErrActionRequired = errors.New("action is required")
	ErrAdminRequired  = errors.New("admin id is required")
)

// Policy 一条 p 规则
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// RoleView 角色详情
type RoleView struct {
	Role     string   `json:"role"`
	Inherits []string `json:"inherits"`
	Policies []Policy `json:"policies"`
}

// Service 管理端路由级授权，规则持久化在 casbin_rule 表
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务并加载已有规则
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", "casbin_rule")
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(adminRBACModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	return nil
}

// role 规范化角色名并确认服务可用
func (s *Service) role(name string) (string, error) {
	normalized, err := NormalizeRole(name)
	if err != nil {
		return "", err
	}
	return normalized, s.ready()
}

// admin 返回管理员主体
func (s *Service) admin(adminID uint) (string, error) {
	if adminID == 0 {
		return "", ErrAdminRequired
	}
	return SubjectForAdmin(adminID), s.ready()
}

// EnforceAdmin 判定管理员能否以 act 访问 obj
func (s *Service) EnforceAdmin(adminID uint, obj, act string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.enforcer.Enforce(SubjectForAdmin(adminID), NormalizeObject(obj), NormalizeAction(act))
}

// EnsureRole 角色不存在时创建
func (s *Service) EnsureRole(name string) (string, error) {
	role, err := s.role(name)
	if err != nil {
		return "", err
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor); err != nil {
		return "", fmt.Errorf("create role failed: %w", err)
	}
	return role, nil
}

// InheritRole 让 child 继承 parent 的全部策略
func (s *Service) InheritRole(child, parent string) error {
	childRole, err := s.EnsureRole(child)
	if err != nil {
		return err
	}
	parentRole, err := s.EnsureRole(parent)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", childRole, parentRole); err != nil {
		return fmt.Errorf("link role inheritance failed: %w", err)
	}
	return nil
}

// ListRoles 按名称排序
func (s *Service) ListRoles() ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetNamedGroupingPolicy("g")
	if err != nil {
		return nil, fmt.Errorf("list roles failed: %w", err)
	}
	var roles []string
	for _, rule := range rules {
		roles = append(roles, filterRoles(rule)...)
	}
	return compactSorted(roles), nil
}

// DescribeRoles 全部角色及其直接继承与直接策略
func (s *Service) DescribeRoles() ([]RoleView, error) {
	roles, err := s.ListRoles()
	if err != nil {
		return nil, err
	}
	views := make([]RoleView, 0, len(roles))
	for _, role := range roles {
		parents, err := s.enforcer.GetRolesForUser(role)
		if err != nil {
			return nil, fmt.Errorf("get role parents failed: %w", err)
		}
		policies, err := s.GetRolePolicies(role)
		if err != nil {
			return nil, err
		}
		views = append(views, RoleView{
			Role:     role,
			Inherits: compactSorted(filterRoles(parents)),
			Policies: policies,
		})
	}
	return views, nil
}

// DeleteRole 同时清理策略、继承关系及管理员绑定
func (s *Service) DeleteRole(name string) error {
	role, err := s.role(name)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.RemoveFilteredPolicy(0, role); err != nil {
		return fmt.Errorf("remove role policy failed: %w", err)
	}
	for _, field := range []int{0, 1} {
		if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", field, role); err != nil {
			return fmt.Errorf("remove role link failed: %w", err)
		}
	}
	return nil
}

// GrantRolePolicy 角色不存在时一并创建
func (s *Service) GrantRolePolicy(name, object, action string) error {
	act := NormalizeAction(action)
	if act == "" {
		return ErrActionRequired
	}
	role, err := s.EnsureRole(name)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.AddPolicy(role, NormalizeObject(object), act); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// RevokeRolePolicy 撤销一条策略，不存在时视为成功
func (s *Service) RevokeRolePolicy(name, object, action string) error {
	act := NormalizeAction(action)
	if act == "" {
		return ErrActionRequired
	}
	role, err := s.role(name)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.RemovePolicy(role, NormalizeObject(object), act); err != nil {
		return fmt.Errorf("revoke policy failed: %w", err)
	}
	return nil
}

// GetRolePolicies 角色直接持有的策略，不含继承
func (s *Service) GetRolePolicies(name string) ([]Policy, error) {
	role, err := s.role(name)
	if err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, role)
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}
	return toPolicies(rules), nil
}

// SetAdminRoles 以 roles 整体替换管理员的角色绑定
func (s *Service) SetAdminRoles(adminID uint, roles []string) error {
	subject, err := s.admin(adminID)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, subject); err != nil {
		return fmt.Errorf("clear admin roles failed: %w", err)
	}
	for _, name := range roles {
		role, err := s.EnsureRole(name)
		if err != nil {
			return err
		}
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, role); err != nil {
			return fmt.Errorf("assign admin role failed: %w", err)
		}
	}
	return nil
}

// GetAdminRoles 管理员直接绑定的角色
func (s *Service) GetAdminRoles(adminID uint) ([]string, error) {
	subject, err := s.admin(adminID)
	if err != nil {
		return nil, err
	}
	roles, err := s.enforcer.GetRolesForUser(subject)
	if err != nil {
		return nil, fmt.Errorf("get admin roles failed: %w", err)
	}
	return compactSorted(filterRoles(roles)), nil
}

// GetAdminPolicies 沿继承链展开后的生效策略，按对象、方法排序
func (s *Service) GetAdminPolicies(adminID uint) ([]Policy, error) {
	subject, err := s.admin(adminID)
	if err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetImplicitPermissionsForUser(subject)
	if err != nil {
		return nil, fmt.Errorf("get admin policies failed: %w", err)
	}
	policies := toPolicies(rules)
	slices.SortFunc(policies, func(a, b Policy) int {
		return cmp.Or(
			cmp.Compare(a.Object, b.Object),
			cmp.Compare(a.Action, b.Action),
			cmp.Compare(a.Subject, b.Subject),
		)
	})
	return slices.Compact(policies), nil
}

func toPolicies(rules [][]string) []Policy {
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policies = append(policies, Policy{
			Subject: strings.TrimSpace(rule[0]),
			Object:  NormalizeObject(rule[1]),
			Action:  NormalizeAction(rule[2]),
		})
	}
	return policies
}

func filterRoles(names []string) []string {
	roles := make([]string, 0, len(names))
	for _, name := range names {
		if isRoleName(name) {
			roles = append(roles, name)
		}
	}
	return roles
}

func compactSorted(items []string) []string {
	if items == nil {
		return []string{}
	}
	slices.Sort(items)
	return slices.Compact(items)
}
