package admin

import (
	"errors"
	"net/url"
	"strings"

	"github.com/candy-store/internal/authz"
	"github.com/candy-store/internal/http/response"

	"github.com/gin-gonic/gin"
)

type authzRolePayload struct {
	Role string `json:"role" binding:"required"`
}

type authzInheritPayload struct {
	Parent string `json:"parent" binding:"required"`
}

type authzPolicyPayload struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

type authzSetAdminRolesPayload struct {
	Roles []string `json:"roles"`
}

func respondAuthzError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrRoleRequired), errors.Is(err, authz.ErrReservedRole):
		respondError(c, response.CodeBadRequest, "error.role_invalid", nil)
	case errors.Is(err, authz.ErrActionRequired):
		respondError(c, response.CodeBadRequest, "error.policy_invalid", nil)
	case errors.Is(err, authz.ErrAdminRequired):
		respondError(c, response.CodeBadRequest, "error.admin_id_invalid", nil)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}

// roleParam 路由中的角色名可能被 URL 编码（role%3Asupport）
func roleParam(c *gin.Context) (string, bool) {
	raw := c.Param("role")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	role := strings.TrimSpace(raw)
	if role == "" {
		respondError(c, response.CodeBadRequest, "error.role_invalid", nil)
		return "", false
	}
	return role, true
}

func bindAuthz(c *gin.Context, dest interface{}, key string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondError(c, response.CodeBadRequest, key, nil)
		return false
	}
	return true
}

// auditAuthz 权限变更一律留痕
func auditAuthz(c *gin.Context, event string, kv ...interface{}) {
	requestLog(c).Infow(event, append([]interface{}{"operator_admin_id", currentAdminID(c)}, kv...)...)
}

// GetAuthzMe 当前管理员的角色与生效策略
func (h *Handler) GetAuthzMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	policies, err := h.AuthzService.GetAdminPolicies(adminID)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, gin.H{
		"admin_id": adminID,
		"is_super": currentIsSuper(c),
		"roles":    roles,
		"policies": policies,
	})
}

// ListAuthzRoles 角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	views, err := h.AuthzService.DescribeRoles()
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, views)
}

// ListAuthzAdmins 管理员及其角色
func (h *Handler) ListAuthzAdmins(c *gin.Context) {
	admins, err := h.AdminRepo.List()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	items := make([]gin.H, 0, len(admins))
	for _, admin := range admins {
		roles, err := h.AuthzService.GetAdminRoles(admin.ID)
		if err != nil {
			respondAuthzError(c, err)
			return
		}
		items = append(items, gin.H{
			"id":            admin.ID,
			"username":      admin.Username,
			"is_super":      admin.IsSuper,
			"last_login_at": admin.LastLoginAt,
			"created_at":    admin.CreatedAt,
			"roles":         roles,
		})
	}
	response.Success(c, items)
}

func (h *Handler) CreateAuthzRole(c *gin.Context) {
	var req authzRolePayload
	if !bindAuthz(c, &req, "error.bad_request") {
		return
	}
	role, err := h.AuthzService.EnsureRole(req.Role)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	auditAuthz(c, "admin_authz_role_created", "role", role)
	response.Success(c, gin.H{"role": role})
}

// InheritAuthzRole 为角色追加父角色
func (h *Handler) InheritAuthzRole(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}
	var req authzInheritPayload
	if !bindAuthz(c, &req, "error.role_invalid") {
		return
	}
	if err := h.AuthzService.InheritRole(role, req.Parent); err != nil {
		respondAuthzError(c, err)
		return
	}
	auditAuthz(c, "admin_authz_role_inherited", "role", role, "parent", req.Parent)
	response.Success(c, nil)
}

func (h *Handler) DeleteAuthzRole(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}
	if err := h.AuthzService.DeleteRole(role); err != nil {
		respondAuthzError(c, err)
		return
	}
	auditAuthz(c, "admin_authz_role_deleted", "role", role)
	response.Success(c, nil)
}

func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, policies)
}

func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if !bindAuthz(c, &req, "error.policy_invalid") {
		return
	}
	if err := h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}
	auditAuthz(c, "admin_authz_policy_granted", "role", req.Role, "object", req.Object, "action", req.Action)
	response.Success(c, nil)
}

func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if !bindAuthz(c, &req, "error.policy_invalid") {
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}
	auditAuthz(c, "admin_authz_policy_revoked", "role", req.Role, "object", req.Object, "action", req.Action)
	response.Success(c, nil)
}

// SetAdminRoles 整体替换目标管理员的角色
func (h *Handler) SetAdminRoles(c *gin.Context) {
	adminID, ok := parseID(c, "id", "error.not_found")
	if !ok {
		return
	}
	var req authzSetAdminRolesPayload
	if !bindAuthz(c, &req, "error.bad_request") {
		return
	}
	admin, err := h.AdminRepo.GetByID(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if admin == nil {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}
	if err := h.AuthzService.SetAdminRoles(adminID, req.Roles); err != nil {
		respondAuthzError(c, err)
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	auditAuthz(c, "admin_authz_roles_assigned", "target_admin_id", adminID, "roles", roles)
	response.Success(c, gin.H{"admin_id": adminID, "roles": roles})
}
