package admin

import (
	"errors"
	"strings"

	handlershared "github.com/candy-store/internal/http/handlers/shared"
	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/repository"
	"github.com/candy-store/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateUserStatusRequest 用户状态更新请求
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		respondError(c, response.CodeNotFound, "error.user_not_found", nil)
	case errors.Is(err, service.ErrInvalidUserStatus):
		respondError(c, response.CodeBadRequest, "error.user_status_invalid", nil)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}

// GetAdminUsers 获取用户列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
	page, pageSize := handlershared.ReadPagination(c)
	users, total, err := h.UserAdminService.List(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, users, response.BuildPagination(page, pageSize, total))
}

// UpdateUserStatus 启用/禁用用户
func (h *Handler) UpdateUserStatus(c *gin.Context) {
	userID, ok := parseID(c, "id", "error.user_not_found")
	if !ok {
		return
	}
	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.user_status_invalid", nil)
		return
	}
	user, err := h.UserAdminService.UpdateStatus(userID, req.Status)
	if err != nil {
		respondUserError(c, err)
		return
	}
	requestLog(c).Infow("admin_user_status_updated",
		"admin_id", currentAdminID(c),
		"user_id", userID,
		"status", user.Status,
	)
	response.Success(c, user)
}

// DeleteUser 删除用户及其关注、提醒、购物车与收藏
func (h *Handler) DeleteUser(c *gin.Context) {
	userID, ok := parseID(c, "id", "error.user_not_found")
	if !ok {
		return
	}
	if err := h.UserAdminService.Delete(userID); err != nil {
		respondUserError(c, err)
		return
	}
	requestLog(c).Infow("admin_user_deleted", "admin_id", currentAdminID(c), "user_id", userID)
	response.Success(c, nil)
}
