package admin

import (
	"time"

	"github.com/candy-store/internal/constants"
	handlershared "github.com/candy-store/internal/http/handlers/shared"
	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Username       string                              `json:"username" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string                 `json:"token"`
	User      map[string]interface{} `json:"user"`
	ExpiresAt string                 `json:"expires_at"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

var (
	loginErrors = handlershared.ErrorRules{
		{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.invalid_credentials"},
	}
	changePasswordErrors = handlershared.ErrorRules{
		{Target: service.ErrInvalidPassword, Code: response.CodeBadRequest, Key: "error.invalid_credentials"},
		{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
	}
)

// AdminLogin 管理员登录
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.CaptchaService.Verify(constants.CaptchaSceneLogin, req.CaptchaPayload.ToServicePayload()); err != nil {
		handlershared.RespondMapped(c, err, handlershared.CaptchaErrors)
		return
	}

	session, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		handlershared.RespondMapped(c, err, loginErrors)
		return
	}
	requestLog(c).Infow("admin_login_succeeded", "admin_id", session.Admin.ID)
	response.Success(c, LoginResponse{
		Token: session.Token,
		User: map[string]interface{}{
			"id":       session.Admin.ID,
			"username": session.Admin.Username,
			"is_super": session.Admin.IsSuper,
		},
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
	})
}

// ChangePassword 修改当前管理员密码
func (h *Handler) ChangePassword(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.AuthService.ChangePassword(adminID, req.OldPassword, req.NewPassword); err != nil {
		if !handlershared.RespondPasswordPolicy(c, err) {
			handlershared.RespondMapped(c, err, changePasswordErrors)
		}
		return
	}
	response.Success(c, nil)
}
