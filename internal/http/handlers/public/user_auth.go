package public

import (
	"github.com/candy-store/internal/constants"
	handlershared "github.com/candy-store/internal/http/handlers/shared"
	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 用户注册请求
type RegisterRequest struct {
	Username        string                              `json:"username" binding:"required"`
	Email           string                              `json:"email" binding:"required"`
	Password        string                              `json:"password" binding:"required"`
	ConfirmPassword string                              `json:"confirm_password" binding:"required"`
	CaptchaPayload  handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// LoginRequest 用户登录请求（用户名或邮箱）
type LoginRequest struct {
	Identifier     string                              `json:"identifier" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	RememberMe     bool                                `json:"remember_me"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// UserRegister 用户注册
func (h *Handler) UserRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.CaptchaService.Verify(constants.CaptchaSceneRegister, req.CaptchaPayload.ToServicePayload()); err != nil {
		respondMapped(c, err, handlershared.CaptchaErrors)
		return
	}

	session, err := h.UserAuthService.Register(service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		if handlershared.RespondPasswordPolicy(c, err) {
			return
		}
		respondMapped(c, err, userAuthErrors)
		return
	}
	response.Success(c, session)
}

// UserLogin 用户登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.CaptchaService.Verify(constants.CaptchaSceneLogin, req.CaptchaPayload.ToServicePayload()); err != nil {
		respondMapped(c, err, handlershared.CaptchaErrors)
		return
	}

	session, err := h.UserAuthService.Login(req.Identifier, req.Password, req.RememberMe)
	if err != nil {
		respondMapped(c, err, userAuthErrors)
		return
	}
	response.Success(c, session)
}

// GetCurrentUser 当前登录用户
func (h *Handler) GetCurrentUser(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(uid)
	if err != nil {
		respondMapped(c, err, userAuthErrors)
		return
	}
	response.Success(c, user)
}

// ChangeUserPassword 修改密码
func (h *Handler) ChangeUserPassword(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.UserAuthService.ChangePassword(uid, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		if handlershared.RespondPasswordPolicy(c, err) {
			return
		}
		respondMapped(c, err, userAuthErrors)
		return
	}
	response.Success(c, nil)
}

// GetAccount 账户页汇总
func (h *Handler) GetAccount(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	summary, err := h.AccountService.Summary(uid)
	if err != nil {
		respondMapped(c, err, userAuthErrors)
		return
	}
	response.Success(c, summary)
}
