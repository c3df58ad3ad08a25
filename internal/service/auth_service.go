package service

import (
	"context"
	"time"

	"github.com/candy-store/internal/cache"
	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService 后台账号认证
type AuthService struct {
	cfg       *config.Config
	adminRepo repository.AdminRepository
	now       func() time.Time
}

// NewAuthService 创建后台认证服务
func NewAuthService(cfg *config.Config, adminRepo repository.AdminRepository) *AuthService {
	return &AuthService{cfg: cfg, adminRepo: adminRepo, now: time.Now}
}

// JWTClaims 后台 token 声明，与买家 token 使用不同密钥
type JWTClaims struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// AdminSession 登录成功后返回给 handler 的会话
type AdminSession struct {
	Admin     *models.Admin
	Token     string
	ExpiresAt time.Time
}

// GenerateJWT 按当前 token 版本签发后台 token
func (s *AuthService) GenerateJWT(admin *models.Admin) (string, time.Time, error) {
	issuedAt, expiresAt := sessionWindow(s.cfg.JWT.ExpireHours)
	token, err := signToken(s.cfg.JWT.SecretKey, JWTClaims{
		AdminID:          admin.ID,
		Username:         admin.Username,
		TokenVersion:     admin.TokenVersion,
		RegisteredClaims: registeredClaims(issuedAt, expiresAt),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseJWT 校验后台 token 签名与有效期
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	if err := parseToken(s.cfg.JWT.SecretKey, tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Login 用户名或密码错误统一返回 ErrInvalidCredentials
func (s *AuthService) Login(username, password string) (*AdminSession, error) {
	admin, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if admin == nil || !passwordMatches(admin.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(admin)
	if err != nil {
		return nil, err
	}
	loginAt := s.now()
	if err := s.adminRepo.RecordLogin(admin.ID, loginAt); err != nil {
		return nil, err
	}
	admin.LastLoginAt = &loginAt
	_ = cache.StoreAuthState(context.Background(), cache.AdminState(admin))
	return &AdminSession{Admin: admin, Token: token, ExpiresAt: expiresAt}, nil
}

// ChangePassword 修改密码后该账号已签发的 token 全部失效
func (s *AuthService) ChangePassword(adminID uint, oldPassword, newPassword string) error {
	admin, err := s.adminRepo.GetByID(adminID)
	if err != nil {
		return err
	}
	if admin == nil {
		return ErrNotFound
	}
	if !passwordMatches(admin.PasswordHash, oldPassword) {
		return ErrInvalidPassword
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	rotated, err := s.adminRepo.RotatePassword(adminID, hash)
	if err != nil {
		return err
	}
	if rotated == nil {
		return ErrNotFound
	}
	_ = cache.StoreAuthState(context.Background(), cache.AdminState(rotated))
	logger.Infow("admin_password_rotated", "admin_id", adminID, "token_version", rotated.TokenVersion)
	return nil
}
