package service

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/candy-store/internal/cache"
	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9@.+_-]{3,150}$`)

// UserAuthService 买家注册、登录与改密
type UserAuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	prefRepo repository.PreferenceRepository
}

func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository, prefRepo repository.PreferenceRepository) *UserAuthService {
	return &UserAuthService{cfg: cfg, userRepo: userRepo, prefRepo: prefRepo}
}

// UserJWTClaims 买家 token 载荷，TokenVersion 与账号不一致即失效
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// UserSession 登录或注册成功后的会话
type UserSession struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// RegisterInput 注册输入
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// normalize 校验格式并返回清洗后的副本，不查库
func (in RegisterInput) normalize(policy config.PasswordPolicyConfig) (RegisterInput, error) {
	in.Username = strings.TrimSpace(in.Username)
	if !usernamePattern.MatchString(in.Username) {
		return in, ErrInvalidUsername
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return in, err
	}
	in.Email = email
	switch {
	case in.Password == "":
		return in, ErrInvalidPassword
	case in.Password != in.ConfirmPassword:
		return in, ErrPasswordMismatch
	}
	return in, validatePassword(policy, in.Password)
}

// GenerateUserJWT 签发买家 token，expireHours<=0 时使用默认时长
func (s *UserAuthService) GenerateUserJWT(user *models.User, expireHours int) (string, time.Time, error) {
	issuedAt, expiresAt := sessionWindow(expireHours)
	token, err := signToken(s.cfg.UserJWT.SecretKey, UserJWTClaims{
		UserID:           user.ID,
		Username:         user.Username,
		TokenVersion:     user.TokenVersion,
		RegisteredClaims: registeredClaims(issuedAt, expiresAt),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (s *UserAuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	claims := &UserJWTClaims{}
	if err := parseToken(s.cfg.UserJWT.SecretKey, tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// sessionHours 记住我使用更长的有效期，未配置时回落到普通时长
func (s *UserAuthService) sessionHours(rememberMe bool) int {
	if rememberMe && s.cfg.UserJWT.RememberMeExpireHours > 0 {
		return s.cfg.UserJWT.RememberMeExpireHours
	}
	return s.cfg.UserJWT.ExpireHours
}

// issue 签发 token 并刷新鉴权快照
func (s *UserAuthService) issue(user *models.User, rememberMe bool) (*UserSession, error) {
	token, expiresAt, err := s.GenerateUserJWT(user, s.sessionHours(rememberMe))
	if err != nil {
		return nil, err
	}
	_ = cache.StoreAuthState(context.Background(), cache.UserState(user))
	return &UserSession{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Register 注册买家，账号与默认通知偏好同事务写入
func (s *UserAuthService) Register(input RegisterInput) (*UserSession, error) {
	input, err := input.normalize(s.cfg.Security.PasswordPolicy)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(input.Username, input.Email); err != nil {
		return nil, err
	}
	hashed, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashed,
		Status:       constants.UserStatusActive,
		LastLoginAt:  &now,
	}
	err = s.userRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(user); err != nil {
			return err
		}
		pref := models.DefaultPreference(user.ID, defaultThresholdFromConfig(s.cfg))
		if err := s.prefRepo.WithTx(tx).Create(&pref); err != nil {
			return err
		}
		user.Preference = &pref
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("user_registered", "user_id", user.ID, "username", user.Username)
	return s.issue(user, false)
}

func (s *UserAuthService) ensureAvailable(username, email string) error {
	if found, err := s.userRepo.GetByUsername(username); err != nil || found != nil {
		return firstErr(err, ErrUsernameExists)
	}
	if found, err := s.userRepo.GetByEmail(email); err != nil || found != nil {
		return firstErr(err, ErrEmailExists)
	}
	return nil
}

func firstErr(err, fallback error) error {
	if err != nil {
		return err
	}
	return fallback
}

// Login 用户名或邮箱登录；禁用账号先于密码校验返回
func (s *UserAuthService) Login(identifier, password string, rememberMe bool) (*UserSession, error) {
	user, err := s.findByIdentifier(identifier)
	switch {
	case err != nil:
		return nil, err
	case user == nil:
		return nil, ErrInvalidCredentials
	case !strings.EqualFold(user.Status, constants.UserStatusActive):
		return nil, ErrUserDisabled
	case !passwordMatches(user.PasswordHash, password):
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return s.issue(user, rememberMe)
}

// findByIdentifier 先按用户名查找，含 @ 时再按邮箱查找
func (s *UserAuthService) findByIdentifier(identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil
	}
	user, err := s.userRepo.GetByUsername(identifier)
	if err != nil || user != nil || !strings.Contains(identifier, "@") {
		return user, err
	}
	email, err := normalizeEmail(identifier)
	if err != nil {
		return nil, nil
	}
	return s.userRepo.GetByEmail(email)
}

// ChangePassword 修改密码，旧 token 全部失效
func (s *UserAuthService) ChangePassword(userID uint, oldPassword, newPassword, confirmPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	switch {
	case !passwordMatches(user.PasswordHash, oldPassword):
		return ErrInvalidPassword
	case newPassword != confirmPassword:
		return ErrPasswordMismatch
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return err
	}
	if user.PasswordHash, err = hashPassword(newPassword); err != nil {
		return err
	}
	user.TokenVersion++
	if err := s.userRepo.Update(user); err != nil {
		return err
	}
	_ = cache.ForgetAuthState(context.Background(), cache.PrincipalUser, user.ID)
	return nil
}

func (s *UserAuthService) GetUserByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

func defaultThresholdFromConfig(cfg *config.Config) int {
	if cfg != nil && cfg.Notify.DefaultLowStockThreshold > 0 {
		return cfg.Notify.DefaultLowStockThreshold
	}
	return constants.DefaultLowStockThreshold
}
