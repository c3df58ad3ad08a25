package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// PrincipalKind 区分买家与后台账号
type PrincipalKind string

const (
	PrincipalUser  PrincipalKind = "user"
	PrincipalAdmin PrincipalKind = "admin"
)

// AuthState 鉴权快照，让 JWT 中间件免于每次请求回表
type AuthState struct {
	Kind         PrincipalKind `json:"kind"`
	ID           uint          `json:"id"`
	Status       string        `json:"status,omitempty"`
	TokenVersion uint64        `json:"token_version"`
	IsSuper      bool          `json:"is_super,omitempty"`
}

// Disabled 买家账号已被禁用
func (s *AuthState) Disabled() bool {
	return s != nil && s.Kind == PrincipalUser &&
		!strings.EqualFold(strings.TrimSpace(s.Status), constants.UserStatusActive)
}

// Accepts 判断 token 版本是否仍然有效，被禁用的买家一律拒绝
func (s *AuthState) Accepts(tokenVersion uint64) bool {
	return s != nil && s.TokenVersion == tokenVersion && !s.Disabled()
}

// UserState 从买家账号构建快照
func UserState(user *models.User) *AuthState {
	if user == nil {
		return nil
	}
	return &AuthState{Kind: PrincipalUser, ID: user.ID, Status: user.Status, TokenVersion: user.TokenVersion}
}

// AdminState 从后台账号构建快照
func AdminState(admin *models.Admin) *AuthState {
	if admin == nil {
		return nil
	}
	return &AuthState{Kind: PrincipalAdmin, ID: admin.ID, TokenVersion: admin.TokenVersion, IsSuper: admin.IsSuper}
}

func authStateKey(kind PrincipalKind, id uint) string {
	return fmt.Sprintf("auth:%s:%d", kind, id)
}

// LoadAuthState 读取快照，未启用缓存时总是 miss
func LoadAuthState(ctx context.Context, kind PrincipalKind, id uint) (*AuthState, bool, error) {
	if id == 0 {
		return nil, false, nil
	}
	var state AuthState
	hit, err := GetJSON(ctx, authStateKey(kind, id), &state)
	if err != nil || !hit {
		return nil, false, err
	}
	return &state, true, nil
}

// StoreAuthState 写入快照
func StoreAuthState(ctx context.Context, state *AuthState) error {
	if state == nil || state.ID == 0 {
		return nil
	}
	return SetJSON(ctx, authStateKey(state.Kind, state.ID), state, authStateCacheTTL)
}

// ForgetAuthState 删除快照，下次请求回表重建
func ForgetAuthState(ctx context.Context, kind PrincipalKind, id uint) error {
	if id == 0 {
		return nil
	}
	return Del(ctx, authStateKey(kind, id))
}
