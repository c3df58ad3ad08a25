package router

import (
	"context"
	"strings"

	"github.com/candy-store/internal/cache"
	"github.com/candy-store/internal/repository"
	"github.com/candy-store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// bearerAuth 一类 JWT 主体的校验流程：验签、比对 token 版本、写入上下文
type bearerAuth[C jwt.Claims] struct {
	kind    cache.PrincipalKind
	secret  string
	claims  func() C
	subject func(C) (id uint, tokenVersion uint64)
	load    func(id uint) (*cache.AuthState, error)
	bind    func(c *gin.Context, claims C, state *cache.AuthState)
}

func (a bearerAuth[C]) handle(c *gin.Context) {
	if a.secret == "" {
		abortUnauthorized(c, "error.unauthorized")
		return
	}
	claims := a.claims()
	if !parseBearerClaims(c, a.secret, claims) {
		return
	}
	id, version := a.subject(claims)
	state := a.resolve(c.Request.Context(), id)
	if state.Disabled() {
		abortUnauthorized(c, "error.user_disabled")
		return
	}
	if !state.Accepts(version) {
		abortUnauthorized(c, "error.token_invalid")
		return
	}
	a.bind(c, claims, state)
	c.Next()
}

// resolve 先查缓存快照，未命中回表并回填；账号不存在时返回 nil
func (a bearerAuth[C]) resolve(ctx context.Context, id uint) *cache.AuthState {
	if id == 0 || a.load == nil {
		return nil
	}
	if state, hit, err := cache.LoadAuthState(ctx, a.kind, id); err == nil && hit {
		return state
	}
	state, err := a.load(id)
	if err != nil || state == nil {
		return nil
	}
	_ = cache.StoreAuthState(ctx, state)
	return state
}

// JWTAuthMiddleware 管理端 JWT 鉴权
func JWTAuthMiddleware(secretKey string, adminRepo repository.AdminRepository) gin.HandlerFunc {
	auth := bearerAuth[*service.JWTClaims]{
		kind:   cache.PrincipalAdmin,
		secret: secretKey,
		claims: func() *service.JWTClaims { return &service.JWTClaims{} },
		subject: func(claims *service.JWTClaims) (uint, uint64) {
			return claims.AdminID, claims.TokenVersion
		},
		bind: func(c *gin.Context, claims *service.JWTClaims, state *cache.AuthState) {
			c.Set("admin_id", claims.AdminID)
			c.Set("username", claims.Username)
			c.Set(adminIsSuperContextKey, state.IsSuper)
		},
	}
	if adminRepo != nil {
		auth.load = func(id uint) (*cache.AuthState, error) {
			admin, err := adminRepo.GetByID(id)
			return cache.AdminState(admin), err
		}
	}
	return auth.handle
}

// UserJWTAuthMiddleware 买家 JWT 鉴权，禁用账号单独提示
func UserJWTAuthMiddleware(secretKey string, userRepo repository.UserRepository) gin.HandlerFunc {
	auth := bearerAuth[*service.UserJWTClaims]{
		kind:   cache.PrincipalUser,
		secret: secretKey,
		claims: func() *service.UserJWTClaims { return &service.UserJWTClaims{} },
		subject: func(claims *service.UserJWTClaims) (uint, uint64) {
			return claims.UserID, claims.TokenVersion
		},
		bind: func(c *gin.Context, claims *service.UserJWTClaims, _ *cache.AuthState) {
			c.Set("user_id", claims.UserID)
			c.Set("username", claims.Username)
		},
	}
	if userRepo != nil {
		auth.load = func(id uint) (*cache.AuthState, error) {
			user, err := userRepo.GetByID(id)
			return cache.UserState(user), err
		}
	}
	return auth.handle
}

// parseBearerClaims 校验 HS256 签名并填充 claims，失败时已写入 401
func parseBearerClaims(c *gin.Context, secretKey string, claims jwt.Claims) bool {
	scheme, token, found := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if scheme == "" {
		abortUnauthorized(c, "error.unauthorized")
		return false
	}
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		abortUnauthorized(c, "error.token_invalid")
		return false
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})
	if err != nil || !parsed.Valid {
		abortUnauthorized(c, "error.token_invalid")
		return false
	}
	return true
}
