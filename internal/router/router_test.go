package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type routerTestEnv struct {
	db        *gorm.DB
	container *provider.Container
	engine    *gin.Engine
}

type apiEnvelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func newRouterTestEnv(t *testing.T) *routerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: "debug"},
		JWT:     config.JWTConfig{SecretKey: "admin-secret", ExpireHours: 12},
		UserJWT: config.JWTConfig{SecretKey: "user-secret", ExpireHours: 24},
		Order:   config.OrderConfig{ShipAfterSeconds: 60, DeliverAfterSeconds: 120},
		Notify:  config.NotifyConfig{DefaultLowStockThreshold: 3, LowStockCooldownHours: 24},
		Captcha: config.CaptchaConfig{Provider: constants.CaptchaProviderNone},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8},
		},
	}
	container := provider.NewContainerWithDB(cfg, db, nil)
	return &routerTestEnv{db: db, container: container, engine: SetupRouter(cfg, container)}
}

func (env *routerTestEnv) call(t *testing.T, method, path, token string, body interface{}) apiEnvelope {
	t.Helper()
	raw := []byte{}
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		raw = encoded
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)

	var out apiEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s %s failed: %v body=%s", method, path, err, rec.Body.String())
	}
	return out
}

func TestUserRoutesRequireToken(t *testing.T) {
	env := newRouterTestEnv(t)

	if resp := env.call(t, http.MethodGet, "/api/v1/cart", "", nil); resp.StatusCode != response.CodeUnauthorized {
		t.Fatalf("expected 401 without token, got %+v", resp)
	}
	if resp := env.call(t, http.MethodGet, "/api/v1/cart", "not-a-jwt", nil); resp.StatusCode != response.CodeUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %+v", resp)
	}

	registered := env.call(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username":         "taffy",
		"email":            "taffy@example.com",
		"password":         "sugar-rush-1",
		"confirm_password": "sugar-rush-1",
	})
	if registered.StatusCode != response.CodeOK {
		t.Fatalf("register failed: %+v", registered)
	}
	var auth struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(registered.Data, &auth); err != nil || auth.Token == "" {
		t.Fatalf("expected token in register response: %v", err)
	}

	if resp := env.call(t, http.MethodGet, "/api/v1/cart", auth.Token, nil); resp.StatusCode != response.CodeOK {
		t.Fatalf("expected cart access with token, got %+v", resp)
	}
	if resp := env.call(t, http.MethodGet, "/api/v1/me/preferences", auth.Token, nil); resp.StatusCode != response.CodeOK {
		t.Fatalf("expected preferences access with token, got %+v", resp)
	}

	// 用户 token 不能访问管理端
	if resp := env.call(t, http.MethodGet, "/api/v1/admin/products", auth.Token, nil); resp.StatusCode != response.CodeUnauthorized {
		t.Fatalf("expected admin route to reject user token, got %+v", resp)
	}
}

func TestAdminRoutesEnforceRoles(t *testing.T) {
	env := newRouterTestEnv(t)
	manager := &models.Admin{Username: "stocker", PasswordHash: "hash"}
	super := &models.Admin{Username: "root", PasswordHash: "hash", IsSuper: true}
	if err := env.db.Create(manager).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	if err := env.db.Create(super).Error; err != nil {
		t.Fatalf("create super admin failed: %v", err)
	}
	if err := env.container.AuthzService.SetAdminRoles(manager.ID, []string{"inventory_manager"}); err != nil {
		t.Fatalf("assign role failed: %v", err)
	}
	managerToken, _, err := env.container.AuthService.GenerateJWT(manager)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	superToken, _, err := env.container.AuthService.GenerateJWT(super)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	created := env.call(t, http.MethodPost, "/api/v1/admin/products", managerToken, gin.H{"name": "Nougat", "price": "2.00", "stock": 3})
	if created.StatusCode != response.CodeOK {
		t.Fatalf("inventory manager should create products, got %+v", created)
	}
	if resp := env.call(t, http.MethodGet, "/api/v1/admin/users", managerToken, nil); resp.StatusCode != response.CodeOK {
		t.Fatalf("inherited auditor role should read users, got %+v", resp)
	}
	if resp := env.call(t, http.MethodPut, "/api/v1/admin/users/1/status", managerToken, gin.H{"status": "disabled"}); resp.StatusCode != response.CodeForbidden {
		t.Fatalf("inventory manager should not change user status, got %+v", resp)
	}
	if resp := env.call(t, http.MethodGet, "/api/v1/admin/authz/me", managerToken, nil); resp.StatusCode != response.CodeOK {
		t.Fatalf("authz/me should only require a valid token, got %+v", resp)
	}
	if resp := env.call(t, http.MethodDelete, "/api/v1/admin/products/999", superToken, nil); resp.StatusCode != response.CodeNotFound {
		t.Fatalf("super admin bypasses rbac and reaches handler, got %+v", resp)
	}
}

func TestHealthAndPublicCatalog(t *testing.T) {
	env := newRouterTestEnv(t)
	if err := env.db.Create(&models.Product{Name: "Jelly Bean", Price: models.MustMoney("0.50"), Stock: 9, Category: "Jelly"}).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	if resp := env.call(t, http.MethodGet, "/health", "", nil); resp.StatusCode != response.CodeOK {
		t.Fatalf("health failed: %+v", resp)
	}
	resp := env.call(t, http.MethodGet, "/api/v1/public/categories", "", nil)
	var categories []string
	if err := json.Unmarshal(resp.Data, &categories); err != nil {
		t.Fatalf("decode categories failed: %v", err)
	}
	if len(categories) != 1 || categories[0] != "Jelly" {
		t.Fatalf("unexpected categories: %v", categories)
	}
}
