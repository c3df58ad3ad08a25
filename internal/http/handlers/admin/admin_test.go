package admin

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

type adminTestEnv struct {
	db     *gorm.DB
	engine *gin.Engine
	admin  *models.Admin
}

type envelope struct {
	StatusCode int                 `json:"status_code"`
	Msg        string              `json:"msg"`
	Data       json.RawMessage     `json:"data"`
	Pagination response.Pagination `json:"pagination"`
}

func newAdminTestEnv(t *testing.T) *adminTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin_handler_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	admin := &models.Admin{Username: "ops", PasswordHash: "hash"}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: "admin-secret", ExpireHours: 12},
		Order:   config.OrderConfig{ShipAfterSeconds: 60, DeliverAfterSeconds: 120},
		Notify:  config.NotifyConfig{DefaultLowStockThreshold: 3, LowStockCooldownHours: 24},
		Captcha: config.CaptchaConfig{Provider: constants.CaptchaProviderNone},
	}
	h := New(provider.NewContainerWithDB(cfg, db, nil))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("admin_id", admin.ID)
		c.Next()
	})
	r.POST("/products", h.CreateProduct)
	r.POST("/products/:id/stock", h.AdjustProductStock)
	r.PUT("/users/:id/status", h.UpdateUserStatus)
	r.PUT("/admins/:id/roles", h.SetAdminRoles)
	r.POST("/alerts/sweep", h.TriggerAlertSweep)
	r.GET("/notification-logs", h.ListNotificationLogs)
	return &adminTestEnv{db: db, engine: r, admin: admin}
}

func (env *adminTestEnv) do(t *testing.T, method, path string, body interface{}) envelope {
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
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)

	var out envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode failed: %v body=%s", err, rec.Body.String())
	}
	return out
}

func TestCreateProductValidation(t *testing.T) {
	env := newAdminTestEnv(t)

	if resp := env.do(t, http.MethodPost, "/products", gin.H{"price": "1.00"}); resp.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected missing name rejection, got %+v", resp)
	}
	if resp := env.do(t, http.MethodPost, "/products", gin.H{"name": "Fudge", "price": "abc"}); resp.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected invalid price rejection, got %+v", resp)
	}

	resp := env.do(t, http.MethodPost, "/products", gin.H{"name": "Fudge", "price": "3.75", "stock": 12, "category": "Fudge"})
	if resp.StatusCode != response.CodeOK {
		t.Fatalf("create failed: %+v", resp)
	}
	var product models.Product
	if err := json.Unmarshal(resp.Data, &product); err != nil {
		t.Fatalf("decode product failed: %v", err)
	}
	if product.Price.String() != "3.75" || product.Stock != 12 {
		t.Fatalf("unexpected product: %+v", product)
	}
}

func TestAdjustStockRecordsRestockAttempt(t *testing.T) {
	env := newAdminTestEnv(t)
	product := &models.Product{Name: "Licorice", Price: models.MustMoney("0.99"), Stock: 0}
	if err := env.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	user := &models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "hash", Status: constants.UserStatusActive}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if err := env.db.Create(&models.StockAlert{UserID: user.ID, ProductID: product.ID}).Error; err != nil {
		t.Fatalf("create alert failed: %v", err)
	}

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/products/%d/stock", product.ID), gin.H{"delta": 6})
	if resp.StatusCode != response.CodeOK {
		t.Fatalf("adjust failed: %+v", resp)
	}

	// 邮件服务未启用，发送记录为失败
	logs := env.do(t, http.MethodGet, "/notification-logs?kind=restock&status=failed", nil)
	if logs.StatusCode != response.CodeOK || logs.Pagination.Total != 1 {
		t.Fatalf("expected one failed restock log, got %+v", logs)
	}

	missing := env.do(t, http.MethodPost, "/products/9999/stock", gin.H{"delta": 1})
	if missing.StatusCode != response.CodeNotFound {
		t.Fatalf("expected product not found, got %+v", missing)
	}
}

func TestUpdateUserStatusAndRoles(t *testing.T) {
	env := newAdminTestEnv(t)
	user := &models.User{Username: "carol", Email: "carol@example.com", PasswordHash: "hash", Status: constants.UserStatusActive}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	if resp := env.do(t, http.MethodPut, fmt.Sprintf("/users/%d/status", user.ID), gin.H{"status": "banned"}); resp.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected invalid status, got %+v", resp)
	}
	if resp := env.do(t, http.MethodPut, fmt.Sprintf("/users/%d/status", user.ID), gin.H{"status": "disabled"}); resp.StatusCode != response.CodeOK {
		t.Fatalf("disable failed: %+v", resp)
	}

	resp := env.do(t, http.MethodPut, fmt.Sprintf("/admins/%d/roles", env.admin.ID), gin.H{"roles": []string{"inventory_manager"}})
	if resp.StatusCode != response.CodeOK {
		t.Fatalf("set roles failed: %+v", resp)
	}
	var assigned struct {
		Roles []string `json:"roles"`
	}
	if err := json.Unmarshal(resp.Data, &assigned); err != nil {
		t.Fatalf("decode roles failed: %v", err)
	}
	if len(assigned.Roles) != 1 || assigned.Roles[0] != "role:inventory_manager" {
		t.Fatalf("unexpected roles: %+v", assigned.Roles)
	}

	if resp := env.do(t, http.MethodPut, "/admins/9999/roles", gin.H{"roles": []string{}}); resp.StatusCode != response.CodeNotFound {
		t.Fatalf("expected missing admin, got %+v", resp)
	}
}

func TestTriggerAlertSweepRunsInline(t *testing.T) {
	env := newAdminTestEnv(t)
	resp := env.do(t, http.MethodPost, "/alerts/sweep", nil)
	if resp.StatusCode != response.CodeOK {
		t.Fatalf("sweep failed: %+v", resp)
	}
	var body struct {
		Queued bool `json:"queued"`
	}
	if err := json.Unmarshal(resp.Data, &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Queued {
		t.Fatalf("expected inline sweep without a queue")
	}
}
