package public

import (
	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/i18n"
	"github.com/candy-store/internal/service"

	"github.com/gin-gonic/gin"
)

// WatchlistAddRequest 关注商品请求
type WatchlistAddRequest struct {
	ProductID       uint `json:"product_id" binding:"required"`
	CustomThreshold *int `json:"custom_threshold"`
}

// WatchlistThresholdRequest 更新自定义阈值，null 表示回退到全局阈值
type WatchlistThresholdRequest struct {
	CustomThreshold *int `json:"custom_threshold"`
}

// StockAlertRequest 到货提醒请求
type StockAlertRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// PreferenceRequest 通知偏好更新请求
type PreferenceRequest struct {
	LowStockEmailAlerts *bool `json:"low_stock_email_alerts"`
	RestockEmailAlerts  *bool `json:"restock_email_alerts"`
	LowStockThreshold   *int  `json:"low_stock_threshold"`
}

// ListWatchlist 关注列表
func (h *Handler) ListWatchlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	items, err := h.WatchlistService.List(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, items)
}

// AddWatchlist 关注商品
func (h *Handler) AddWatchlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req WatchlistAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	entry, err := h.WatchlistService.Add(uid, req.ProductID, req.CustomThreshold)
	if err != nil {
		respondMapped(c, err, watchlistErrors)
		return
	}
	response.Success(c, entry)
}

// UpdateWatchlistThreshold 更新关注阈值
func (h *Handler) UpdateWatchlistThreshold(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	entryID, ok := parseID(c, "id", "error.watchlist_not_found")
	if !ok {
		return
	}
	var req WatchlistThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	entry, err := h.WatchlistService.UpdateThreshold(uid, entryID, req.CustomThreshold)
	if err != nil {
		respondMapped(c, err, watchlistErrors)
		return
	}
	response.Success(c, entry)
}

// RemoveWatchlist 取消关注
func (h *Handler) RemoveWatchlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	entryID, ok := parseID(c, "id", "error.watchlist_not_found")
	if !ok {
		return
	}
	if err := h.WatchlistService.Remove(uid, entryID); err != nil {
		respondMapped(c, err, watchlistErrors)
		return
	}
	response.Success(c, nil)
}

// ListStockAlerts 到货提醒列表
func (h *Handler) ListStockAlerts(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	alerts, err := h.StockAlertService.List(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, alerts)
}

// RequestStockAlert 登记到货提醒（重复登记返回已有记录）
func (h *Handler) RequestStockAlert(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req StockAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	alert, created, err := h.StockAlertService.Request(uid, req.ProductID)
	if err != nil {
		respondMapped(c, err, productErrors)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "success.stock_alert_created"), gin.H{
		"alert":   alert,
		"created": created,
	})
}

// CancelStockAlert 取消到货提醒
func (h *Handler) CancelStockAlert(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	alertID, ok := parseID(c, "id", "error.stock_alert_not_found")
	if !ok {
		return
	}
	if err := h.StockAlertService.Cancel(uid, alertID); err != nil {
		respondMapped(c, err, stockAlertErrors)
		return
	}
	response.Success(c, nil)
}

// GetPreferences 通知偏好
func (h *Handler) GetPreferences(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	pref, err := h.PreferenceService.Get(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, pref)
}

// UpdatePreferences 更新通知偏好
func (h *Handler) UpdatePreferences(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	pref, err := h.PreferenceService.Update(uid, service.PreferenceInput{
		LowStockEmailAlerts: req.LowStockEmailAlerts,
		RestockEmailAlerts:  req.RestockEmailAlerts,
		LowStockThreshold:   req.LowStockThreshold,
	})
	if err != nil {
		respondMapped(c, err, watchlistErrors)
		return
	}
	response.Success(c, pref)
}
