package public

import (
	"fmt"
	"strings"

	handlershared "github.com/candy-store/internal/http/handlers/shared"
	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/i18n"
	"github.com/candy-store/internal/repository"
	"github.com/candy-store/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutItemRequest 直接购买的商品项
type CheckoutItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// CheckoutRequest 结算请求，items 为空时结算购物车
type CheckoutRequest struct {
	FullName string                `json:"full_name"`
	Address  string                `json:"address"`
	City     string                `json:"city"`
	ZipCode  string                `json:"zip_code"`
	Items    []CheckoutItemRequest `json:"items"`
}

// Checkout 结算下单
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	input := service.CheckoutInput{
		FullName: req.FullName,
		Address:  req.Address,
		City:     req.City,
		ZipCode:  req.ZipCode,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.CheckoutItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.OrderService.Checkout(c.Request.Context(), uid, input)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders 订单历史
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ReadPagination(c)
	orders, total, err := h.OrderService.ListOrders(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id", "error.order_not_found")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(uid, orderID)
	if err != nil {
		respondMapped(c, err, orderErrors)
		return
	}
	response.Success(c, order)
}

// GetOrderStatus 订单状态轮询
func (h *Handler) GetOrderStatus(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id", "error.order_not_found")
	if !ok {
		return
	}
	view, err := h.OrderService.GetOrderStatus(uid, orderID)
	if err != nil {
		respondMapped(c, err, orderErrors)
		return
	}
	response.Success(c, view)
}

// CancelOrder 取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id", "error.order_not_found")
	if !ok {
		return
	}
	order, err := h.OrderService.CancelOrder(c.Request.Context(), uid, orderID)
	if err != nil {
		respondMapped(c, err, orderErrors)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "success.order_cancelled"), order)
}

// GetOrderInvoice 下载纯文本发票
func (h *Handler) GetOrderInvoice(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id", "error.order_not_found")
	if !ok {
		return
	}
	invoice, err := h.OrderService.RenderInvoice(uid, orderID)
	if err != nil {
		respondMapped(c, err, orderErrors)
		return
	}
	response.Text(c, fmt.Sprintf("invoice_%d.txt", orderID), invoice)
}
