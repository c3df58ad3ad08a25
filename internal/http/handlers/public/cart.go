package public

import (
	"github.com/candy-store/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 购物车项请求
type CartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// CartQuantityRequest 设置数量请求，0 表示移除
type CartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	summary, err := h.CartService.List(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, summary)
}

// AddCartItem 加入购物车
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	item, err := h.CartService.Add(uid, req.ProductID, req.Quantity)
	if err != nil {
		respondMapped(c, err, cartErrors)
		return
	}
	response.Success(c, item)
}

// UpdateCartItem 设置购物车项数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "product_id", "error.product_not_found")
	if !ok {
		return
	}
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	item, err := h.CartService.SetQuantity(uid, productID, req.Quantity)
	if err != nil {
		respondMapped(c, err, cartErrors)
		return
	}
	response.Success(c, item)
}

// DeleteCartItem 移除购物车项
func (h *Handler) DeleteCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "product_id", "error.product_not_found")
	if !ok {
		return
	}
	if err := h.CartService.Remove(uid, productID); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, nil)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(uid); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, nil)
}
