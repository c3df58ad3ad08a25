package admin

import (
	"errors"
	"strings"

	handlershared "github.com/candy-store/internal/http/handlers/shared"
	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest 商品创建/更新请求，更新时省略的字段保持不变
type ProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	Stock       *int    `json:"stock"`
	Category    *string `json:"category"`
	ImageURL    *string `json:"image_url"`
}

// StockAdjustRequest 库存增减请求
type StockAdjustRequest struct {
	Delta int `json:"delta"`
}

func (r ProductRequest) toInput() (service.ProductInput, error) {
	input := service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Stock:       r.Stock,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
	}
	if r.Price != nil {
		amount, err := decimal.NewFromString(strings.TrimSpace(*r.Price))
		if err != nil {
			return input, service.ErrInvalidPrice
		}
		price := models.MoneyOf(amount)
		input.Price = &price
	}
	return input, nil
}

func respondProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		respondError(c, response.CodeNotFound, "error.product_not_found", nil)
	case errors.Is(err, service.ErrProductNameRequired):
		respondError(c, response.CodeBadRequest, "error.product_name_required", nil)
	case errors.Is(err, service.ErrInvalidPrice):
		respondError(c, response.CodeBadRequest, "error.price_invalid", nil)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}

// GetAdminProducts 获取商品列表 (Admin)
func (h *Handler) GetAdminProducts(c *gin.Context) {
	filter := handlershared.ProductFilterFromQuery(c)
	products, total, err := h.InventoryService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(filter.Page, filter.PageSize, total))
}

// GetAdminProduct 获取商品详情 (Admin)
func (h *Handler) GetAdminProduct(c *gin.Context) {
	id, ok := parseID(c, "id", "error.product_not_found")
	if !ok {
		return
	}
	detail, err := h.ProductService.Get(id)
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, detail)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondProductError(c, err)
		return
	}
	product, err := h.InventoryService.Create(input)
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品，库存变化会触发库存通知
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id", "error.product_not_found")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondProductError(c, err)
		return
	}
	product, err := h.InventoryService.Update(c.Request.Context(), id, input)
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, product)
}

// AdjustProductStock 按增量调整库存
func (h *Handler) AdjustProductStock(c *gin.Context) {
	id, ok := parseID(c, "id", "error.product_not_found")
	if !ok {
		return
	}
	var req StockAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	product, err := h.InventoryService.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		respondProductError(c, err)
		return
	}
	requestLog(c).Infow("admin_product_stock_adjusted",
		"admin_id", currentAdminID(c),
		"product_id", id,
		"delta", req.Delta,
		"stock", product.Stock,
	)
	response.Success(c, product)
}

// DeleteProduct 删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id", "error.product_not_found")
	if !ok {
		return
	}
	if err := h.InventoryService.Delete(id); err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, nil)
}
