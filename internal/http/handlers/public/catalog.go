package public

import (
	handlershared "github.com/candy-store/internal/http/handlers/shared"
	"github.com/candy-store/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetConfig 获取前台公开配置
func (h *Handler) GetConfig(c *gin.Context) {
	response.Success(c, gin.H{
		"store_name":         h.Config.Store.Name,
		"default_threshold":  h.NotificationEngine.DefaultThreshold(),
		"captcha":            h.CaptchaService.PublicSetting(),
		"restock_broadcast":  h.Config.Notify.RestockBroadcast,
		"ship_after_seconds": h.Config.Order.ShipAfterSeconds,
	})
}

// GetProducts 商品列表（分类 / 搜索 / 有货筛选 / 排序）
func (h *Handler) GetProducts(c *gin.Context) {
	filter := handlershared.ProductFilterFromQuery(c)

	products, total, err := h.ProductService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(filter.Page, filter.PageSize, total))
}

// GetProduct 商品详情（含评分汇总）
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id", "error.product_not_found")
	if !ok {
		return
	}
	detail, err := h.ProductService.Get(id)
	if err != nil {
		respondMapped(c, err, productErrors)
		return
	}
	response.Success(c, detail)
}

// GetCategories 分类列表
func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.ProductService.ListCategories()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, categories)
}

// GetProductReviews 商品评价列表
func (h *Handler) GetProductReviews(c *gin.Context) {
	id, ok := parseID(c, "id", "error.product_not_found")
	if !ok {
		return
	}
	page, pageSize := handlershared.ReadPagination(c)
	reviews, total, err := h.ReviewService.ListByProduct(id, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, reviews, response.BuildPagination(page, pageSize, total))
}

// GetImageCaptcha 获取图片验证码
func (h *Handler) GetImageCaptcha(c *gin.Context) {
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondMapped(c, err, handlershared.CaptchaErrors)
		return
	}
	response.Success(c, challenge)
}
