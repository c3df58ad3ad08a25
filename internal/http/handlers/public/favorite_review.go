package public

import (
	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/service"

	"github.com/gin-gonic/gin"
)

// ReviewRequest 评价请求
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

var favoriteErrors = errorRules{
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
}

// ListFavorites 收藏列表
func (h *Handler) ListFavorites(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	favorites, err := h.FavoriteService.List(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, favorites)
}

// AddFavorite 收藏商品
func (h *Handler) AddFavorite(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "id", "error.product_not_found")
	if !ok {
		return
	}
	favorite, err := h.FavoriteService.Add(uid, productID)
	if err != nil {
		respondMapped(c, err, favoriteErrors)
		return
	}
	response.Success(c, favorite)
}

// RemoveFavorite 取消收藏
func (h *Handler) RemoveFavorite(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "id", "error.product_not_found")
	if !ok {
		return
	}
	if err := h.FavoriteService.Remove(uid, productID); err != nil {
		respondMapped(c, err, favoriteErrors)
		return
	}
	response.Success(c, nil)
}

// CreateReview 发表评价
func (h *Handler) CreateReview(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := parseID(c, "id", "error.product_not_found")
	if !ok {
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.rating_invalid", nil)
		return
	}
	review, err := h.ReviewService.Create(uid, productID, service.ReviewInput{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		respondMapped(c, err, reviewErrors)
		return
	}
	response.Success(c, review)
}

// UpdateReview 修改评价
func (h *Handler) UpdateReview(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "id", "error.review_not_found")
	if !ok {
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.rating_invalid", nil)
		return
	}
	review, err := h.ReviewService.Update(uid, reviewID, service.ReviewInput{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		respondMapped(c, err, reviewErrors)
		return
	}
	response.Success(c, review)
}

// DeleteReview 删除评价
func (h *Handler) DeleteReview(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "id", "error.review_not_found")
	if !ok {
		return
	}
	if err := h.ReviewService.Delete(uid, reviewID); err != nil {
		respondMapped(c, err, reviewErrors)
		return
	}
	response.Success(c, nil)
}

// ListMyReviews 我的评价
func (h *Handler) ListMyReviews(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	reviews, err := h.ReviewService.ListByUser(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, reviews)
}
