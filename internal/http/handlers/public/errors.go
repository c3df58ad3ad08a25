package public

import (
	"errors"
	"strings"

	handlershared "github.com/candy-store/internal/http/handlers/shared"
	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/i18n"
	"github.com/candy-store/internal/service"

	"github.com/gin-gonic/gin"
)

type errorRules = handlershared.ErrorRules

var (
	productErrors = errorRules{
		{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	}
	checkoutErrors = errorRules{
		{Target: service.ErrCartEmpty, Code: response.CodeBadRequest, Key: "error.cart_empty"},
		{Target: service.ErrInvalidQuantity, Code: response.CodeBadRequest, Key: "error.quantity_invalid"},
		{Target: service.ErrShippingInfoRequired, Code: response.CodeBadRequest, Key: "error.shipping_required"},
	}.With(productErrors)
	orderErrors = errorRules{
		{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
		{Target: service.ErrOrderCancelNotAllowed, Code: response.CodeConflict, Key: "error.order_cancel_not_allowed"},
	}
	watchlistErrors = errorRules{
		{Target: service.ErrWatchlistEntryNotFound, Code: response.CodeNotFound, Key: "error.watchlist_not_found"},
		{Target: service.ErrInvalidThreshold, Code: response.CodeBadRequest, Key: "error.threshold_invalid"},
	}.With(productErrors)
	stockAlertErrors = errorRules{
		{Target: service.ErrStockAlertNotFound, Code: response.CodeNotFound, Key: "error.stock_alert_not_found"},
	}
	reviewErrors = errorRules{
		{Target: service.ErrReviewExists, Code: response.CodeConflict, Key: "error.review_exists"},
		{Target: service.ErrReviewNotFound, Code: response.CodeNotFound, Key: "error.review_not_found"},
		{Target: service.ErrInvalidRating, Code: response.CodeBadRequest, Key: "error.rating_invalid"},
	}.With(productErrors)
	cartErrors = errorRules{
		{Target: service.ErrInvalidQuantity, Code: response.CodeBadRequest, Key: "error.quantity_invalid"},
		{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
	}.With(productErrors)
	userAuthErrors = errorRules{
		{Target: service.ErrInvalidUsername, Code: response.CodeBadRequest, Key: "error.username_invalid"},
		{Target: service.ErrUsernameExists, Code: response.CodeConflict, Key: "error.username_exists"},
		{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest, Key: "error.email_invalid"},
		{Target: service.ErrEmailExists, Code: response.CodeConflict, Key: "error.email_exists"},
		{Target: service.ErrPasswordMismatch, Code: response.CodeBadRequest, Key: "error.password_mismatch"},
		{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.invalid_credentials"},
		{Target: service.ErrInvalidPassword, Code: response.CodeBadRequest, Key: "error.invalid_credentials"},
		{Target: service.ErrUserDisabled, Code: response.CodeUnauthorized, Key: "error.user_disabled"},
		{Target: service.ErrUserNotFound, Code: response.CodeNotFound, Key: "error.user_not_found"},
	}
)

func respondMapped(c *gin.Context, err error, rules errorRules) {
	handlershared.RespondMapped(c, err, rules)
}

// respondCheckoutError 库存不足时逐项列出缺货商品
func respondCheckoutError(c *gin.Context, err error) {
	var shortage *service.InsufficientStockError
	if !errors.As(err, &shortage) {
		respondMapped(c, err, checkoutErrors)
		return
	}
	locale := i18n.ResolveLocale(c)
	lines := make([]string, 0, len(shortage.Items))
	for _, item := range shortage.Items {
		lines = append(lines, i18n.Sprintf(locale, "error.insufficient_stock_item", item.ProductName, item.Requested, item.Available))
	}
	response.ErrorWithData(c, response.CodeConflict, strings.Join(lines, "; "), gin.H{"items": shortage.Items})
}
