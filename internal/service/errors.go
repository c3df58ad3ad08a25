package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound                  = errors.New("not found")
	ErrProductNotFound           = errors.New("product not found")
	ErrProductNameRequired       = errors.New("product name required")
	ErrInvalidPrice              = errors.New("invalid price")
	ErrOrderNotFound             = errors.New("order not found")
	ErrOrderCancelNotAllowed     = errors.New("order cannot be cancelled")
	ErrOrderFetchFailed          = errors.New("order fetch failed")
	ErrOrderUpdateFailed         = errors.New("order update failed")
	ErrInsufficientStock         = errors.New("insufficient stock")
	ErrCartEmpty                 = errors.New("cart is empty")
	ErrInvalidQuantity           = errors.New("invalid quantity")
	ErrShippingInfoRequired      = errors.New("shipping information required")
	ErrWatchlistEntryNotFound    = errors.New("watchlist entry not found")
	ErrStockAlertNotFound        = errors.New("stock alert not found")
	ErrStockAlertExists          = errors.New("stock alert already pending")
	ErrReviewExists              = errors.New("review already exists")
	ErrReviewNotFound            = errors.New("review not found")
	ErrInvalidRating             = errors.New("rating must be between 1 and 5")
	ErrInvalidThreshold          = errors.New("invalid threshold")
	ErrUserNotFound              = errors.New("user not found")
	ErrUserDisabled              = errors.New("user disabled")
	ErrInvalidUserStatus         = errors.New("invalid user status")
	ErrEmailExists               = errors.New("email already exists")
	ErrInvalidEmail              = errors.New("invalid email")
	ErrUsernameExists            = errors.New("username already exists")
	ErrInvalidUsername           = errors.New("invalid username")
	ErrPasswordMismatch          = errors.New("passwords do not match")
	ErrWeakPassword              = errors.New("password does not satisfy policy")
	ErrInvalidPassword           = errors.New("invalid password")
	ErrInvalidCredentials        = errors.New("invalid credentials")
	ErrCaptchaRequired           = errors.New("captcha required")
	ErrCaptchaInvalid            = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid      = errors.New("captcha config invalid")
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)

// StockShortage 单个商品的库存缺口
type StockShortage struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// Message 面向用户的缺货提示
func (s StockShortage) Message() string {
	return fmt.Sprintf("Not enough stock for %s (requested %d, only %d available)", s.ProductName, s.Requested, s.Available)
}

// InsufficientStockError 下单时库存不足，逐项列出缺口
type InsufficientStockError struct {
	Items []StockShortage
}

func (e *InsufficientStockError) Error() string {
	if e == nil || len(e.Items) == 0 {
		return ErrInsufficientStock.Error()
	}
	parts := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		parts = append(parts, item.Message())
	}
	return strings.Join(parts, "; ")
}

// Is 支持 errors.Is(err, ErrInsufficientStock)
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Messages 逐项提示
func (e *InsufficientStockError) Messages() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		out = append(out, item.Message())
	}
	return out
}
