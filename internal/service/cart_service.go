package service

import (
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"
)

// CartItemDetail 购物车项详情（用于响应）
type CartItemDetail struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice models.Money    `json:"unit_price"`
	LineTotal models.Money    `json:"line_total"`
	InStock   bool            `json:"in_stock"`
	Product   *models.Product `json:"product"`
}

// CartSummary 购物车汇总
type CartSummary struct {
	Items      []CartItemDetail `json:"items"`
	TotalItems int              `json:"total_items"`
	TotalPrice models.Money     `json:"total_price"`
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// List 获取用户购物车，已删除的商品会被顺带清理
func (s *CartService) List(userID uint) (*CartSummary, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	summary := &CartSummary{Items: make([]CartItemDetail, 0, len(items))}
	for _, item := range items {
		product := item.Product
		if product == nil || product.ID == 0 {
			p, err := s.productRepo.GetByID(item.ProductID)
			if err != nil {
				return nil, err
			}
			product = p
		}
		if product == nil {
			_ = s.cartRepo.DeleteByUserAndProduct(userID, item.ProductID)
			continue
		}
		line := product.Price.MulInt(item.Quantity)
		summary.Items = append(summary.Items, CartItemDetail{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			LineTotal: line,
			InStock:   product.Stock >= item.Quantity,
			Product:   product,
		})
		summary.TotalItems += item.Quantity
		summary.TotalPrice = summary.TotalPrice.Add(line)
	}
	return summary, nil
}

// Add 加入购物车，已存在时累加数量
func (s *CartService) Add(userID, productID uint, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if err := s.ensureProduct(productID); err != nil {
		return nil, err
	}
	return s.cartRepo.Increment(userID, productID, quantity)
}

// SetQuantity 设置数量，数量不大于 0 时移除
func (s *CartService) SetQuantity(userID, productID uint, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, s.cartRepo.DeleteByUserAndProduct(userID, productID)
	}
	if err := s.ensureProduct(productID); err != nil {
		return nil, err
	}
	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := s.cartRepo.Upsert(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Remove 移除购物车项
func (s *CartService) Remove(userID, productID uint) error {
	return s.cartRepo.DeleteByUserAndProduct(userID, productID)
}

// Clear 清空购物车
func (s *CartService) Clear(userID uint) error {
	return s.cartRepo.ClearByUser(userID)
}

func (s *CartService) ensureProduct(productID uint) error {
	if productID == 0 {
		return ErrProductNotFound
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	return nil
}
