package service

import (
	"context"
	"strings"

	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"

	"gorm.io/gorm"
)

// ProductInput 商品创建/更新输入，更新时 nil 字段保持不变
type ProductInput struct {
	Name        *string
	Description *string
	Price       *models.Money
	Stock       *int
	Category    *string
	ImageURL    *string
}

// InventoryService 库存管理服务
type InventoryService struct {
	productRepo   repository.ProductRepository
	stockNotifier *StockChangeNotifier
}

// NewInventoryService 创建库存管理服务
func NewInventoryService(productRepo repository.ProductRepository, stockNotifier *StockChangeNotifier) *InventoryService {
	return &InventoryService{productRepo: productRepo, stockNotifier: stockNotifier}
}

// List 管理端商品列表
func (s *InventoryService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// Create 创建商品，不触发库存通知
func (s *InventoryService) Create(input ProductInput) (*models.Product, error) {
	product := &models.Product{}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, ErrProductNameRequired
	}
	if input.Price == nil {
		return nil, ErrInvalidPrice
	}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	logger.Infow("inventory_product_created", "product_id", product.ID, "stock", product.Stock)
	return product, nil
}

// Update 更新商品；库存变化时以 (旧值, 新值) 触发通知
func (s *InventoryService) Update(ctx context.Context, id uint, input ProductInput) (*models.Product, error) {
	var (
		product  *models.Product
		oldStock int
	)
	err := s.productRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.productRepo.WithTx(tx)
		current, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrProductNotFound
		}
		oldStock = current.Stock
		if err := applyProductInput(current, input); err != nil {
			return err
		}
		if err := repo.Update(current); err != nil {
			return err
		}
		product = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	if product.Stock != oldStock {
		s.publish(ctx, product, oldStock, product.Stock)
	}
	return product, nil
}

// AdjustStock 原子增减库存并触发通知
func (s *InventoryService) AdjustStock(ctx context.Context, id uint, delta int) (*models.Product, error) {
	var (
		product  *models.Product
		oldStock int
	)
	err := s.productRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.productRepo.WithTx(tx)
		current, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrProductNotFound
		}
		if delta == 0 {
			product = current
			oldStock = current.Stock
			return nil
		}
		if _, err := repo.AdjustStock(id, delta); err != nil {
			return err
		}
		newStock, err := repo.GetStock(id)
		if err != nil {
			return err
		}
		oldStock = newStock - delta
		current.Stock = newStock
		product = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	if product.Stock != oldStock {
		s.publish(ctx, product, oldStock, product.Stock)
	}
	return product, nil
}

// Delete 删除商品（软删除）
func (s *InventoryService) Delete(id uint) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	return s.productRepo.Delete(id)
}

func (s *InventoryService) publish(ctx context.Context, product *models.Product, oldStock, newStock int) {
	logger.Infow("inventory_stock_changed", "product_id", product.ID, "old_stock", oldStock, "new_stock", newStock)
	if s.stockNotifier == nil {
		return
	}
	s.stockNotifier.Publish(ctx, product, oldStock, newStock)
}

func applyProductInput(product *models.Product, input ProductInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return ErrProductNameRequired
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return ErrInvalidPrice
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	return nil
}
