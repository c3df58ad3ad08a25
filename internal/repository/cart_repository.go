package repository

import (
	"errors"
	"time"

	"github.com/candy-store/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository 购物车数据访问接口，(user_id, product_id) 唯一
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	Get(userID, productID uint) (*models.CartItem, error)
	Upsert(item *models.CartItem) error
	Increment(userID, productID uint, delta int) (*models.CartItem, error)
	DeleteByUserAndProduct(userID, productID uint) error
	DeleteByUserAndProducts(userID uint, productIDs []uint) error
	ClearByUser(userID uint) error
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	store
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{store{db}}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{store{tx}}
}

var cartConflictColumns = []clause.Column{{Name: "user_id"}, {Name: "product_id"}}

func (r *GormCartRepository) owned(userID uint) *gorm.DB {
	return r.db.Where("user_id = ?", userID)
}

// ListByUser 按加入顺序返回购物车项并预加载商品
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.owned(userID).Preload("Product").Order("id ASC").Find(&items).Error
	return items, err
}

// Get 不存在时返回 nil, nil
func (r *GormCartRepository) Get(userID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.owned(userID).Where("product_id = ?", productID).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Upsert 以 item.Quantity 覆盖已有数量
func (r *GormCartRepository) Upsert(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   cartConflictColumns,
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(item).Error
}

// Increment 原子累加数量，行不存在时以 delta 新建
func (r *GormCartRepository) Increment(userID, productID uint, delta int) (*models.CartItem, error) {
	if delta <= 0 {
		return nil, errors.New("cart increment must be positive")
	}
	now := time.Now()
	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: delta}
	err := r.db.Clauses(clause.OnConflict{
		Columns: cartConflictColumns,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + ?", delta),
			"updated_at": now,
		}),
	}).Create(item).Error
	if err != nil {
		return nil, err
	}
	return r.Get(userID, productID)
}

// DeleteByUserAndProduct 删除单个购物车项
func (r *GormCartRepository) DeleteByUserAndProduct(userID, productID uint) error {
	return r.owned(userID).Where("product_id = ?", productID).Delete(&models.CartItem{}).Error
}

// DeleteByUserAndProducts 下单后移除已结算的商品
func (r *GormCartRepository) DeleteByUserAndProducts(userID uint, productIDs []uint) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.owned(userID).Where("product_id IN ?", productIDs).Delete(&models.CartItem{}).Error
}

// ClearByUser 清空购物车
func (r *GormCartRepository) ClearByUser(userID uint) error {
	return r.owned(userID).Delete(&models.CartItem{}).Error
}
