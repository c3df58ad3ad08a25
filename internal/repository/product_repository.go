package repository

import (
	"errors"
	"strings"

	"github.com/candy-store/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	GetByID(id uint) (*models.Product, error)
	ListByIDs(ids []uint) ([]models.Product, error)
	ListCategories() ([]string, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
	GetStock(id uint) (int, error)
	DecrementStock(id uint, quantity int) (int64, error)
	AdjustStock(id uint, delta int) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	store
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{store{db}}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{store{tx}}
}

// List 支持分类、关键字、是否有货过滤
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	query = whereKeyword(query, filter.Search, "name", "description")
	if filter.InStock != nil {
		if *filter.InStock {
			query = query.Where("stock > 0")
		} else {
			query = query.Where("stock <= 0")
		}
	}

	return listPage[models.Product](query, filter.Page, filter.PageSize, productOrderClause(filter.OrderBy))
}

func productOrderClause(orderBy string) string {
	switch strings.ToLower(strings.TrimSpace(orderBy)) {
	case "name":
		return "name ASC, id ASC"
	case "price":
		return "price ASC, id ASC"
	case "price_desc":
		return "price DESC, id ASC"
	default:
		return "created_at DESC, id DESC"
	}
}

// GetByID 已软删除的商品视为不存在
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	return findOne[models.Product](r.db, "id = ?", id)
}

// ListByIDs 批量获取商品
func (r *GormProductRepository) ListByIDs(ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	err := r.db.Where("id IN ?", ids).Order("id ASC").Find(&products).Error
	return products, err
}

// ListCategories 获取去重后的分类
func (r *GormProductRepository) ListCategories() ([]string, error) {
	var categories []string
	err := r.db.Model(&models.Product{}).
		Where("category <> ''").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update 更新商品
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

// Delete 删除商品（软删除）
func (r *GormProductRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

// GetStock 读取当前库存
func (r *GormProductRepository) GetStock(id uint) (int, error) {
	var row struct{ Stock int }
	if err := r.db.Model(&models.Product{}).Select("stock").Where("id = ?", id).Take(&row).Error; err != nil {
		return 0, err
	}
	return row.Stock, nil
}

// DecrementStock 条件扣减库存，库存不足时影响行数为 0
func (r *GormProductRepository) DecrementStock(id uint, quantity int) (int64, error) {
	if id == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock decrement params")
	}
	return rowsAffected(r.db.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity)))
}

// AdjustStock 原子增减库存
func (r *GormProductRepository) AdjustStock(id uint, delta int) (int64, error) {
	if id == 0 {
		return 0, errors.New("invalid stock adjust params")
	}
	if delta == 0 {
		return 0, nil
	}
	return rowsAffected(r.db.Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", delta)))
}
