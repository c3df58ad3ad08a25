package repository

import (
	"github.com/candy-store/internal/models"

	"gorm.io/gorm"
)

// FavoriteRepository 收藏数据访问接口
type FavoriteRepository interface {
	Add(userID, productID uint) (*models.Favorite, error)
	Remove(userID, productID uint) (int64, error)
	Exists(userID, productID uint) (bool, error)
	ListByUser(userID uint) ([]models.Favorite, error)
	DeleteByUser(userID uint) error
	WithTx(tx *gorm.DB) FavoriteRepository
}

// GormFavoriteRepository GORM 实现
type GormFavoriteRepository struct {
	store
}

// NewFavoriteRepository 创建收藏仓库
func NewFavoriteRepository(db *gorm.DB) *GormFavoriteRepository {
	return &GormFavoriteRepository{store{db}}
}

// WithTx 绑定事务
func (r *GormFavoriteRepository) WithTx(tx *gorm.DB) FavoriteRepository {
	if tx == nil {
		return r
	}
	return &GormFavoriteRepository{store{tx}}
}

// Add 收藏商品，已收藏时返回原记录
func (r *GormFavoriteRepository) Add(userID, productID uint) (*models.Favorite, error) {
	favorite := models.Favorite{UserID: userID, ProductID: productID}
	if err := r.db.Where("user_id = ? AND product_id = ?", userID, productID).FirstOrCreate(&favorite).Error; err != nil {
		return nil, err
	}
	return &favorite, nil
}

// Remove 取消收藏
func (r *GormFavoriteRepository) Remove(userID, productID uint) (int64, error) {
	result := r.db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.Favorite{})
	return result.RowsAffected, result.Error
}

// Exists 是否已收藏
func (r *GormFavoriteRepository) Exists(userID, productID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Favorite{}).Where("user_id = ? AND product_id = ?", userID, productID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByUser 用户收藏列表
func (r *GormFavoriteRepository) ListByUser(userID uint) ([]models.Favorite, error) {
	var favorites []models.Favorite
	if err := r.db.Preload("Product").Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&favorites).Error; err != nil {
		return nil, err
	}
	return favorites, nil
}

// DeleteByUser 删除用户全部收藏
func (r *GormFavoriteRepository) DeleteByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.Favorite{}).Error
}
