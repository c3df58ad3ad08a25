package repository

import (

	"github.com/candy-store/internal/models"

	"gorm.io/gorm"
)

// RatingSummary 商品评分汇总
type RatingSummary struct {
	Average float64
	Count   int64
}

// ReviewRepository 评价数据访问接口
type ReviewRepository interface {
	Create(review *models.Review) error
	Update(review *models.Review) error
	Delete(id uint) error
	GetByIDAndUser(id, userID uint) (*models.Review, error)
	GetByUserAndProduct(userID, productID uint) (*models.Review, error)
	ListByProduct(productID uint, page, pageSize int) ([]models.Review, int64, error)
	ListByUser(userID uint) ([]models.Review, error)
	Summary(productID uint) (RatingSummary, error)
	DeleteByUser(userID uint) error
	WithTx(tx *gorm.DB) ReviewRepository
}

// GormReviewRepository GORM 实现
type GormReviewRepository struct {
	store
}

// NewReviewRepository 创建评价仓库
func NewReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{store{db}}
}

// WithTx 绑定事务
func (r *GormReviewRepository) WithTx(tx *gorm.DB) ReviewRepository {
	if tx == nil {
		return r
	}
	return &GormReviewRepository{store{tx}}
}

func (r *GormReviewRepository) first(query *gorm.DB) (*models.Review, error) {
	return findOne[models.Review](query)
}

// Create 创建评价
func (r *GormReviewRepository) Create(review *models.Review) error {
	return r.db.Create(review).Error
}

// Update 更新评价
func (r *GormReviewRepository) Update(review *models.Review) error {
	return r.db.Model(&models.Review{}).Where("id = ?", review.ID).Updates(map[string]interface{}{
		"rating":  review.Rating,
		"comment": review.Comment,
	}).Error
}

// Delete 删除评价
func (r *GormReviewRepository) Delete(id uint) error {
	return r.db.Delete(&models.Review{}, id).Error
}

// GetByIDAndUser 获取用户自己的评价
func (r *GormReviewRepository) GetByIDAndUser(id, userID uint) (*models.Review, error) {
	return r.first(r.db.Where("id = ? AND user_id = ?", id, userID))
}

// GetByUserAndProduct 获取用户对某商品的评价
func (r *GormReviewRepository) GetByUserAndProduct(userID, productID uint) (*models.Review, error) {
	return r.first(r.db.Where("user_id = ? AND product_id = ?", userID, productID))
}

// ListByProduct 商品评价列表
func (r *GormReviewRepository) ListByProduct(productID uint, page, pageSize int) ([]models.Review, int64, error) {
	query := r.db.Model(&models.Review{}).Where("product_id = ?", productID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reviews []models.Review
	err := applyPagination(query, page, pageSize).
		Preload("User").
		Order("created_at DESC, id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// ListByUser 用户评价列表
func (r *GormReviewRepository) ListByUser(userID uint) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// Summary 商品评分汇总
func (r *GormReviewRepository) Summary(productID uint) (RatingSummary, error) {
	var row struct {
		Average *float64
		Count   int64
	}
	err := r.db.Model(&models.Review{}).
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return RatingSummary{}, err
	}
	summary := RatingSummary{Count: row.Count}
	if row.Average != nil {
		summary.Average = *row.Average
	}
	return summary, nil
}

// DeleteByUser 删除用户全部评价
func (r *GormReviewRepository) DeleteByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.Review{}).Error
}
