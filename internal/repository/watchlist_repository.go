package repository

import (
	"time"

	"github.com/candy-store/internal/models"

	"gorm.io/gorm"
)

// WatchlistRepository 关注列表数据访问接口
type WatchlistRepository interface {
	GetByUserAndProduct(userID, productID uint) (*models.WatchlistEntry, error)
	GetByIDAndUser(id, userID uint) (*models.WatchlistEntry, error)
	ListByUser(userID uint) ([]models.WatchlistEntry, error)
	ListByProduct(productID uint) ([]models.WatchlistEntry, error)
	ListWithProducts() ([]models.WatchlistEntry, error)
	Create(entry *models.WatchlistEntry) error
	Update(entry *models.WatchlistEntry) error
	TouchLastNotified(id uint, at time.Time) error
	Delete(id uint) error
	DeleteByUser(userID uint) error
	WithTx(tx *gorm.DB) WatchlistRepository
}

// GormWatchlistRepository GORM 实现
type GormWatchlistRepository struct {
	store
}

// NewWatchlistRepository 创建关注列表仓库
func NewWatchlistRepository(db *gorm.DB) *GormWatchlistRepository {
	return &GormWatchlistRepository{store{db}}
}

// WithTx 绑定事务
func (r *GormWatchlistRepository) WithTx(tx *gorm.DB) WatchlistRepository {
	if tx == nil {
		return r
	}
	return &GormWatchlistRepository{store{tx}}
}

func (r *GormWatchlistRepository) first(query *gorm.DB) (*models.WatchlistEntry, error) {
	return findOne[models.WatchlistEntry](query)
}

// GetByUserAndProduct 获取用户对某商品的关注
func (r *GormWatchlistRepository) GetByUserAndProduct(userID, productID uint) (*models.WatchlistEntry, error) {
	return r.first(r.db.Where("user_id = ? AND product_id = ?", userID, productID))
}

// GetByIDAndUser 获取用户自己的关注记录
func (r *GormWatchlistRepository) GetByIDAndUser(id, userID uint) (*models.WatchlistEntry, error) {
	return r.first(r.db.Preload("Product").Where("id = ? AND user_id = ?", id, userID))
}

// ListByUser 用户关注列表（含商品）
func (r *GormWatchlistRepository) ListByUser(userID uint) ([]models.WatchlistEntry, error) {
	var entries []models.WatchlistEntry
	if err := r.db.Preload("Product").Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListByProduct 某商品的全部关注者（按用户升序）
func (r *GormWatchlistRepository) ListByProduct(productID uint) ([]models.WatchlistEntry, error) {
	var entries []models.WatchlistEntry
	if err := r.db.Where("product_id = ?", productID).Order("user_id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListWithProducts 全部关注记录（含商品），用于批量巡检
func (r *GormWatchlistRepository) ListWithProducts() ([]models.WatchlistEntry, error) {
	var entries []models.WatchlistEntry
	err := r.db.Preload("Product").
		Joins("JOIN products ON products.id = watchlist_entries.product_id AND products.deleted_at IS NULL").
		Order("watchlist_entries.user_id ASC, watchlist_entries.id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Create 创建关注
func (r *GormWatchlistRepository) Create(entry *models.WatchlistEntry) error {
	return r.db.Create(entry).Error
}

// Update 更新关注
func (r *GormWatchlistRepository) Update(entry *models.WatchlistEntry) error {
	return r.db.Model(&models.WatchlistEntry{}).Where("id = ?", entry.ID).Updates(map[string]interface{}{
		"custom_threshold": entry.CustomThreshold,
		"auto_added":       entry.AutoAdded,
		"last_notified":    entry.LastNotified,
	}).Error
}

// TouchLastNotified 更新最近通知时间
func (r *GormWatchlistRepository) TouchLastNotified(id uint, at time.Time) error {
	return r.db.Model(&models.WatchlistEntry{}).Where("id = ?", id).Update("last_notified", at).Error
}

// Delete 删除关注
func (r *GormWatchlistRepository) Delete(id uint) error {
	return r.db.Delete(&models.WatchlistEntry{}, id).Error
}

// DeleteByUser 删除用户全部关注
func (r *GormWatchlistRepository) DeleteByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.WatchlistEntry{}).Error
}
