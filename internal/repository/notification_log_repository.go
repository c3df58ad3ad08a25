package repository

import (
	"strings"

	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/models"

	"gorm.io/gorm"
)

// NotificationLogRepository 通知记录数据访问接口
type NotificationLogRepository interface {
	Create(log *models.NotificationLog) error
	LatestSent(userID, productID uint, kind string) (*models.NotificationLog, error)
	List(filter NotificationLogListFilter) ([]models.NotificationLog, int64, error)
}

// GormNotificationLogRepository GORM 实现
type GormNotificationLogRepository struct {
	store
}

// NewNotificationLogRepository 创建通知记录仓库
func NewNotificationLogRepository(db *gorm.DB) *GormNotificationLogRepository {
	return &GormNotificationLogRepository{store{db}}
}

// Create 写入通知记录
func (r *GormNotificationLogRepository) Create(log *models.NotificationLog) error {
	return r.db.Create(log).Error
}

// LatestSent 获取某用户某商品某类型最近一次成功发送的记录
func (r *GormNotificationLogRepository) LatestSent(userID, productID uint, kind string) (*models.NotificationLog, error) {
	query := r.db.
		Where("user_id = ? AND product_id = ? AND kind = ?", userID, productID, kind).
		Where("status = ?", constants.NotificationStatusSent).
		Order("created_at DESC, id DESC")
	return findOne[models.NotificationLog](query)
}

// List 管理端通知记录列表
func (r *GormNotificationLogRepository) List(filter NotificationLogListFilter) ([]models.NotificationLog, int64, error) {
	query := r.db.Model(&models.NotificationLog{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if kind := strings.TrimSpace(filter.Kind); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	return listPage[models.NotificationLog](query, filter.Page, filter.PageSize, "id DESC")
}
