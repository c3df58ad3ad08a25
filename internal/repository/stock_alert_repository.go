package repository

import (
	"time"

	"github.com/candy-store/internal/models"

	"gorm.io/gorm"
)

// StockAlertRepository 到货提醒数据访问接口
type StockAlertRepository interface {
	GetPending(userID, productID uint) (*models.StockAlert, error)
	GetByIDAndUser(id, userID uint) (*models.StockAlert, error)
	ListByUser(userID uint) ([]models.StockAlert, error)
	ListPendingByProduct(productID uint) ([]models.StockAlert, error)
	ListPendingInStock() ([]models.StockAlert, error)
	Create(alert *models.StockAlert) error
	MarkNotified(id uint, at time.Time) (int64, error)
	Delete(id uint) error
	DeleteByUser(userID uint) error
	WithTx(tx *gorm.DB) StockAlertRepository
}

// GormStockAlertRepository GORM 实现
type GormStockAlertRepository struct {
	store
}

// NewStockAlertRepository 创建到货提醒仓库
func NewStockAlertRepository(db *gorm.DB) *GormStockAlertRepository {
	return &GormStockAlertRepository{store{db}}
}

// WithTx 绑定事务
func (r *GormStockAlertRepository) WithTx(tx *gorm.DB) StockAlertRepository {
	if tx == nil {
		return r
	}
	return &GormStockAlertRepository{store{tx}}
}

func (r *GormStockAlertRepository) first(query *gorm.DB) (*models.StockAlert, error) {
	return findOne[models.StockAlert](query)
}

// GetPending 获取未通知的提醒
func (r *GormStockAlertRepository) GetPending(userID, productID uint) (*models.StockAlert, error) {
	return r.first(r.db.Where("user_id = ? AND product_id = ? AND notified = ?", userID, productID, false))
}

// GetByIDAndUser 获取用户自己的提醒
func (r *GormStockAlertRepository) GetByIDAndUser(id, userID uint) (*models.StockAlert, error) {
	return r.first(r.db.Where("id = ? AND user_id = ?", id, userID))
}

// ListByUser 用户提醒列表
func (r *GormStockAlertRepository) ListByUser(userID uint) ([]models.StockAlert, error) {
	var alerts []models.StockAlert
	if err := r.db.Preload("Product").Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// ListPendingByProduct 某商品的未通知提醒（按用户升序）
func (r *GormStockAlertRepository) ListPendingByProduct(productID uint) ([]models.StockAlert, error) {
	var alerts []models.StockAlert
	if err := r.db.Where("product_id = ? AND notified = ?", productID, false).Order("user_id ASC, id ASC").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// ListPendingInStock 商品已有货但仍未通知的提醒
func (r *GormStockAlertRepository) ListPendingInStock() ([]models.StockAlert, error) {
	var alerts []models.StockAlert
	err := r.db.Preload("Product").
		Joins("JOIN products ON products.id = stock_alerts.product_id AND products.deleted_at IS NULL").
		Where("stock_alerts.notified = ? AND products.stock > 0", false).
		Order("stock_alerts.user_id ASC, stock_alerts.id ASC").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// Create 创建提醒
func (r *GormStockAlertRepository) Create(alert *models.StockAlert) error {
	return r.db.Create(alert).Error
}

// MarkNotified 标记为已通知，仅对未通知记录生效
func (r *GormStockAlertRepository) MarkNotified(id uint, at time.Time) (int64, error) {
	result := r.db.Model(&models.StockAlert{}).
		Where("id = ? AND notified = ?", id, false).
		Updates(map[string]interface{}{
			"notified":      true,
			"email_sent_at": at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Delete 删除提醒
func (r *GormStockAlertRepository) Delete(id uint) error {
	return r.db.Delete(&models.StockAlert{}, id).Error
}

// DeleteByUser 删除用户全部提醒
func (r *GormStockAlertRepository) DeleteByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.StockAlert{}).Error
}
