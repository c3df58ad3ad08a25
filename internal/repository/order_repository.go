package repository

import (
	"errors"
	"strings"

	"github.com/candy-store/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndUser(id uint, userID uint) (*models.Order, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateStatusIfCurrent(id uint, from, to string, updates map[string]interface{}) (int64, error)
	ListBuyerIDsByProduct(productID uint) ([]uint, error)
	ResolveReceiverEmailByOrderID(orderID uint) (string, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) OrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	store
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{store{db}}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{store{tx}}
}

// withItems 订单项按插入顺序预加载
func (r *GormOrderRepository) withItems() *gorm.DB {
	return r.db.Preload("Items", itemsInOrder)
}

// Create 先写订单再回填订单项的 order_id
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	if len(items) > 0 {
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	return findOne[models.Order](r.withItems(), "id = ?", id)
}

// GetByIDAndUser 他人订单视同不存在
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	return findOne[models.Order](r.withItems(), "id = ? AND user_id = ?", id, userID)
}

func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	filter.OrderNo = ""
	if filter.UserID == 0 {
		return []models.Order{}, 0, nil
	}
	return r.ListAdmin(filter)
}

// ListAdmin 各过滤条件均可为空
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if orderNo := strings.TrimSpace(filter.OrderNo); orderNo != "" {
		query = query.Where("order_no = ?", orderNo)
	}
	return listPage[models.Order](query, filter.Page, filter.PageSize, "id DESC", preload("Items", itemsInOrder))
}

// UpdateStatusIfCurrent 仅当状态仍为 from 时更新为 to，返回影响行数
func (r *GormOrderRepository) UpdateStatusIfCurrent(id uint, from, to string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	return rowsAffected(r.db.Model(&models.Order{}).Where("id = ? AND status = ?", id, from).Updates(updates))
}

// ListBuyerIDsByProduct 获取购买过某商品的去重用户 ID（升序）
func (r *GormOrderRepository) ListBuyerIDsByProduct(productID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id AND orders.deleted_at IS NULL").
		Where("order_items.product_id = ? AND orders.user_id IS NOT NULL", productID).
		Distinct("orders.user_id").
		Order("orders.user_id ASC").
		Pluck("orders.user_id", &ids).Error
	return ids, err
}

// ResolveReceiverEmailByOrderID 状态通知收件人：优先账号邮箱，其次下单时填写的邮箱
func (r *GormOrderRepository) ResolveReceiverEmailByOrderID(orderID uint) (string, error) {
	if orderID == 0 {
		return "", nil
	}
	var row struct {
		OrderEmail string
		UserEmail  *string
	}
	err := r.db.Table("orders").
		Select("orders.email AS order_email, users.email AS user_email").
		Joins("LEFT JOIN users ON users.id = orders.user_id AND users.deleted_at IS NULL").
		Where("orders.id = ? AND orders.deleted_at IS NULL", orderID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if row.UserEmail != nil {
		if email := strings.TrimSpace(*row.UserEmail); email != "" {
			return email, nil
		}
	}
	return strings.TrimSpace(row.OrderEmail), nil
}
