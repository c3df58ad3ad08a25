package repository

import (
	"strings"

	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	ListByIDs(ids []uint) ([]models.User, error)
	ListRestockSubscribers() ([]models.User, error)
	List(filter UserListFilter) ([]models.User, int64, error)
	Create(user *models.User) error
	Update(user *models.User) error
	Delete(id uint) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) UserRepository
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	store
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{store{db}}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{store{tx}}
}

func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	return findOne[models.User](r.db, "id = ?", id)
}

func (r *GormUserRepository) GetByUsername(username string) (*models.User, error) {
	return findOne[models.User](r.db, "username = ?", username)
}

// GetByEmail 空邮箱不参与匹配
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil
	}
	return findOne[models.User](r.db, "email = ?", email)
}

// ListByIDs 批量获取用户
func (r *GormUserRepository) ListByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	err := r.db.Where("id IN ?", ids).Order("id ASC").Find(&users).Error
	return users, err
}

// ListRestockSubscribers 启用状态的用户，未设置偏好时默认接收到货提醒
func (r *GormUserRepository) ListRestockSubscribers() ([]models.User, error) {
	var users []models.User
	err := r.db.Model(&models.User{}).
		Joins("LEFT JOIN user_preferences ON user_preferences.user_id = users.id").
		Where("users.status = ?", constants.UserStatusActive).
		Where("user_preferences.id IS NULL OR user_preferences.restock_email_alerts = ?", true).
		Order("users.id ASC").
		Find(&users).Error
	return users, err
}

// List 管理端用户列表，附带通知偏好
func (r *GormUserRepository) List(filter UserListFilter) ([]models.User, int64, error) {
	query := whereKeyword(r.db.Model(&models.User{}), filter.Keyword, "username", "email")
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	return listPage[models.User](query, filter.Page, filter.PageSize, "id DESC", preload("Preference"))
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 更新用户
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete 删除用户（软删除）
func (r *GormUserRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.User{}, id).Error
}
